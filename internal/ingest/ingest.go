// Package ingest provides shared helpers for the bulk import pipelines:
// input opening with decompression sniffing, progress reporting and
// skip accounting.
package ingest

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/klauspost/compress/gzip"

	"github.com/openbio/annostore/internal/errs"
)

// Input is an open source file, possibly decompressed and proxied through
// a progress bar.
type Input struct {
	io.Reader

	file *os.File
	gz   *gzip.Reader
	bar  *pb.ProgressBar
}

// Open opens path for reading, decompressing by extension (".gz", ".bgz").
// With progress enabled, reads are proxied through a byte progress bar on
// stderr.
func Open(path string, progress bool) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.WrapKind("ingest.Open", errs.KindIO, err)
	}
	in := &Input{file: f}

	var r io.Reader = f
	if progress {
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, errs.WrapKind("ingest.Open", errs.KindIO, err)
		}
		in.bar = pb.Full.Start64(fi.Size())
		in.bar.Set(pb.Bytes, true)
		in.bar.SetWriter(os.Stderr)
		r = in.bar.NewProxyReader(f)
	}

	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".bgz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			in.Close()
			return nil, errs.WrapKind("ingest.Open", errs.KindIO, err)
		}
		in.gz = gz
		r = gz
	}

	in.Reader = r
	return in, nil
}

// Close releases the underlying file and finishes the progress bar.
func (in *Input) Close() error {
	if in.bar != nil {
		in.bar.Finish()
	}
	if in.gz != nil {
		in.gz.Close()
	}
	return in.file.Close()
}

// SkipCounter tracks records skipped during an import.
// Use this to provide visibility into silently dropped input.
type SkipCounter struct {
	Op         string
	Count      int
	LastDetail string
}

// NewSkipCounter creates a new skip counter for the given operation.
func NewSkipCounter(op string) *SkipCounter {
	return &SkipCounter{Op: op}
}

// Skip records one skipped record.
func (s *SkipCounter) Skip(detail string) {
	s.Count++
	s.LastDetail = detail
	slog.Warn("skipping record", "op", s.Op, "detail", detail)
}

// Report logs a summary if any records were skipped.
func (s *SkipCounter) Report() {
	if s.Count > 0 {
		slog.Warn("records skipped during import",
			"op", s.Op, "count", s.Count, "last", s.LastDetail)
	}
}
