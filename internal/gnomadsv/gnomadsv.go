// Package gnomadsv implements import and interval extraction for gnomAD
// structural-variant call sets.
package gnomadsv

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/ingest"
	"github.com/openbio/annostore/internal/intervals"
	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/records"
	"github.com/openbio/annostore/internal/store"
)

// DefaultCF is the column family holding SV records keyed by call ID.
const DefaultCF = "gnomad_sv"

// ImportConfig parameterizes one gnomAD SV import run.
type ImportConfig struct {
	// Target column family.
	CF string
	// Genome release of the data.
	GenomeRelease string
	// Version of the imported source.
	SourceVersion string
	// Kind tag, e.g. "genomes".
	SourceKind string
	// Show progress bars on stderr.
	Progress bool
}

// Import ingests JSONL files of SV calls keyed by their call ID.
func Import(db *store.DB, cfg ImportConfig, paths []string) error {
	if cfg.CF == "" {
		cfg.CF = DefaultCF
	}
	if err := db.CreateColumnFamily(cfg.CF); err != nil {
		return err
	}

	skipped := ingest.NewSkipCounter("gnomad-sv import")
	for _, path := range paths {
		in, err := ingest.Open(path, cfg.Progress)
		if err != nil {
			return err
		}
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 1<<20), 1<<24)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			var record records.GnomadSV
			if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
				in.Close()
				return errs.SourceParse("gnomadsv.Import", lineNo, path, err)
			}
			if record.ID == "" {
				in.Close()
				return errs.SourceParse("gnomadsv.Import", lineNo, path,
					fmt.Errorf("record without call ID"))
			}
			if !keys.IsCanonical(record.Chromosome) {
				skipped.Skip(fmt.Sprintf("line %d: non-canonical chromosome %q", lineNo, record.Chromosome))
				continue
			}
			record.Chromosome = keys.Canonicalize(record.Chromosome)
			if err := db.Put(cfg.CF, []byte(record.ID), record.Marshal()); err != nil {
				in.Close()
				return err
			}
		}
		err = scanner.Err()
		in.Close()
		if err != nil {
			return errs.WrapKind("gnomadsv.Import", errs.KindIO, err)
		}
	}
	skipped.Report()

	kind := cfg.SourceKind
	if kind == "" {
		kind = "gnomad-sv"
	}
	if err := db.WriteMeta(&store.Meta{
		GenomeRelease: cfg.GenomeRelease,
		SourceVersion: cfg.SourceVersion,
		SourceKind:    kind,
	}); err != nil {
		return err
	}
	return db.CompactAll()
}

// Extract is the interval-tree extraction function for SV families.
func Extract(key, value []byte) (string, int32, int32, []byte, error) {
	var record records.GnomadSV
	if err := record.Unmarshal(value); err != nil {
		return "", 0, 0, nil, err
	}
	return record.Chromosome, record.Start, record.Stop, key, nil
}

// BuildForest builds the interval forest over an SV family.
func BuildForest(db *store.DB, cf string) (*intervals.Forest, error) {
	return intervals.Build(db, cf, Extract)
}
