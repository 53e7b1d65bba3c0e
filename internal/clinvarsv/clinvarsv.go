// Package clinvarsv implements import and query of extracted ClinVar
// structural variants.
//
// The main column family is keyed by VCV accession; a sibling family maps
// RCV accessions to the VCV key bytes so that either accession resolves to
// the same record.
package clinvarsv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/ingest"
	"github.com/openbio/annostore/internal/intervals"
	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/records"
	"github.com/openbio/annostore/internal/store"
)

// Default column family names.
const (
	DefaultCF      = "clinvar_sv"
	DefaultCFByRCV = "clinvar_sv_by_rcv"
)

// ByRCVName derives the accession index family name for a data family.
func ByRCVName(cf string) string {
	return cf + "_by_rcv"
}

// ImportConfig parameterizes one ClinVar SV import run.
type ImportConfig struct {
	// Target column family; the RCV index derives from it.
	CF string
	// Genome release of the data.
	GenomeRelease string
	// Version of the imported source.
	SourceVersion string
	// Show progress bars on stderr.
	Progress bool
}

// Import ingests JSONL files of extracted variants, maintaining the RCV
// index in the same pass, then writes meta entries and compacts.
func Import(db *store.DB, cfg ImportConfig, paths []string) error {
	if cfg.CF == "" {
		cfg.CF = DefaultCF
	}
	cfByRCV := ByRCVName(cfg.CF)
	for _, cf := range []string{cfg.CF, cfByRCV} {
		if err := db.CreateColumnFamily(cf); err != nil {
			return err
		}
	}

	skipped := ingest.NewSkipCounter("clinvar-sv import")
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
			var record records.ClinvarSV
			if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
				in.Close()
				return errs.SourceParse("clinvarsv.Import", lineNo, path, err)
			}
			if record.VCV == "" {
				in.Close()
				return errs.SourceParse("clinvarsv.Import", lineNo, path,
					fmt.Errorf("record without VCV accession"))
			}
			if !keys.IsCanonical(record.Chromosome) {
				skipped.Skip(fmt.Sprintf("line %d: non-canonical chromosome %q", lineNo, record.Chromosome))
				continue
			}
			record.Chromosome = keys.Canonicalize(record.Chromosome)

			vcvKey := []byte(record.VCV)
			if err := db.Put(cfg.CF, vcvKey, record.Marshal()); err != nil {
				in.Close()
				return err
			}
			for _, rcv := range record.RCVs {
				if err := db.Put(cfByRCV, []byte(rcv), vcvKey); err != nil {
					in.Close()
					return err
				}
			}
		}
		err = scanner.Err()
		in.Close()
		if err != nil {
			return errs.WrapKind("clinvarsv.Import", errs.KindIO, err)
		}
	}
	skipped.Report()

	if err := db.WriteMeta(&store.Meta{
		GenomeRelease: cfg.GenomeRelease,
		SourceVersion: cfg.SourceVersion,
		SourceKind:    "clinvar-sv",
	}); err != nil {
		return err
	}
	return db.CompactAll()
}

// QueryAccession resolves a VCV or RCV accession to its record.  RCV
// accessions go through the index family first.
func QueryAccession(db *store.DB, cf, accession string) (*records.ClinvarSV, error) {
	var vcvKey []byte
	switch {
	case strings.HasPrefix(accession, "VCV"):
		vcvKey = []byte(accession)
	case strings.HasPrefix(accession, "RCV"):
		var err error
		vcvKey, err = db.Get(ByRCVName(cf), []byte(accession))
		if err != nil {
			return nil, err
		}
	default:
		return nil, errs.Ef("clinvarsv.QueryAccession", errs.KindInvalidLocus,
			"not a valid VCV/RCV accession: %q", accession)
	}

	raw, err := db.Get(cf, vcvKey)
	if err != nil {
		return nil, err
	}
	var record records.ClinvarSV
	if err := record.Unmarshal(raw); err != nil {
		return nil, err
	}
	return &record, nil
}

// Extract is the interval-tree extraction function for ClinVar SV
// families.  Records without any usable location pair are dropped with a
// warning by returning the zero chromosome, which the builder skips.
func Extract(key, value []byte) (string, int32, int32, []byte, error) {
	var record records.ClinvarSV
	if err := record.Unmarshal(value); err != nil {
		return "", 0, 0, nil, err
	}
	start, stop, ok := record.Location()
	if !ok {
		slog.Warn("skipping record without start/stop", "vcv", record.VCV)
		return "", 0, 0, nil, nil
	}
	return record.Chromosome, start, stop, key, nil
}

// BuildForest builds the interval forest over a ClinVar SV family.
func BuildForest(db *store.DB, cf string) (*intervals.Forest, error) {
	return intervals.Build(db, cf, Extract)
}
