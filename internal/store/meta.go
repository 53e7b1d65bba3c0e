package store

import (
	"strings"

	"github.com/openbio/annostore/internal/errs"
)

// Well-known meta column family keys.
const (
	MetaGenomeRelease  = "genome-release"
	MetaSourceVersion  = "source-version"
	MetaSourceKind     = "source-kind"
	MetaBuilderVersion = "builder-version"
	MetaFileSchema     = "file-schema"
	MetaInferConfig    = "infer-config"
)

// Meta holds the per-database metadata read at open time.
type Meta struct {
	// Genome release of the data, "grch37" or "grch38".
	GenomeRelease string
	// Version of the imported source.
	SourceVersion string
	// Kind tag of the source, e.g. "exomes" or "genomes".
	SourceKind string
	// Version of the builder that wrote the database.
	BuilderVersion string
}

// PutMeta writes one meta entry as UTF-8 bytes.
func (db *DB) PutMeta(key, value string) error {
	return db.Put(MetaCF, []byte(key), []byte(value))
}

// GetMeta reads one meta entry.
func (db *DB) GetMeta(key string) (string, error) {
	raw, err := db.Get(MetaCF, []byte(key))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// WriteMeta stores all non-empty fields of m.
func (db *DB) WriteMeta(m *Meta) error {
	entries := map[string]string{
		MetaGenomeRelease:  m.GenomeRelease,
		MetaSourceVersion:  m.SourceVersion,
		MetaSourceKind:     m.SourceKind,
		MetaBuilderVersion: m.BuilderVersion,
	}
	for key, value := range entries {
		if value == "" {
			continue
		}
		if err := db.PutMeta(key, value); err != nil {
			return err
		}
	}
	return nil
}

// ReadMeta reads the metadata of a database.  A database without the
// genome-release entry is rejected.
func (db *DB) ReadMeta() (*Meta, error) {
	release, err := db.GetMeta(MetaGenomeRelease)
	if err != nil {
		if errs.IsKind(err, errs.KindNotFound) {
			return nil, errs.Ef("store.ReadMeta", errs.KindMissingMetadata,
				"database %s has no meta:%s entry", db.path, MetaGenomeRelease)
		}
		return nil, err
	}
	release = strings.ToLower(release)
	if release != "grch37" && release != "grch38" {
		return nil, errs.Ef("store.ReadMeta", errs.KindMissingMetadata,
			"invalid meta:%s value %q", MetaGenomeRelease, release)
	}
	m := &Meta{GenomeRelease: release}
	m.SourceVersion, _ = db.GetMeta(MetaSourceVersion)
	m.SourceKind, _ = db.GetMeta(MetaSourceKind)
	m.BuilderVersion, _ = db.GetMeta(MetaBuilderVersion)
	return m, nil
}

// CheckGenomeRelease verifies that the database matches the caller's
// expected genome release; the comparison is case-insensitive.
func (db *DB) CheckGenomeRelease(expected string) error {
	if expected == "" {
		return nil
	}
	m, err := db.ReadMeta()
	if err != nil {
		return err
	}
	if !strings.EqualFold(m.GenomeRelease, expected) {
		return errs.Ef("store.CheckGenomeRelease", errs.KindAssemblyMismatch,
			"database is %s, caller expects %s", m.GenomeRelease, expected)
	}
	return nil
}
