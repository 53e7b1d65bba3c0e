package clinvarsv

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/store"
)

func setupImportedDB(t *testing.T, jsonl string) *store.DB {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "clinvar-sv.jsonl")
	if err := os.WriteFile(path, []byte(jsonl), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(filepath.Join(dir, "db"), store.Options{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := ImportConfig{CF: DefaultCF, GenomeRelease: "grch37", SourceVersion: "2024-07"}
	if err := Import(db, cfg, []string{path}); err != nil {
		t.Fatal(err)
	}
	return db
}

const seedJSONL = `{"vcv":"VCV000057688","rcvs":["RCV000051426"],"chromosome":"13","start":32890572,"stop":32972907,"variation_type":"DEL","classification":"Pathogenic"}
{"vcv":"VCV000000123","chromosome":"chr1","start":120000,"stop":130000,"variation_type":"DUP"}
`

func TestAccessionRedirect(t *testing.T) {
	db := setupImportedDB(t, seedJSONL)

	byVCV, err := QueryAccession(db, DefaultCF, "VCV000057688")
	if err != nil {
		t.Fatal(err)
	}
	byRCV, err := QueryAccession(db, DefaultCF, "RCV000051426")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(byVCV, byRCV) {
		t.Errorf("RCV redirect returned a different record:\n%+v\n%+v", byVCV, byRCV)
	}
	if byVCV.Classification != "Pathogenic" {
		t.Errorf("record = %+v", byVCV)
	}
}

func TestAccessionMiss(t *testing.T) {
	db := setupImportedDB(t, seedJSONL)
	if _, err := QueryAccession(db, DefaultCF, "VCV999999999"); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if _, err := QueryAccession(db, DefaultCF, "RCV999999999"); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if _, err := QueryAccession(db, DefaultCF, "XYZ1"); !errs.IsKind(err, errs.KindInvalidLocus) {
		t.Errorf("expected InvalidLocus, got %v", err)
	}
}

func TestChromosomeCanonicalizedOnImport(t *testing.T) {
	db := setupImportedDB(t, seedJSONL)
	record, err := QueryAccession(db, DefaultCF, "VCV000000123")
	if err != nil {
		t.Fatal(err)
	}
	if record.Chromosome != "1" {
		t.Errorf("chromosome = %q, want 1", record.Chromosome)
	}
}

func TestRangeQueryThroughForest(t *testing.T) {
	db := setupImportedDB(t, seedJSONL)
	forest, err := BuildForest(db, DefaultCF)
	if err != nil {
		t.Fatal(err)
	}
	hits := forest.Query("1", 120937, 120938)
	if len(hits) != 1 || string(hits[0]) != "VCV000000123" {
		t.Errorf("hits = %v", hits)
	}
	if hits := forest.Query("10", 120937, 120938); len(hits) != 0 {
		t.Errorf("unexpected hits: %v", hits)
	}
}

func TestImportRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.jsonl")
	if err := os.WriteFile(path, []byte("{\"vcv\":\"VCV1\"}\nnot json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(filepath.Join(dir, "db"), store.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	err = Import(db, ImportConfig{GenomeRelease: "grch37"}, []string{path})
	if !errs.IsKind(err, errs.KindSourceParse) {
		t.Errorf("expected SourceParse, got %v", err)
	}
}
