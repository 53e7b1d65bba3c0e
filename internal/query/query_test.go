package query

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/intervals"
	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/records"
	"github.com/openbio/annostore/internal/spdi"
	"github.com/openbio/annostore/internal/store"
)

// Helper seeding a dbSNP-style database with variant-keyed records.
func setupDbsnpDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(t.TempDir(), store.Options{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.CreateColumnFamily("dbsnp"); err != nil {
		t.Fatal(err)
	}
	seed := []records.Dbsnp{
		{Chromosome: "1", Pos: 100, Reference: "A", Alternative: "T", RsID: 42},
		{Chromosome: "1", Pos: 100, Reference: "A", Alternative: "G", RsID: 43},
		{Chromosome: "2", Pos: 50, Reference: "C", Alternative: "G", RsID: 44},
	}
	for i := range seed {
		key, err := keys.Var{
			Chrom:       seed[i].Chromosome,
			Pos:         seed[i].Pos,
			Reference:   seed[i].Reference,
			Alternative: seed[i].Alternative,
		}.Encode()
		if err != nil {
			t.Fatal(err)
		}
		if err := db.Put("dbsnp", key, seed[i].Marshal()); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.WriteMeta(&store.Meta{GenomeRelease: "grch37", SourceKind: "dbsnp"}); err != nil {
		t.Fatal(err)
	}
	return db
}

func TestVariantLookupHit(t *testing.T) {
	db := setupDbsnpDB(t)
	e, err := NewEngine(db, "dbsnp")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	v, _ := spdi.ParseVar("GRCh37:1:100:A:T")
	if err := e.Variant(&out, v); err != nil {
		t.Fatal(err)
	}
	var got records.Dbsnp
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.RsID != 42 {
		t.Errorf("rs_id = %d, want 42", got.RsID)
	}
}

func TestVariantLookupMiss(t *testing.T) {
	db := setupDbsnpDB(t)
	e, err := NewEngine(db, "dbsnp")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	v, _ := spdi.ParseVar("1:101:A:T")
	if err := e.Variant(&out, v); !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestVariantAssemblyMismatch(t *testing.T) {
	db := setupDbsnpDB(t)
	e, err := NewEngine(db, "dbsnp")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	v, _ := spdi.ParseVar("GRCh38:1:100:A:T")
	if err := e.Variant(&out, v); !errs.IsKind(err, errs.KindAssemblyMismatch) {
		t.Errorf("expected AssemblyMismatch, got %v", err)
	}
}

func TestPositionScansAllAlleles(t *testing.T) {
	db := setupDbsnpDB(t)
	e, err := NewEngine(db, "dbsnp")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	p, _ := spdi.ParsePos("1:100")
	if err := e.Position(&out, p); err != nil {
		t.Fatal(err)
	}
	lines := nonEmptyLines(out.String())
	if len(lines) != 2 {
		t.Errorf("got %d lines, want 2:\n%s", len(lines), out.String())
	}
}

func TestScanAll(t *testing.T) {
	db := setupDbsnpDB(t)
	e, err := NewEngine(db, "dbsnp")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := e.ScanAll(context.Background(), &out); err != nil {
		t.Fatal(err)
	}
	lines := nonEmptyLines(out.String())
	if len(lines) != 3 {
		t.Errorf("got %d lines, want 3", len(lines))
	}
	// Re-running the same query returns identical bytes.
	var again bytes.Buffer
	if err := e.ScanAll(context.Background(), &again); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), again.Bytes()) {
		t.Error("repeated scan produced different output")
	}
}

func TestRangeQuery(t *testing.T) {
	db := setupDbsnpDB(t)
	e, err := NewEngine(db, "dbsnp")
	if err != nil {
		t.Fatal(err)
	}
	cache := intervals.NewCache()

	var out bytes.Buffer
	r, _ := spdi.ParseRange("1:90:110")
	if err := e.Range(context.Background(), &out, r, cache); err != nil {
		t.Fatal(err)
	}
	if len(nonEmptyLines(out.String())) != 2 {
		t.Errorf("got %d hits, want 2:\n%s", len(nonEmptyLines(out.String())), out.String())
	}

	out.Reset()
	r, _ = spdi.ParseRange("1:200:300")
	if err := e.Range(context.Background(), &out, r, cache); err != nil {
		t.Fatal(err)
	}
	if len(nonEmptyLines(out.String())) != 0 {
		t.Errorf("expected no hits, got:\n%s", out.String())
	}
}

func TestEngineMissingColumnFamily(t *testing.T) {
	db := setupDbsnpDB(t)
	if _, err := NewEngine(db, "nope"); !errs.IsKind(err, errs.KindMissingColumnFamily) {
		t.Errorf("expected MissingColumnFamily, got %v", err)
	}
}

func nonEmptyLines(s string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(s))
	for scanner.Scan() {
		if scanner.Text() != "" {
			lines = append(lines, scanner.Text())
		}
	}
	return lines
}
