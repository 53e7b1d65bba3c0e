package genes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openbio/annostore/internal/store"
)

const seedJSONL = `{"hgnc_id":"HGNC:1100","symbol":"BRCA1","name":"BRCA1 DNA repair associated","alias_symbol":["RNF53"],"ensembl_gene_id":"ENSG00000012048","ncbi_gene_id":"672"}
{"hgnc_id":"HGNC:1101","symbol":"BRCA2","name":"BRCA2 DNA repair associated","ensembl_gene_id":"ENSG00000139618","ncbi_gene_id":"675"}
{"hgnc_id":"HGNC:11998","symbol":"TP53","name":"tumor protein p53","alias_name":["tumor suppressor p53"],"ncbi_gene_id":"7157"}
`

func setupTable(t *testing.T) *Table {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "genes.jsonl")
	if err := os.WriteFile(path, []byte(seedJSONL), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := store.Open(filepath.Join(dir, "db"), store.Options{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Import(db, ImportConfig{GenomeRelease: "grch38"}, []string{path}); err != nil {
		t.Fatal(err)
	}
	table, err := Load(db, DefaultCF)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestLookup(t *testing.T) {
	table := setupTable(t)

	for _, q := range []string{"HGNC:1100", "BRCA1", "ENSG00000012048", "672"} {
		gn := table.Lookup(q)
		if gn == nil || gn.Symbol != "BRCA1" {
			t.Errorf("Lookup(%q) = %+v", q, gn)
		}
	}
	if gn := table.Lookup("NOPE"); gn != nil {
		t.Errorf("Lookup(NOPE) = %+v, want nil", gn)
	}
}

func TestSearchExactBeatsSubstring(t *testing.T) {
	table := setupTable(t)

	hits := table.Search("BRCA1", nil, false)
	if len(hits) == 0 {
		t.Fatal("no hits")
	}
	if hits[0].Data.Symbol != "BRCA1" || hits[0].Score != 1.0 {
		t.Errorf("first hit = %+v", hits[0])
	}
}

func TestSearchSubstringScore(t *testing.T) {
	table := setupTable(t)

	hits := table.Search("BRCA", nil, false)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// |q| / |field| = 4/5 for both symbols; ties break on symbol.
	if hits[0].Data.Symbol != "BRCA1" || hits[1].Data.Symbol != "BRCA2" {
		t.Errorf("hits = %v, %v", hits[0].Data.Symbol, hits[1].Data.Symbol)
	}
	if hits[0].Score != 0.8 {
		t.Errorf("score = %v, want 0.8", hits[0].Score)
	}
}

func TestSearchOrderedByScoreDesc(t *testing.T) {
	table := setupTable(t)

	hits := table.Search("p53", nil, false)
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not ordered by descending score: %v", hits)
		}
	}
}

func TestSearchFieldsRestriction(t *testing.T) {
	table := setupTable(t)

	// Restricted to names, the symbol match must not fire.
	hits := table.Search("BRCA1", []string{FieldName}, false)
	for _, h := range hits {
		if h.Score == 1.0 {
			t.Errorf("unexpected exact hit with name-only fields: %+v", h)
		}
	}
}

func TestSearchShortQuery(t *testing.T) {
	table := setupTable(t)
	if hits := table.Search("B", nil, false); hits != nil {
		t.Errorf("one-character query must return nothing, got %v", hits)
	}
}

func TestSearchCaseSensitive(t *testing.T) {
	table := setupTable(t)
	if hits := table.Search("brca1", nil, true); len(hits) != 0 {
		t.Errorf("case-sensitive search must miss, got %v", hits)
	}
	if hits := table.Search("brca1", nil, false); len(hits) == 0 {
		t.Error("case-insensitive search must hit")
	}
}
