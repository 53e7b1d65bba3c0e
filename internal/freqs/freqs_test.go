package freqs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openbio/annostore/internal/codec"
	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/store"
)

const mtHeader = "##fileformat=VCFv4.2\n" +
	"##INFO=<ID=AN,Number=1,Type=Integer,Description=\"Total alleles\">\n" +
	"##INFO=<ID=AC_hom,Number=1,Type=Integer,Description=\"Homoplasmic count\">\n" +
	"##INFO=<ID=AC_het,Number=1,Type=Integer,Description=\"Heteroplasmic count\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"

// Helper writing a VCF file into dir.
func writeVCF(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func setupTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(t.TempDir(), store.Options{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestImportMergedMitochondrial(t *testing.T) {
	dir := t.TempDir()
	// Source 0 carries a variant at chrMT:3, source 1 one at chrMT:5.
	path0 := writeVCF(t, dir, "gnomad-mtdna.vcf",
		mtHeader+"chrMT\t3\t.\tT\tC\t.\tPASS\tAN=100;AC_hom=1;AC_het=2\n")
	path1 := writeVCF(t, dir, "helixmtdb.vcf",
		mtHeader+"MT\t5\t.\tG\tA\t.\tPASS\tAN=50;AC_hom=3;AC_het=4\n")

	db := setupTestDB(t)
	err := Import(db, ImportConfig{GenomeRelease: "grch37", SourceVersion: "1.0"}, []Input{
		{Path: path0, Slot: 0},
		{Path: path1, Slot: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Scan-all must yield exactly two 24-byte values, in key order.
	it, err := db.NewIter(CFMitochondrial)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var got []codec.MtRecord
	var gotVars []keys.Var
	for ok := it.SeekToFirst(); ok && it.Valid(); it.Next() {
		if len(it.Value()) != codec.MtRecordLen {
			t.Fatalf("value length = %d, want %d", len(it.Value()), codec.MtRecordLen)
		}
		var rec codec.MtRecord
		if err := rec.Unmarshal(it.Value()); err != nil {
			t.Fatal(err)
		}
		v, err := keys.DecodeVar(it.Key())
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, rec)
		gotVars = append(gotVars, v)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}

	if gotVars[0].Pos != 3 || gotVars[1].Pos != 5 {
		t.Errorf("unexpected key order: %v", gotVars)
	}
	// First variant: contribution in slot 0, zeros in slot 1.
	if got[0].GnomadMtdna != (codec.MtCounts{AN: 100, AcHom: 1, AcHet: 2}) {
		t.Errorf("slot 0 counts = %+v", got[0].GnomadMtdna)
	}
	if got[0].Helixmtdb != (codec.MtCounts{}) {
		t.Errorf("absent source slot not zeroed: %+v", got[0].Helixmtdb)
	}
	// Second variant: the reverse.
	if got[1].GnomadMtdna != (codec.MtCounts{}) {
		t.Errorf("absent source slot not zeroed: %+v", got[1].GnomadMtdna)
	}
	if got[1].Helixmtdb != (codec.MtCounts{AN: 50, AcHom: 3, AcHet: 4}) {
		t.Errorf("slot 1 counts = %+v", got[1].Helixmtdb)
	}

	// Meta entries were written.
	m, err := db.ReadMeta()
	if err != nil {
		t.Fatal(err)
	}
	if m.GenomeRelease != "grch37" || m.SourceKind != "freqs" {
		t.Errorf("unexpected meta: %+v", m)
	}
}

func TestImportMergesSharedVariant(t *testing.T) {
	dir := t.TempDir()
	// The same variant in both sources packs both slots of one record.
	path0 := writeVCF(t, dir, "a.vcf",
		mtHeader+"MT\t7\t.\tA\tG\t.\tPASS\tAN=10;AC_hom=1;AC_het=0\n")
	path1 := writeVCF(t, dir, "b.vcf",
		mtHeader+"MT\t7\t.\tA\tG\t.\tPASS\tAN=20;AC_hom=0;AC_het=2\n")

	db := setupTestDB(t)
	err := Import(db, ImportConfig{GenomeRelease: "grch38"}, []Input{
		{Path: path0, Slot: 0},
		{Path: path1, Slot: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	key, err := keys.Var{Chrom: "MT", Pos: 7, Reference: "A", Alternative: "G"}.Encode()
	if err != nil {
		t.Fatal(err)
	}
	raw, err := db.Get(CFMitochondrial, key)
	if err != nil {
		t.Fatal(err)
	}
	var rec codec.MtRecord
	if err := rec.Unmarshal(raw); err != nil {
		t.Fatal(err)
	}
	if rec.GnomadMtdna.AN != 10 || rec.Helixmtdb.AN != 20 {
		t.Errorf("merged record = %+v", rec)
	}
}

func TestMergeHeapOrder(t *testing.T) {
	items := []*mergeItem{
		{rank: 1, pos: 5, ref: "A", alt: "T", idx: 0},
		{rank: 0, pos: 9, ref: "A", alt: "T", idx: 1},
		{rank: 0, pos: 9, ref: "A", alt: "C", idx: 0},
		{rank: 0, pos: 9, ref: "A", alt: "T", idx: 0},
	}
	h := mergeHeap{}
	for _, item := range items {
		h = append(h, item)
	}
	// Sort manually through Less to document the total order:
	// rank, then pos, then ref, then alt, then reader index.
	if !h.Less(2, 1) {
		t.Error("alt must order before reader index")
	}
	if !h.Less(3, 1) {
		t.Error("reader index must break full ties")
	}
	if h.Less(0, 1) {
		t.Error("chromosome rank must dominate")
	}
}
