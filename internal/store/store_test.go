package store

import (
	"bytes"
	"testing"

	"github.com/openbio/annostore/internal/errs"
)

// Helper to create a temporary test database.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()
	db, err := Open(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	}
}

func TestPutGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.Put("dbsnp", []byte("k1"), []byte("v1")); err != nil {
		t.Fatal(err)
	}
	got, err := db.Get("dbsnp", []byte("k1"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v1" {
		t.Errorf("got %q, want v1", got)
	}

	_, err = db.Get("dbsnp", []byte("missing"))
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestColumnFamiliesIsolated(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.Put("a", []byte("k"), []byte("from-a")); err != nil {
		t.Fatal(err)
	}
	if err := db.Put("b", []byte("k"), []byte("from-b")); err != nil {
		t.Fatal(err)
	}
	got, err := db.Get("a", []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "from-a" {
		t.Errorf("column families not isolated: got %q", got)
	}
}

func TestIterOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// Insert out of order; iteration must return ascending byte order.
	for _, k := range []string{"c", "a", "b"} {
		if err := db.Put("cf", []byte(k), []byte("v")); err != nil {
			t.Fatal(err)
		}
	}
	// A sibling family must not leak into the scan.
	if err := db.Put("cf2", []byte("a"), []byte("v")); err != nil {
		t.Fatal(err)
	}

	it, err := db.NewIter("cf")
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	var got []string
	for ok := it.SeekToFirst(); ok && it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIterSeek(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, k := range []string{"aa", "ab", "ba"} {
		if err := db.Put("cf", []byte(k), []byte("v")); err != nil {
			t.Fatal(err)
		}
	}
	it, err := db.NewIter("cf")
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()

	if !it.Seek([]byte("ab")) || !bytes.Equal(it.Key(), []byte("ab")) {
		t.Errorf("seek landed on %q", it.Key())
	}
	if !it.Seek([]byte("ac")) || !bytes.Equal(it.Key(), []byte("ba")) {
		t.Errorf("seek past landed on %q", it.Key())
	}
}

func TestCreateColumnFamily(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	for _, cf := range []string{"one", "two", "one"} {
		if err := db.CreateColumnFamily(cf); err != nil {
			t.Fatal(err)
		}
	}
	names, err := db.ColumnFamilies()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "one" || names[1] != "two" {
		t.Errorf("unexpected families: %v", names)
	}
	ok, err := db.HasColumnFamily("two")
	if err != nil || !ok {
		t.Errorf("HasColumnFamily(two) = %v, %v", ok, err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	// Missing genome release must be rejected.
	if _, err := db.ReadMeta(); !errs.IsKind(err, errs.KindMissingMetadata) {
		t.Errorf("expected MissingMetadata, got %v", err)
	}

	m := &Meta{
		GenomeRelease: "grch37",
		SourceVersion: "1.0",
		SourceKind:    "exomes",
	}
	if err := db.WriteMeta(m); err != nil {
		t.Fatal(err)
	}
	back, err := db.ReadMeta()
	if err != nil {
		t.Fatal(err)
	}
	if back.GenomeRelease != "grch37" || back.SourceVersion != "1.0" || back.SourceKind != "exomes" {
		t.Errorf("unexpected meta: %+v", back)
	}

	if err := db.CheckGenomeRelease("GRCh37"); err != nil {
		t.Errorf("case-insensitive release check failed: %v", err)
	}
	if err := db.CheckGenomeRelease("grch38"); !errs.IsKind(err, errs.KindAssemblyMismatch) {
		t.Errorf("expected AssemblyMismatch, got %v", err)
	}
}

func TestCompactAll(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	if err := db.CreateColumnFamily("cf"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		if err := db.Put("cf", []byte{byte(i)}, bytes.Repeat([]byte{byte(i)}, 64)); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.CompactAll(); err != nil {
		t.Fatal(err)
	}
}

func TestReadOnlyReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Put("cf", []byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := db.PutMeta(MetaGenomeRelease, "grch38"); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	ro, err := Open(dir, Options{ReadOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	defer ro.Close()
	got, err := ro.Get("cf", []byte("k"))
	if err != nil || string(got) != "v" {
		t.Errorf("read-only get = %q, %v", got, err)
	}
}
