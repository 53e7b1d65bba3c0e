package spdi

import "testing"

func TestParsePos(t *testing.T) {
	p, err := ParsePos("NC_000001.11:1000")
	if err != nil {
		t.Fatal(err)
	}
	if p.Sequence != "NC_000001.11" || p.Position != 1000 {
		t.Errorf("unexpected result: %+v", p)
	}
	if p.String() != "NC_000001.11:1000" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestParsePosWithRelease(t *testing.T) {
	p, err := ParsePos("GRCh37:17:41196312")
	if err != nil {
		t.Fatal(err)
	}
	// The sequence keeps the release prefix; splitting is from the right.
	if p.Sequence != "GRCh37:17" || p.Position != 41196312 {
		t.Errorf("unexpected result: %+v", p)
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("1:100:200")
	if err != nil {
		t.Fatal(err)
	}
	if r.Sequence != "1" || r.Start != 100 || r.End != 200 {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestParseVar(t *testing.T) {
	v, err := ParseVar("GRCh37:1:123:A:T")
	if err != nil {
		t.Fatal(err)
	}
	if v.Sequence != "GRCh37:1" || v.Position != 123 || v.Deletion != "A" || v.Insertion != "T" {
		t.Errorf("unexpected result: %+v", v)
	}
	if v.String() != "GRCh37:1:123:A:T" {
		t.Errorf("String() = %q", v.String())
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := ParsePos("chr1"); err == nil {
		t.Error("expected error for missing position")
	}
	if _, err := ParseRange("1:100"); err == nil {
		t.Error("expected error for missing end")
	}
	if _, err := ParseVar("1:123:A"); err == nil {
		t.Error("expected error for missing alt")
	}
	// Integer overflow on position.
	if _, err := ParsePos("1:99999999999"); err == nil {
		t.Error("expected error for overflowing position")
	}
}

func TestExtractChrom(t *testing.T) {
	chrom, err := ExtractChrom("GRCh37:chr17", "grch37")
	if err != nil {
		t.Fatal(err)
	}
	if chrom != "17" {
		t.Errorf("got %q, want 17", chrom)
	}

	chrom, err = ExtractChrom("chrM", "")
	if err != nil {
		t.Fatal(err)
	}
	if chrom != "MT" {
		t.Errorf("got %q, want MT", chrom)
	}

	if _, err := ExtractChrom("GRCh38:1", "grch37"); err == nil {
		t.Error("expected assembly mismatch")
	}
	// Comparison is case-insensitive.
	if _, err := ExtractChrom("grch37:1", "GRCH37"); err != nil {
		t.Errorf("case-insensitive comparison failed: %v", err)
	}
}
