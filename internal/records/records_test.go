package records

import (
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func int32p(v int32) *int32 { return &v }

func TestClinvarSVRoundTrip(t *testing.T) {
	r := ClinvarSV{
		VCV:            "VCV000057688",
		RCVs:           []string{"RCV000051426", "RCV000051427"},
		Chromosome:     "13",
		Start:          32890572,
		Stop:           32972907,
		VariationType:  VariationDeletion,
		Classification: "Pathogenic",
		Title:          "NM_000059.4(BRCA2):c.517-2A>G",
	}
	buf := r.Marshal()
	var back ClinvarSV
	if err := back.Unmarshal(buf); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, r) {
		t.Errorf("round trip:\n got %+v\nwant %+v", back, r)
	}
}

func TestClinvarSVOptionalBounds(t *testing.T) {
	r := ClinvarSV{
		VCV:        "VCV000000001",
		Chromosome: "1",
		InnerStart: int32p(100),
		InnerStop:  int32p(200),
	}
	buf := r.Marshal()
	var back ClinvarSV
	if err := back.Unmarshal(buf); err != nil {
		t.Fatal(err)
	}
	if back.OuterStart != nil || back.OuterStop != nil {
		t.Error("unset optional fields must stay absent")
	}
	start, stop, ok := back.Location()
	if !ok || start != 100 || stop != 200 {
		t.Errorf("Location() = %d, %d, %v", start, stop, ok)
	}
}

func TestClinvarSVLocationFallback(t *testing.T) {
	r := ClinvarSV{Start: 5, Stop: 10, InnerStart: int32p(1), InnerStop: int32p(2)}
	if start, stop, _ := r.Location(); start != 5 || stop != 10 {
		t.Error("precise bounds must win over inner bounds")
	}
	r = ClinvarSV{OuterStart: int32p(7), OuterStop: int32p(8)}
	if start, stop, ok := r.Location(); !ok || start != 7 || stop != 8 {
		t.Error("outer bounds must be used last")
	}
	r = ClinvarSV{}
	if _, _, ok := r.Location(); ok {
		t.Error("record without bounds must report no location")
	}
}

func TestUnknownTagsSkipped(t *testing.T) {
	r := GeneNames{HgncID: "HGNC:1100", Symbol: "BRCA1"}
	buf := r.Marshal()
	// Append a field from a future schema generation.
	buf = protowire.AppendTag(buf, 99, protowire.BytesType)
	buf = protowire.AppendString(buf, "future")
	buf = protowire.AppendTag(buf, 100, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 12345)

	var back GeneNames
	if err := back.Unmarshal(buf); err != nil {
		t.Fatal(err)
	}
	if back.HgncID != r.HgncID || back.Symbol != r.Symbol {
		t.Errorf("known fields lost: %+v", back)
	}
}

func TestGeneNamesRoundTrip(t *testing.T) {
	r := GeneNames{
		HgncID:        "HGNC:1100",
		Symbol:        "BRCA1",
		Name:          "BRCA1 DNA repair associated",
		AliasSymbols:  []string{"RNF53", "BRCC1"},
		AliasNames:    []string{"breast cancer 1"},
		EnsemblGeneID: "ENSG00000012048",
		NcbiGeneID:    "672",
	}
	var back GeneNames
	if err := back.Unmarshal(r.Marshal()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back, r) {
		t.Errorf("round trip:\n got %+v\nwant %+v", back, r)
	}
}

func TestDbsnpRoundTrip(t *testing.T) {
	r := Dbsnp{Chromosome: "1", Pos: 100, Reference: "A", Alternative: "T", RsID: 42}
	var back Dbsnp
	if err := back.Unmarshal(r.Marshal()); err != nil {
		t.Fatal(err)
	}
	if back != r {
		t.Errorf("round trip: got %+v, want %+v", back, r)
	}
}

func TestGnomadSVRoundTrip(t *testing.T) {
	r := GnomadSV{
		ID:         "gnomAD-SV_v2.1_DUP_1_1",
		Chromosome: "1",
		Start:      120000,
		Stop:       130000,
		SvType:     VariationDuplication,
		Filter:     "PASS",
		AN:         21694,
		AC:         20,
		AF:         0.000922,
	}
	var back GnomadSV
	if err := back.Unmarshal(r.Marshal()); err != nil {
		t.Fatal(err)
	}
	if back != r {
		t.Errorf("round trip: got %+v, want %+v", back, r)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	r := ClinvarSV{VCV: "VCV1", Chromosome: "2", Start: 1, Stop: 2}
	a := r.Marshal()
	b := r.Marshal()
	if !reflect.DeepEqual(a, b) {
		t.Error("encoding not deterministic")
	}
}

func TestMalformedBuffer(t *testing.T) {
	var r GeneNames
	// A tag announcing bytes that are not there.
	buf := protowire.AppendTag(nil, gnFieldSymbol, protowire.BytesType)
	buf = protowire.AppendVarint(buf, 1000)
	if err := r.Unmarshal(buf); err == nil {
		t.Error("expected decode error for malformed buffer")
	}
}
