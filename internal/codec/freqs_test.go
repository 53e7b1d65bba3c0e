package codec

import (
	"testing"

	"github.com/openbio/annostore/internal/errs"
)

func TestMtCountsRoundTrip(t *testing.T) {
	c := MtCounts{AN: 100, AcHom: 3, AcHet: 7}
	buf := c.Marshal()
	if len(buf) != MtCountsLen {
		t.Fatalf("length = %d, want %d", len(buf), MtCountsLen)
	}
	var back MtCounts
	if err := back.Unmarshal(buf); err != nil {
		t.Fatal(err)
	}
	if back != c {
		t.Errorf("round trip: got %+v, want %+v", back, c)
	}
}

func TestXyCountsRoundTrip(t *testing.T) {
	c := XyCounts{AN: 200, AcHom: 1, AcHet: 2, AcHemi: 9}
	buf := c.Marshal()
	if len(buf) != XyCountsLen {
		t.Fatalf("length = %d, want %d", len(buf), XyCountsLen)
	}
	var back XyCounts
	if err := back.Unmarshal(buf); err != nil {
		t.Fatal(err)
	}
	if back != c {
		t.Errorf("round trip: got %+v, want %+v", back, c)
	}
}

func TestCompositeOffsets(t *testing.T) {
	r := MtRecord{
		GnomadMtdna: MtCounts{AN: 1, AcHom: 2, AcHet: 3},
		Helixmtdb:   MtCounts{AN: 4, AcHom: 5, AcHet: 6},
	}
	buf := r.Marshal()
	if len(buf) != MtRecordLen {
		t.Fatalf("length = %d, want %d", len(buf), MtRecordLen)
	}
	// The second source starts at a fixed offset.
	var second MtCounts
	if err := second.Unmarshal(buf[MtCountsLen:]); err != nil {
		t.Fatal(err)
	}
	if second != r.Helixmtdb {
		t.Errorf("second sub-record: got %+v, want %+v", second, r.Helixmtdb)
	}

	var back MtRecord
	if err := back.Unmarshal(buf); err != nil {
		t.Fatal(err)
	}
	if back != r {
		t.Errorf("round trip: got %+v, want %+v", back, r)
	}
}

func TestXyRecordRoundTrip(t *testing.T) {
	r := XyRecord{
		GnomadExomes:  XyCounts{AN: 10, AcHom: 1, AcHet: 2, AcHemi: 3},
		GnomadGenomes: XyCounts{AN: 20, AcHom: 4, AcHet: 5, AcHemi: 6},
	}
	buf := r.Marshal()
	if len(buf) != XyRecordLen {
		t.Fatalf("length = %d, want %d", len(buf), XyRecordLen)
	}
	var back XyRecord
	if err := back.Unmarshal(buf); err != nil {
		t.Fatal(err)
	}
	if back != r {
		t.Errorf("round trip: got %+v, want %+v", back, r)
	}
}

func TestUnmarshalTruncated(t *testing.T) {
	var c MtCounts
	if err := c.Unmarshal(make([]byte, MtCountsLen-1)); !errs.IsKind(err, errs.KindTruncated) {
		t.Errorf("expected Truncated, got %v", err)
	}
	var r XyRecord
	if err := r.Unmarshal(make([]byte, XyRecordLen-1)); !errs.IsKind(err, errs.KindTruncated) {
		t.Errorf("expected Truncated, got %v", err)
	}
}

func TestZeroSlotForAbsentSource(t *testing.T) {
	// A record with one contributing source keeps zeros in the other slot.
	r := AutoRecord{GnomadExomes: MtCounts{AN: 42, AcHom: 1, AcHet: 2}}
	buf := r.Marshal()
	for i := AutoCountsLen; i < AutoRecordLen; i++ {
		if buf[i] != 0 {
			t.Fatalf("absent source slot not zeroed at byte %d", i)
		}
	}
}
