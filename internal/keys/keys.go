// Package keys implements the sortable byte encoding of genomic coordinates
// used as keys in the annotation store.
//
// A chromosome is rendered as exactly two bytes: zero-padded autosomes
// ("01".."22"), space-padded sex chromosomes (" X", " Y") and "MT" for the
// mitochondrion.  Positions are appended as big-endian int32 so that byte
// order and coordinate order coincide within a chromosome.  Note that the
// space sentinel makes the raw byte order of the sex chromosomes precede the
// autosomes; the documented total order over keys is their byte order.
package keys

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/openbio/annostore/internal/errs"
)

// Canonical chromosome names, in rank order.
//
// Note that the mitochondrial genome runs under two names; "M" is
// canonicalized to "MT".
var Canonical = []string{
	"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13",
	"14", "15", "16", "17", "18", "19", "20", "21", "22", "X", "Y", "MT",
}

// Canonicalize strips any "chr" prefix and rewrites "M" to "MT".
func Canonicalize(chrom string) string {
	chrom = strings.TrimPrefix(chrom, "chr")
	if chrom == "M" {
		return "MT"
	}
	return chrom
}

// IsCanonical reports whether the given name canonicalizes into the
// canonical chromosome set.
func IsCanonical(chrom string) bool {
	chrom = Canonicalize(chrom)
	for _, c := range Canonical {
		if c == chrom {
			return true
		}
	}
	return false
}

// Rank returns the rank of the chromosome in the canonical order
// (1..22 < X < Y < MT).
func Rank(chrom string) (int, error) {
	chrom = Canonicalize(chrom)
	for i, c := range Canonical {
		if c == chrom {
			return i, nil
		}
	}
	return 0, errs.Ef("keys.Rank", errs.KindInvalidChromosome, "unknown chromosome %q", chrom)
}

// ChromToKey converts a chromosome name to its two-byte key form.
func ChromToKey(chrom string) (string, error) {
	chrom = Canonicalize(chrom)
	if !IsCanonical(chrom) {
		return "", errs.Ef("keys.ChromToKey", errs.KindInvalidChromosome, "unknown chromosome %q", chrom)
	}
	if chrom == "X" || chrom == "Y" {
		return " " + chrom, nil
	}
	if len(chrom) == 1 {
		return "0" + chrom, nil
	}
	return chrom, nil
}

// KeyToChrom converts the two-byte key form back to the chromosome name.
func KeyToChrom(key []byte) (string, error) {
	if len(key) != 2 {
		return "", errs.Ef("keys.KeyToChrom", errs.KindInvalidKey, "chromosome key must be 2 bytes, got %d", len(key))
	}
	if key[0] == '0' || key[0] == ' ' {
		return string(key[1:]), nil
	}
	return string(key), nil
}

// Pos is a chromosomal position CHROM-POS with a 1-based position.
type Pos struct {
	// Chromosome name.
	Chrom string `json:"chrom"`
	// 1-based position.
	Pos int32 `json:"pos"`
}

// Encode returns the sortable key bytes for the position.
func (p Pos) Encode() ([]byte, error) {
	ck, err := ChromToKey(p.Chrom)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 6)
	buf = append(buf, ck...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(p.Pos))
	return buf, nil
}

// DecodePos decodes the first six bytes of key into a position.
func DecodePos(key []byte) (Pos, error) {
	if len(key) < 6 {
		return Pos{}, errs.Ef("keys.DecodePos", errs.KindInvalidKey, "position key must be at least 6 bytes, got %d", len(key))
	}
	chrom, err := KeyToChrom(key[0:2])
	if err != nil {
		return Pos{}, err
	}
	return Pos{
		Chrom: chrom,
		Pos:   int32(binary.BigEndian.Uint32(key[2:6])),
	}, nil
}

// Var is a chromosomal change CHROM-POS-REF-ALT with a 1-based position
// and VCF-style allele strings.
type Var struct {
	// Chromosome name.
	Chrom string `json:"chrom"`
	// 1-based position.
	Pos int32 `json:"pos"`
	// Reference allele string.
	Reference string `json:"reference"`
	// Alternative allele string.
	Alternative string `json:"alternative"`
}

// Encode returns the sortable key bytes for the variant.  The '>' byte
// separates the reference from the alternative allele so that variable
// length alleles decode unambiguously.
func (v Var) Encode() ([]byte, error) {
	ck, err := ChromToKey(v.Chrom)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, 7+len(v.Reference)+len(v.Alternative))
	buf = append(buf, ck...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(v.Pos))
	buf = append(buf, v.Reference...)
	buf = append(buf, '>')
	buf = append(buf, v.Alternative...)
	return buf, nil
}

// DecodeVar decodes variant key bytes.
func DecodeVar(key []byte) (Var, error) {
	pos, err := DecodePos(key)
	if err != nil {
		return Var{}, err
	}
	sep := bytes.IndexByte(key[6:], '>')
	if sep < 0 {
		return Var{}, errs.Ef("keys.DecodeVar", errs.KindInvalidKey, "missing allele separator in key %q", string(key))
	}
	return Var{
		Chrom:       pos.Chrom,
		Pos:         pos.Pos,
		Reference:   string(key[6 : 6+sep]),
		Alternative: string(key[6+sep+1:]),
	}, nil
}

// CheckPosition parses a position from text input, rejecting non-numeric
// and out-of-int32-range values.  Zero and negative values are returned
// as parsed; callers decide how to treat them.
func CheckPosition(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, errs.WrapKind("keys.CheckPosition", errs.KindInvalidPosition, err)
	}
	return int32(v), nil
}
