// Package spdi parses textual locus descriptions in SPDI style.
//
// Three forms are accepted: SEQ:POS for a point, SEQ:START:END for a 1-based
// inclusive range, and SEQ:POS:REF:ALT for a variant.  SEQ may carry a
// genome release prefix ("GRCh37:17"); parsing splits from the right so the
// sequence part keeps any embedded colons.
package spdi

import (
	"fmt"
	"strings"

	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/keys"
)

// Pos is a 1-based point locus.
type Pos struct {
	// Sequence identifier, possibly prefixed with a genome release.
	Sequence string
	// 1-based position.
	Position int32
}

// ParsePos parses "SEQ:POS".
func ParsePos(s string) (Pos, error) {
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return Pos{}, errs.Ef("spdi.ParsePos", errs.KindInvalidLocus, "expected SEQ:POS, got %q", s)
	}
	pos, err := keys.CheckPosition(s[idx+1:])
	if err != nil {
		return Pos{}, err
	}
	return Pos{Sequence: s[:idx], Position: pos}, nil
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d", p.Sequence, p.Position)
}

// Range is a 1-based inclusive range locus.
type Range struct {
	// Sequence identifier, possibly prefixed with a genome release.
	Sequence string
	// 1-based start position.
	Start int32
	// 1-based end position, inclusive.
	End int32
}

// ParseRange parses "SEQ:START:END".
func ParseRange(s string) (Range, error) {
	parts, err := rsplit(s, 3)
	if err != nil {
		return Range{}, errs.Ef("spdi.ParseRange", errs.KindInvalidLocus, "expected SEQ:START:END, got %q", s)
	}
	start, err := keys.CheckPosition(parts[1])
	if err != nil {
		return Range{}, err
	}
	end, err := keys.CheckPosition(parts[2])
	if err != nil {
		return Range{}, err
	}
	return Range{Sequence: parts[0], Start: start, End: end}, nil
}

func (r Range) String() string {
	return fmt.Sprintf("%s:%d:%d", r.Sequence, r.Start, r.End)
}

// Var is a 1-based variant locus with VCF-style allele strings.
type Var struct {
	// Sequence identifier, possibly prefixed with a genome release.
	Sequence string
	// 1-based position.
	Position int32
	// Deleted (reference) base string.
	Deletion string
	// Inserted (alternative) base string.
	Insertion string
}

// ParseVar parses "SEQ:POS:REF:ALT".
func ParseVar(s string) (Var, error) {
	parts, err := rsplit(s, 4)
	if err != nil {
		return Var{}, errs.Ef("spdi.ParseVar", errs.KindInvalidLocus, "expected SEQ:POS:REF:ALT, got %q", s)
	}
	pos, err := keys.CheckPosition(parts[1])
	if err != nil {
		return Var{}, err
	}
	return Var{
		Sequence:  parts[0],
		Position:  pos,
		Deletion:  parts[2],
		Insertion: parts[3],
	}, nil
}

func (v Var) String() string {
	return fmt.Sprintf("%s:%d:%s:%s", v.Sequence, v.Position, v.Deletion, v.Insertion)
}

// rsplit splits s from the right into exactly n parts.
func rsplit(s string, n int) ([]string, error) {
	parts := make([]string, n)
	rest := s
	for i := n - 1; i > 0; i-- {
		idx := strings.LastIndexByte(rest, ':')
		if idx < 0 {
			return nil, fmt.Errorf("too few fields in %q", s)
		}
		parts[i] = rest[idx+1:]
		rest = rest[:idx]
	}
	parts[0] = rest
	return parts, nil
}

// ExtractChrom extracts the canonical chromosome name from a sequence
// identifier.  If the identifier carries a genome release prefix and an
// expected release is given, the two are compared case-insensitively.
func ExtractChrom(sequence, expectedRelease string) (string, error) {
	chrom := sequence
	if idx := strings.LastIndexByte(sequence, ':'); idx >= 0 {
		release := sequence[:idx]
		chrom = sequence[idx+1:]
		if expectedRelease != "" && !strings.EqualFold(release, expectedRelease) {
			return "", errs.Ef("spdi.ExtractChrom", errs.KindAssemblyMismatch,
				"genome release mismatch: expected %s, got %s", expectedRelease, release)
		}
	}
	return keys.Canonicalize(chrom), nil
}
