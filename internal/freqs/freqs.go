// Package freqs implements the merged import of allele-frequency count
// VCFs.
//
// Several pre-sorted inputs are merged by (chromosome rank, position, ref,
// alt, source ordinal); every variant yields one composite record that
// packs the contribution of each source at its fixed byte offset, with
// zeros for sources that did not observe the variant.  Records land in one
// of three column families depending on the chromosome class.
package freqs

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/brentp/vcfgo"

	"github.com/openbio/annostore/internal/codec"
	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/ingest"
	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/store"
)

// Column families written by the import.
const (
	CFAutosomal     = "autosomal"
	CFGonosomal     = "gonosomal"
	CFMitochondrial = "mitochondrial"
)

// Input is one source VCF.  Slot selects the byte range inside the
// composite record: for nuclear chromosomes slot 0 is gnomAD-exomes and
// slot 1 gnomAD-genomes; for chrMT slot 0 is gnomAD-mtDNA and slot 1
// HelixMtDb.
type Input struct {
	Path string
	Slot int
}

// ImportConfig parameterizes one frequency import run.
type ImportConfig struct {
	// Genome release of the data.
	GenomeRelease string
	// Version of the imported source.
	SourceVersion string
	// Show progress bars on stderr.
	Progress bool
}

// mergeItem is one pending record of the k-way merge.
type mergeItem struct {
	variant *vcfgo.Variant
	rank    int
	pos     int32
	ref     string
	alt     string
	idx     int // reader index, the tie breaker
	slot    int
}

type mergeHeap []*mergeItem

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	if a.pos != b.pos {
		return a.pos < b.pos
	}
	if a.ref != b.ref {
		return a.ref < b.ref
	}
	if a.alt != b.alt {
		return a.alt < b.alt
	}
	return a.idx < b.idx
}
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// reader pairs a VCF reader with its input descriptor.
type reader struct {
	rdr     *vcfgo.Reader
	in      *ingest.Input
	slot    int
	skipped *ingest.SkipCounter
}

// next reads the reader's next usable variant, skipping records with
// non-canonical chromosomes, non-positive positions, empty alleles or more
// than one alternate allele.
func (r *reader) next(idx int) *mergeItem {
	for {
		variant := r.rdr.Read()
		if variant == nil {
			return nil
		}
		chrom := keys.Canonicalize(variant.Chromosome)
		rank, err := keys.Rank(chrom)
		if err != nil {
			r.skipped.Skip(fmt.Sprintf("non-canonical chromosome %q", variant.Chromosome))
			continue
		}
		if variant.Pos == 0 {
			r.skipped.Skip(fmt.Sprintf("non-positive position at %s", variant.Chromosome))
			continue
		}
		alts := variant.Alt()
		if len(alts) != 1 {
			r.skipped.Skip(fmt.Sprintf("%d alternate alleles at %s:%d", len(alts), chrom, variant.Pos))
			continue
		}
		if variant.Ref() == "" || alts[0] == "" {
			r.skipped.Skip(fmt.Sprintf("empty alleles at %s:%d", chrom, variant.Pos))
			continue
		}
		return &mergeItem{
			variant: variant,
			rank:    rank,
			pos:     int32(variant.Pos),
			ref:     variant.Ref(),
			alt:     alts[0],
			idx:     idx,
			slot:    r.slot,
		}
	}
}

// Import merges the inputs into db and finishes with meta writes and a
// manual compaction.
func Import(db *store.DB, cfg ImportConfig, inputs []Input) error {
	for _, cf := range []string{CFAutosomal, CFGonosomal, CFMitochondrial} {
		if err := db.CreateColumnFamily(cf); err != nil {
			return err
		}
	}

	readers := make([]*reader, 0, len(inputs))
	defer func() {
		for _, r := range readers {
			r.in.Close()
		}
	}()
	h := make(mergeHeap, 0, len(inputs))
	for idx, input := range inputs {
		in, err := ingest.Open(input.Path, cfg.Progress)
		if err != nil {
			return err
		}
		rdr, err := vcfgo.NewReader(in, false)
		if err != nil {
			in.Close()
			return errs.SourceParse("freqs.Import", 0, input.Path, err)
		}
		r := &reader{
			rdr:     rdr,
			in:      in,
			slot:    input.Slot,
			skipped: ingest.NewSkipCounter("freqs import " + input.Path),
		}
		readers = append(readers, r)
		if item := r.next(idx); item != nil {
			h = append(h, item)
		}
	}
	heap.Init(&h)

	// Pop in key order, gathering all contributions for one variant before
	// writing its composite record.
	var group []*mergeItem
	flush := func() error {
		if len(group) == 0 {
			return nil
		}
		err := writeComposite(db, group)
		group = group[:0]
		return err
	}
	for h.Len() > 0 {
		item := heap.Pop(&h).(*mergeItem)
		if len(group) > 0 {
			prev := group[0]
			if prev.rank != item.rank || prev.pos != item.pos || prev.ref != item.ref || prev.alt != item.alt {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		group = append(group, item)
		if next := readers[item.idx].next(item.idx); next != nil {
			heap.Push(&h, next)
		}
	}
	if err := flush(); err != nil {
		return err
	}
	for _, r := range readers {
		r.skipped.Report()
	}

	if err := db.WriteMeta(&store.Meta{
		GenomeRelease: cfg.GenomeRelease,
		SourceVersion: cfg.SourceVersion,
		SourceKind:    "freqs",
	}); err != nil {
		return err
	}
	return db.CompactAll()
}

// writeComposite encodes and stores the composite record of one variant.
func writeComposite(db *store.DB, group []*mergeItem) error {
	first := group[0]
	chrom := keys.Canonical[first.rank]
	key, err := keys.Var{
		Chrom:       chrom,
		Pos:         first.pos,
		Reference:   first.ref,
		Alternative: first.alt,
	}.Encode()
	if err != nil {
		return err
	}

	switch chrom {
	case "MT":
		var rec codec.MtRecord
		for _, item := range group {
			counts, err := mtCounts(item.variant)
			if err != nil {
				return err
			}
			if item.slot == 0 {
				rec.GnomadMtdna = counts
			} else {
				rec.Helixmtdb = counts
			}
		}
		return db.Put(CFMitochondrial, key, rec.Marshal())
	case "X", "Y":
		var rec codec.XyRecord
		for _, item := range group {
			counts, err := xyCounts(item.variant)
			if err != nil {
				return err
			}
			if item.slot == 0 {
				rec.GnomadExomes = counts
			} else {
				rec.GnomadGenomes = counts
			}
		}
		return db.Put(CFGonosomal, key, rec.Marshal())
	default:
		var rec codec.AutoRecord
		for _, item := range group {
			counts, err := autoCounts(item.variant)
			if err != nil {
				return err
			}
			if item.slot == 0 {
				rec.GnomadExomes = counts
			} else {
				rec.GnomadGenomes = counts
			}
		}
		return db.Put(CFAutosomal, key, rec.Marshal())
	}
}

// mtCounts extracts AN, AC_hom, AC_het from a mitochondrial record.
func mtCounts(variant *vcfgo.Variant) (codec.MtCounts, error) {
	an, err := infoInt(variant, "AN")
	if err != nil {
		return codec.MtCounts{}, err
	}
	acHom, err := infoInt(variant, "AC_hom")
	if err != nil {
		return codec.MtCounts{}, err
	}
	acHet, err := infoInt(variant, "AC_het")
	if err != nil {
		return codec.MtCounts{}, err
	}
	return codec.MtCounts{AN: uint32(an), AcHom: uint32(acHom), AcHet: uint32(acHet)}, nil
}

// autoCounts extracts AN, nhomalt, AC from an autosomal record.
func autoCounts(variant *vcfgo.Variant) (codec.MtCounts, error) {
	an, err := infoInt(variant, "AN")
	if err != nil {
		return codec.MtCounts{}, err
	}
	nhomalt, _ := infoInt(variant, "nhomalt")
	ac, err := infoInt(variant, "AC")
	if err != nil {
		return codec.MtCounts{}, err
	}
	return codec.MtCounts{
		AN:    uint32(an),
		AcHom: uint32(nhomalt),
		AcHet: uint32(saturatingSub(ac, 2*nhomalt)),
	}, nil
}

// xyCounts extracts gonosomal counts, distinguishing pseudo-autosomal
// regions: outside the PAR the XY carriers are hemizygous.
func xyCounts(variant *vcfgo.Variant) (codec.XyCounts, error) {
	an, err := infoInt(variant, "AN")
	if err != nil {
		return codec.XyCounts{}, err
	}
	acHomXX, _ := infoIntAny(variant, "nhomalt_female", "nhomalt_XX")
	acXX, _ := infoIntAny(variant, "AC_female", "AC_XX")
	acHomXY, err := infoIntAny(variant, "nhomalt_male", "nhomalt_XY")
	if err != nil {
		return codec.XyCounts{}, err
	}
	acXY, err := infoIntAny(variant, "AC_male", "AC_XY")
	if err != nil {
		return codec.XyCounts{}, err
	}
	nonpar := infoFlag(variant, "nonpar") || infoFlag(variant, "non_par")

	if nonpar {
		return codec.XyCounts{
			AN:     uint32(an),
			AcHom:  uint32(acHomXX),
			AcHet:  uint32(saturatingSub(acXX, 2*acHomXX)),
			AcHemi: uint32(acXY),
		}, nil
	}
	return codec.XyCounts{
		AN:    uint32(an),
		AcHom: uint32(acHomXX + acHomXY),
		AcHet: uint32(saturatingSub(acXX, 2*acHomXX+2*acHomXY)),
	}, nil
}

func saturatingSub(a, b int) int {
	if b > a {
		return 0
	}
	return a - b
}

// infoInt reads one integer INFO field, tolerating the container shapes
// the VCF parser produces.
func infoInt(variant *vcfgo.Variant, name string) (int, error) {
	raw, err := variant.Info().Get(name)
	if err != nil || raw == nil {
		return 0, errs.Ef("freqs.infoInt", errs.KindSourceParse,
			"INFO field %q missing at %s:%d", name, variant.Chromosome, variant.Pos)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case []int:
		if len(v) > 0 {
			return v[0], nil
		}
	case []interface{}:
		if len(v) > 0 {
			if i, ok := v[0].(int); ok {
				return i, nil
			}
		}
	case string:
		var i int
		if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
			return i, nil
		}
	}
	return 0, errs.Ef("freqs.infoInt", errs.KindSourceParse,
		"INFO field %q has unexpected type %T", name, raw)
}

// infoIntAny tries the given field names in order.
func infoIntAny(variant *vcfgo.Variant, names ...string) (int, error) {
	var lastErr error
	for _, name := range names {
		v, err := infoInt(variant, name)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return 0, errs.Ef("freqs.infoIntAny", errs.KindSourceParse,
		"none of %s found: %v", strings.Join(names, ", "), lastErr)
}

// infoFlag reports whether a flag INFO field is present.
func infoFlag(variant *vcfgo.Variant, name string) bool {
	raw, err := variant.Info().Get(name)
	if err != nil || raw == nil {
		return false
	}
	if b, ok := raw.(bool); ok {
		return b
	}
	return true
}
