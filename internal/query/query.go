// Package query dispatches point, range and scan queries against one
// database and emits decoded records as JSON lines.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/openbio/annostore/internal/clinvarsv"
	"github.com/openbio/annostore/internal/codec"
	"github.com/openbio/annostore/internal/errs"
	"github.com/openbio/annostore/internal/freqs"
	"github.com/openbio/annostore/internal/gnomadsv"
	"github.com/openbio/annostore/internal/intervals"
	"github.com/openbio/annostore/internal/keys"
	"github.com/openbio/annostore/internal/records"
	"github.com/openbio/annostore/internal/spdi"
	"github.com/openbio/annostore/internal/store"
	"github.com/openbio/annostore/internal/tsv"
)

// Decoder turns one stored key-value pair into a JSON-serializable value.
type Decoder func(key, value []byte) (interface{}, error)

// Engine answers queries against one column family of one database.
type Engine struct {
	DB   *store.DB
	CF   string
	Meta *store.Meta

	decode  Decoder
	extract intervals.ExtractFunc
}

// NewEngine opens a query engine over a column family, selecting the
// record codec from the database's source kind.
func NewEngine(db *store.DB, cf string) (*Engine, error) {
	ok, err := db.HasColumnFamily(cf)
	if err != nil {
		return nil, err
	}
	if !ok && cf != store.MetaCF {
		return nil, errs.Ef("query.NewEngine", errs.KindMissingColumnFamily,
			"no column family %q in %s", cf, db.Path())
	}
	meta, err := db.ReadMeta()
	if err != nil {
		return nil, err
	}
	e := &Engine{DB: db, CF: cf, Meta: meta}
	if err := e.selectCodec(); err != nil {
		return nil, err
	}
	return e, nil
}

// selectCodec binds the decoder and interval extraction for the source.
func (e *Engine) selectCodec() error {
	switch e.Meta.SourceKind {
	case "clinvar-sv":
		e.decode = func(key, value []byte) (interface{}, error) {
			var r records.ClinvarSV
			if err := r.Unmarshal(value); err != nil {
				return nil, err
			}
			return &r, nil
		}
		e.extract = clinvarsv.Extract
	case "gnomad-sv", "exomes", "genomes":
		e.decode = func(key, value []byte) (interface{}, error) {
			var r records.GnomadSV
			if err := r.Unmarshal(value); err != nil {
				return nil, err
			}
			return &r, nil
		}
		e.extract = gnomadsv.Extract
	case "genes":
		e.decode = func(key, value []byte) (interface{}, error) {
			var r records.GeneNames
			if err := r.Unmarshal(value); err != nil {
				return nil, err
			}
			return &r, nil
		}
		e.extract = nil
	case "dbsnp":
		e.decode = func(key, value []byte) (interface{}, error) {
			var r records.Dbsnp
			if err := r.Unmarshal(value); err != nil {
				return nil, err
			}
			return &r, nil
		}
		e.extract = extractFromVarKey
	case "freqs":
		e.decode = freqsDecoder(e.CF)
		e.extract = extractFromVarKey
	case "tsv":
		schema, err := tsv.ReadSchema(e.DB)
		if err != nil {
			return err
		}
		e.decode = func(key, value []byte) (interface{}, error) {
			return tsv.DecodeRow(schema, value)
		}
		e.extract = extractFromVarKey
	default:
		return errs.Ef("query.selectCodec", errs.KindMissingMetadata,
			"unknown source kind %q", e.Meta.SourceKind)
	}
	return nil
}

// freqsDecoder picks the fixed-width record type of a frequency family
// and reports it together with its locus.
func freqsDecoder(cf string) Decoder {
	return func(key, value []byte) (interface{}, error) {
		v, err := keys.DecodeVar(key)
		if err != nil {
			return nil, err
		}
		out := map[string]interface{}{
			"chrom":       v.Chrom,
			"pos":         v.Pos,
			"reference":   v.Reference,
			"alternative": v.Alternative,
		}
		switch cf {
		case freqs.CFMitochondrial:
			var r codec.MtRecord
			if err := r.Unmarshal(value); err != nil {
				return nil, err
			}
			out["gnomad_mtdna"] = r.GnomadMtdna
			out["helixmtdb"] = r.Helixmtdb
		case freqs.CFGonosomal:
			var r codec.XyRecord
			if err := r.Unmarshal(value); err != nil {
				return nil, err
			}
			out["gnomad_exomes"] = r.GnomadExomes
			out["gnomad_genomes"] = r.GnomadGenomes
		default:
			var r codec.AutoRecord
			if err := r.Unmarshal(value); err != nil {
				return nil, err
			}
			out["gnomad_exomes"] = r.GnomadExomes
			out["gnomad_genomes"] = r.GnomadGenomes
		}
		return out, nil
	}
}

// extractFromVarKey derives the record interval from a variant key: the
// reference allele spans [pos, pos+len(ref)-1].
func extractFromVarKey(key, value []byte) (string, int32, int32, []byte, error) {
	v, err := keys.DecodeVar(key)
	if err != nil {
		return "", 0, 0, nil, err
	}
	stop := v.Pos + int32(len(v.Reference)) - 1
	return v.Chrom, v.Pos, stop, key, nil
}

// emit writes one decoded record as a JSON line.
func (e *Engine) emit(w io.Writer, key, value []byte) error {
	decoded, err := e.decode(key, value)
	if err != nil {
		return err
	}
	line, err := json.Marshal(decoded)
	if err != nil {
		return errs.WrapKind("query.emit", errs.KindDecodeFailed, err)
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return errs.WrapKind("query.emit", errs.KindIO, err)
	}
	return nil
}

// Accession resolves an accession to a record and emits it.  For ClinVar
// families, RCV accessions redirect through the index family.
func (e *Engine) Accession(w io.Writer, accession string) error {
	if e.Meta.SourceKind == "clinvar-sv" {
		record, err := clinvarsv.QueryAccession(e.DB, e.CF, accession)
		if err != nil {
			return err
		}
		line, err := json.Marshal(record)
		if err != nil {
			return errs.WrapKind("query.Accession", errs.KindDecodeFailed, err)
		}
		_, err = w.Write(append(line, '\n'))
		return err
	}
	value, err := e.DB.Get(e.CF, []byte(accession))
	if err != nil {
		return err
	}
	return e.emit(w, []byte(accession), value)
}

// LookupVariant resolves a single variant key to its decoded record.
func (e *Engine) LookupVariant(v spdi.Var) (interface{}, error) {
	chrom, err := spdi.ExtractChrom(v.Sequence, e.Meta.GenomeRelease)
	if err != nil {
		return nil, err
	}
	key, err := keys.Var{
		Chrom:       chrom,
		Pos:         v.Position,
		Reference:   v.Deletion,
		Alternative: v.Insertion,
	}.Encode()
	if err != nil {
		return nil, err
	}
	value, err := e.DB.Get(e.CF, key)
	if err != nil {
		return nil, err
	}
	return e.decode(key, value)
}

// Variant looks up a single variant key and emits its record.
func (e *Engine) Variant(w io.Writer, v spdi.Var) error {
	decoded, err := e.LookupVariant(v)
	if err != nil {
		return err
	}
	line, err := json.Marshal(decoded)
	if err != nil {
		return errs.WrapKind("query.Variant", errs.KindDecodeFailed, err)
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return errs.WrapKind("query.Variant", errs.KindIO, err)
	}
	return nil
}

// Position emits every record stored at the given position by scanning
// the variant keys sharing its six-byte prefix.
func (e *Engine) Position(w io.Writer, p spdi.Pos) error {
	chrom, err := spdi.ExtractChrom(p.Sequence, e.Meta.GenomeRelease)
	if err != nil {
		return err
	}
	prefix, err := keys.Pos{Chrom: chrom, Pos: p.Position}.Encode()
	if err != nil {
		return err
	}

	it, err := e.DB.NewIter(e.CF)
	if err != nil {
		return err
	}
	defer it.Close()

	for ok := it.Seek(prefix); ok && it.Valid(); it.Next() {
		key := it.Key()
		if !bytes.HasPrefix(key, prefix) {
			break
		}
		if err := e.emit(w, key, it.Value()); err != nil {
			return err
		}
	}
	return nil
}

// Range answers an overlap query through the interval forest, resolving
// every hit with a point lookup.
func (e *Engine) Range(ctx context.Context, w io.Writer, r spdi.Range, cache *intervals.Cache) error {
	if e.extract == nil {
		return errs.Ef("query.Range", errs.KindInvalidLocus,
			"source kind %q does not support range queries", e.Meta.SourceKind)
	}
	chrom, err := spdi.ExtractChrom(r.Sequence, e.Meta.GenomeRelease)
	if err != nil {
		return err
	}
	forest, err := cache.GetOrBuild(e.DB.Path()+"/"+e.CF, func() (*intervals.Forest, error) {
		return intervals.Build(e.DB, e.CF, e.extract)
	})
	if err != nil {
		return err
	}

	for _, key := range forest.Query(chrom, r.Start, r.End) {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, err := e.DB.Get(e.CF, key)
		if err != nil {
			if errs.IsKind(err, errs.KindNotFound) {
				continue
			}
			return err
		}
		if err := e.emit(w, key, value); err != nil {
			return err
		}
	}
	return nil
}

// ScanAll emits every record of the column family in key order.
func (e *Engine) ScanAll(ctx context.Context, w io.Writer) error {
	it, err := e.DB.NewIter(e.CF)
	if err != nil {
		return err
	}
	defer it.Close()

	for ok := it.SeekToFirst(); ok && it.Valid(); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.emit(w, it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return nil
}
