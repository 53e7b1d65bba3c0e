package tsv

import (
	"math"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/openbio/annostore/internal/errs"
)

// EncodeRow serializes one data row according to the schema.  Column i is
// written under tag i+1; null cells are omitted entirely.
func EncodeRow(schema *FileSchema, record []string, nullValues []string) ([]byte, error) {
	var b []byte
	for i, col := range schema.Columns {
		if i >= len(record) {
			break
		}
		val := record[i]
		if isNull(val, nullValues) {
			continue
		}
		num := protowire.Number(i + 1)
		switch col.Type {
		case ColInteger:
			v, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, errs.WrapKind("tsv.EncodeRow", errs.KindSourceParse, err)
			}
			b = protowire.AppendTag(b, num, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(v))
		case ColFloat:
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, errs.WrapKind("tsv.EncodeRow", errs.KindSourceParse, err)
			}
			b = protowire.AppendTag(b, num, protowire.Fixed64Type)
			b = protowire.AppendFixed64(b, math.Float64bits(v))
		default:
			b = protowire.AppendTag(b, num, protowire.BytesType)
			b = protowire.AppendString(b, val)
		}
	}
	return b, nil
}

// DecodeRow deserializes a row into a column-name keyed map; absent (null)
// cells are not present in the map.  Tags beyond the schema are skipped.
func DecodeRow(schema *FileSchema, buf []byte) (map[string]interface{}, error) {
	row := make(map[string]interface{}, len(schema.Columns))
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, errs.WrapKind("tsv.DecodeRow", errs.KindDecodeFailed, protowire.ParseError(n))
		}
		buf = buf[n:]

		idx := int(num) - 1
		if idx < 0 || idx >= len(schema.Columns) {
			n = protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, errs.WrapKind("tsv.DecodeRow", errs.KindDecodeFailed, protowire.ParseError(n))
			}
			buf = buf[n:]
			continue
		}
		col := schema.Columns[idx]
		switch col.Type {
		case ColInteger:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return nil, errs.WrapKind("tsv.DecodeRow", errs.KindDecodeFailed, protowire.ParseError(n))
			}
			row[col.Name] = int64(v)
			buf = buf[n:]
		case ColFloat:
			v, n := protowire.ConsumeFixed64(buf)
			if n < 0 {
				return nil, errs.WrapKind("tsv.DecodeRow", errs.KindDecodeFailed, protowire.ParseError(n))
			}
			row[col.Name] = math.Float64frombits(v)
			buf = buf[n:]
		default:
			v, n := protowire.ConsumeString(buf)
			if n < 0 {
				return nil, errs.WrapKind("tsv.DecodeRow", errs.KindDecodeFailed, protowire.ParseError(n))
			}
			row[col.Name] = v
			buf = buf[n:]
		}
	}
	return row, nil
}

func isNull(val string, nullValues []string) bool {
	for _, nv := range nullValues {
		if val == nv {
			return true
		}
	}
	return false
}
