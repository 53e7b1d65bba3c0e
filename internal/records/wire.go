package records

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/openbio/annostore/internal/errs"
)

// Append helpers; zero scalars and empty strings are omitted so that
// optional fields are absent rather than zero-valued.

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendStrings(b []byte, num protowire.Number, ss []string) []byte {
	for _, s := range ss {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func appendInt(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendOptInt32(b []byte, num protowire.Number, v *int32) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(*v))
}

func appendFloat(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// fieldIter walks the tag-delimited fields of buf, invoking visit for each.
// Unknown field numbers must be skipped by the caller returning handled ==
// false; the iterator then consumes the field value generically, which is
// what makes appended optional fields forward compatible.
func fieldIter(op errs.Op, buf []byte, visit func(num protowire.Number, typ protowire.Type, b []byte) (n int, handled bool, err error)) error {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return errs.WrapKind(op, errs.KindDecodeFailed, protowire.ParseError(n))
		}
		buf = buf[n:]

		n, handled, err := visit(num, typ, buf)
		if err != nil {
			return errs.WrapKind(op, errs.KindDecodeFailed, err)
		}
		if !handled {
			n = protowire.ConsumeFieldValue(num, typ, buf)
		}
		if n < 0 {
			return errs.WrapKind(op, errs.KindDecodeFailed, protowire.ParseError(n))
		}
		buf = buf[n:]
	}
	return nil
}

func consumeString(b []byte) (string, int, error) {
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeVarint(b []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeFloat(b []byte) (float64, int, error) {
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), n, nil
}
