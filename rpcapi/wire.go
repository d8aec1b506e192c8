package rpcapi

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrInvalidUTF8 = errors.New("string field contains invalid UTF-8")

	errWrongWireType = errors.New("wrong wire type")
)

// fieldDecoder consumes the value of one field and returns the bytes used.
type fieldDecoder func(typ protowire.Type, b []byte) (int, error)

// unmarshalFields walks a message, dispatching known fields. Unknown fields,
// and known fields with an unexpected wire type, are skipped as protobuf
// does.
func unmarshalFields(b []byte, fields map[protowire.Number]fieldDecoder) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if decode, ok := fields[num]; ok {
			n, err := decode(typ, b)
			switch {
			case err == nil:
				b = b[n:]
				continue
			case !errors.Is(err, errWrongWireType):
				return fmt.Errorf("field %d: %w", num, err)
			}
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func stringField(dst *string) fieldDecoder {
	return func(typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return 0, errWrongWireType
		}
		s, n := protowire.ConsumeString(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		if !utf8.ValidString(s) {
			return 0, ErrInvalidUTF8
		}
		*dst = s
		return n, nil
	}
}

func boolField(dst *bool) fieldDecoder {
	return func(typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return 0, errWrongWireType
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		*dst = protowire.DecodeBool(v)
		return n, nil
	}
}

// optionalInt64Field decodes a proto3 optional int64, recording presence.
func optionalInt64Field(dst **int64) fieldDecoder {
	return func(typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.VarintType {
			return 0, errWrongWireType
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		i := int64(v)
		*dst = &i
		return n, nil
	}
}

// proto3 omits fields holding their zero value, except optional fields.

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendOptionalInt64(b []byte, num protowire.Number, v *int64) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(*v))
}
