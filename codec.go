package props

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire field numbers of an encoded record.
const (
	recAddress protowire.Number = 1 + iota
	recSetter
	recGetter
	recValue
	recID
	recClass
	recKind
	recElem
	recOpaque
)

// Wire field numbers of an encoded value.
const (
	valKind protowire.Number = 1 + iota
	valInt
	valFloat
	valBool
	valString
	valItem
	valElem
	valOpaque
	valData
)

// MarshalRecord encodes rec with the protobuf wire format. It fails with
// ErrNonSerializable when the value cannot be encoded.
func MarshalRecord(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", ErrNonSerializable)
	}
	value, err := appendValue(nil, rec.value)
	if err != nil {
		return nil, err
	}
	var b []byte
	b = appendString(b, recAddress, rec.key.Address)
	b = appendString(b, recSetter, rec.key.Setter)
	b = appendString(b, recGetter, rec.key.Getter)
	b = protowire.AppendTag(b, recValue, protowire.BytesType)
	b = protowire.AppendBytes(b, value)
	b = protowire.AppendTag(b, recID, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(rec.id)))
	b = appendString(b, recClass, rec.class)
	b = protowire.AppendTag(b, recKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(rec.typ.Kind))
	b = protowire.AppendTag(b, recElem, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(rec.typ.Elem))
	b = appendString(b, recOpaque, rec.typ.Opaque)
	return b, nil
}

// UnmarshalRecord decodes a record produced by MarshalRecord.
func UnmarshalRecord(b []byte) (*Record, error) {
	rec := &Record{}
	var sawValue bool
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireError(protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == recAddress && typ == protowire.BytesType:
			rec.key.Address, n = protowire.ConsumeString(b)
		case num == recSetter && typ == protowire.BytesType:
			rec.key.Setter, n = protowire.ConsumeString(b)
		case num == recGetter && typ == protowire.BytesType:
			rec.key.Getter, n = protowire.ConsumeString(b)
		case num == recClass && typ == protowire.BytesType:
			rec.class, n = protowire.ConsumeString(b)
		case num == recOpaque && typ == protowire.BytesType:
			rec.typ.Opaque, n = protowire.ConsumeString(b)
		case num == recValue && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				v, err := unmarshalValue(raw)
				if err != nil {
					return nil, err
				}
				rec.value = v
				sawValue = true
			}
		case num == recID && typ == protowire.VarintType:
			var u uint64
			u, n = protowire.ConsumeVarint(b)
			rec.id = int(protowire.DecodeZigZag(u))
		case num == recKind && typ == protowire.VarintType:
			var u uint64
			u, n = protowire.ConsumeVarint(b)
			rec.typ.Kind = Kind(u)
		case num == recElem && typ == protowire.VarintType:
			var u uint64
			u, n = protowire.ConsumeVarint(b)
			rec.typ.Elem = Kind(u)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, wireError(protowire.ParseError(n))
		}
		b = b[n:]
	}
	if rec.key.Address == "" || rec.key.Setter == "" {
		return nil, fmt.Errorf("%w: record without address or setter", ErrMalformed)
	}
	if !sawValue || !rec.value.IsValid() {
		return nil, fmt.Errorf("%w: record %s without value", ErrMalformed, rec.key)
	}
	if rec.typ.Kind == KindInvalid {
		rec.typ = rec.value.Type()
	}
	return rec, nil
}

func appendValue(b []byte, v Value) ([]byte, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: value is unset", ErrNonSerializable)
	}
	b = protowire.AppendTag(b, valKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(v.kind))
	switch v.kind {
	case KindInt:
		b = protowire.AppendTag(b, valInt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(v.i))
	case KindFloat:
		b = protowire.AppendTag(b, valFloat, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(v.f))
	case KindBool:
		b = protowire.AppendTag(b, valBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(v.b))
	case KindString:
		b = appendString(b, valString, v.s)
	case KindArray:
		b = protowire.AppendTag(b, valElem, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(v.elem))
		for _, item := range v.items {
			raw, err := appendValue(nil, item)
			if err != nil {
				return nil, err
			}
			b = protowire.AppendTag(b, valItem, protowire.BytesType)
			b = protowire.AppendBytes(b, raw)
		}
	case KindOpaque:
		data, err := v.OpaqueBytes()
		if err != nil {
			return nil, err
		}
		b = appendString(b, valOpaque, v.s)
		b = protowire.AppendTag(b, valData, protowire.BytesType)
		b = protowire.AppendBytes(b, data)
	}
	return b, nil
}

func unmarshalValue(b []byte) (Value, error) {
	var (
		v     Value
		items []Value
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Value{}, wireError(protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == valKind && typ == protowire.VarintType:
			var u uint64
			u, n = protowire.ConsumeVarint(b)
			v.kind = Kind(u)
		case num == valInt && typ == protowire.VarintType:
			var u uint64
			u, n = protowire.ConsumeVarint(b)
			v.i = protowire.DecodeZigZag(u)
		case num == valFloat && typ == protowire.Fixed64Type:
			var u uint64
			u, n = protowire.ConsumeFixed64(b)
			v.f = math.Float64frombits(u)
		case num == valBool && typ == protowire.VarintType:
			var u uint64
			u, n = protowire.ConsumeVarint(b)
			v.b = protowire.DecodeBool(u)
		case num == valString && typ == protowire.BytesType:
			v.s, n = protowire.ConsumeString(b)
		case num == valOpaque && typ == protowire.BytesType:
			v.s, n = protowire.ConsumeString(b)
		case num == valElem && typ == protowire.VarintType:
			var u uint64
			u, n = protowire.ConsumeVarint(b)
			v.elem = Kind(u)
		case num == valData && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			v.data = append([]byte(nil), raw...)
		case num == valItem && typ == protowire.BytesType:
			var raw []byte
			raw, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				item, err := unmarshalValue(raw)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return Value{}, wireError(protowire.ParseError(n))
		}
		b = b[n:]
	}
	switch v.kind {
	case KindInt, KindFloat, KindBool, KindString:
		return v, nil
	case KindArray:
		return Array(v.elem, items...)
	case KindOpaque:
		return Opaque(v.s, v.data), nil
	}
	return Value{}, fmt.Errorf("%w: unknown value kind %d", ErrMalformed, v.kind)
}

// encodable reports whether rec encodes cleanly.
func encodable(rec *Record) error {
	_, err := MarshalRecord(rec)
	return err
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func wireError(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
