package props

import (
	"bytes"
	"encoding"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindInvalid marks an unset value. Invalid values are never persisted.
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindArray
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindString:
		return "String"
	case KindArray:
		return "array"
	case KindOpaque:
		return "opaque"
	default:
		return "invalid"
	}
}

// Primitive reports whether k may be used as an array element kind.
func (k Kind) Primitive() bool {
	switch k {
	case KindInt, KindFloat, KindBool, KindString:
		return true
	default:
		return false
	}
}

// Type is the declared type of a property: a kind, the element kind for
// arrays, and the type name for opaque values.
type Type struct {
	Kind   Kind
	Elem   Kind
	Opaque string
}

// Token renders the type the way it is written into text formats:
// int, float, boolean, String, <elem>[] or opaque/<name>.
func (t Type) Token() string {
	switch t.Kind {
	case KindArray:
		return t.Elem.String() + "[]"
	case KindOpaque:
		return "opaque/" + t.Opaque
	default:
		return t.Kind.String()
	}
}

func (t Type) String() string {
	return t.Token()
}

// ParseType resolves a type token produced by Type.Token.
func ParseType(token string) (Type, error) {
	token = strings.TrimSpace(token)
	if elem, ok := strings.CutSuffix(token, "[]"); ok {
		kind, err := primitiveKind(elem)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindArray, Elem: kind}, nil
	}
	if name, ok := strings.CutPrefix(token, "opaque/"); ok {
		return Type{Kind: KindOpaque, Opaque: name}, nil
	}
	kind, err := primitiveKind(token)
	if err != nil {
		return Type{}, err
	}
	return Type{Kind: kind}, nil
}

func primitiveKind(token string) (Kind, error) {
	switch token {
	case "int", "long", "Integer":
		return KindInt, nil
	case "float", "double", "Float":
		return KindFloat, nil
	case "boolean", "bool", "Boolean":
		return KindBool, nil
	case "String", "string":
		return KindString, nil
	default:
		return KindInvalid, fmt.Errorf("%w: unknown type %q", ErrMalformed, token)
	}
}

// Value is a closed tagged union over the property value variants.
// The zero Value is KindInvalid.
type Value struct {
	kind   Kind
	elem   Kind
	i      int64
	f      float64
	b      bool
	s      string
	items  []Value
	data   []byte
	source any
}

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating point Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Array builds a homogeneous array of primitive values of kind elem.
func Array(elem Kind, items ...Value) (Value, error) {
	if !elem.Primitive() {
		return Value{}, fmt.Errorf("%w: array element kind %s", ErrTypeMismatch, elem)
	}
	out := make([]Value, len(items))
	for i, item := range items {
		if item.kind != elem {
			return Value{}, fmt.Errorf("%w: array element %d is %s, want %s", ErrTypeMismatch, i, item.kind, elem)
		}
		out[i] = item
	}
	return Value{kind: KindArray, elem: elem, items: out}, nil
}

// Ints builds an int array Value.
func Ints(values ...int64) Value {
	items := make([]Value, len(values))
	for i, v := range values {
		items[i] = Int(v)
	}
	return Value{kind: KindArray, elem: KindInt, items: items}
}

// Floats builds a float array Value.
func Floats(values ...float64) Value {
	items := make([]Value, len(values))
	for i, v := range values {
		items[i] = Float(v)
	}
	return Value{kind: KindArray, elem: KindFloat, items: items}
}

// Bools builds a boolean array Value.
func Bools(values ...bool) Value {
	items := make([]Value, len(values))
	for i, v := range values {
		items[i] = Bool(v)
	}
	return Value{kind: KindArray, elem: KindBool, items: items}
}

// Strings builds a string array Value.
func Strings(values ...string) Value {
	items := make([]Value, len(values))
	for i, v := range values {
		items[i] = String(v)
	}
	return Value{kind: KindArray, elem: KindString, items: items}
}

// Opaque wraps an already encoded blob.
func Opaque(typeName string, data []byte) Value {
	return Value{kind: KindOpaque, s: typeName, data: bytes.Clone(data)}
}

// OpaqueOf wraps a live payload. The payload is encoded lazily, when the
// value is persisted; payloads that are neither []byte nor
// encoding.BinaryMarshaler fail the serializability check.
func OpaqueOf(typeName string, payload any) Value {
	if raw, ok := payload.([]byte); ok {
		return Opaque(typeName, raw)
	}
	return Value{kind: KindOpaque, s: typeName, source: payload}
}

// Kind returns the variant.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether the value is set.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Type returns the declared type matching the value.
func (v Value) Type() Type {
	switch v.kind {
	case KindArray:
		return Type{Kind: KindArray, Elem: v.elem}
	case KindOpaque:
		return Type{Kind: KindOpaque, Opaque: v.s}
	default:
		return Type{Kind: v.kind}
	}
}

// AsInt returns the integer payload. Integral floats convert.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
			return int64(v.f), true
		}
	}
	return 0, false
}

// AsFloat returns the float payload. Integers convert.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Elem returns the element kind of an array value.
func (v Value) Elem() Kind { return v.elem }

// Items returns a copy of the array elements.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return slices.Clone(v.items)
}

// Len returns the number of array elements.
func (v Value) Len() int { return len(v.items) }

// OpaqueType returns the type name of an opaque value.
func (v Value) OpaqueType() string {
	if v.kind != KindOpaque {
		return ""
	}
	return v.s
}

// OpaqueBytes encodes an opaque value. It fails with ErrNonSerializable when
// the live payload cannot be marshalled.
func (v Value) OpaqueBytes() ([]byte, error) {
	if v.kind != KindOpaque {
		return nil, fmt.Errorf("%w: %s is not opaque", ErrTypeMismatch, v.kind)
	}
	if v.source == nil {
		return bytes.Clone(v.data), nil
	}
	marshaler, ok := v.source.(encoding.BinaryMarshaler)
	if !ok {
		return nil, fmt.Errorf("%w: %T does not implement encoding.BinaryMarshaler", ErrNonSerializable, v.source)
	}
	data, err := marshaler.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonSerializable, err)
	}
	return data, nil
}

// Payload returns the live payload of an opaque value built with OpaqueOf.
func (v Value) Payload() any { return v.source }

// Clone returns a deep copy. Opaque payloads are frozen into bytes when
// possible so later mutation of the live payload does not leak into the copy.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		out := v
		out.items = slices.Clone(v.items)
		return out
	case KindOpaque:
		if v.source != nil {
			if data, err := v.OpaqueBytes(); err == nil {
				return Opaque(v.s, data)
			}
			return v
		}
		return Opaque(v.s, v.data)
	default:
		return v
	}
}

// Equal compares two values variant by variant.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindInvalid:
		return true
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f || (math.IsNaN(v.f) && math.IsNaN(other.f))
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindArray:
		return v.elem == other.elem && slices.EqualFunc(v.items, other.items, Value.Equal)
	case KindOpaque:
		if v.s != other.s {
			return false
		}
		a, errA := v.OpaqueBytes()
		b, errB := other.OpaqueBytes()
		return errA == nil && errB == nil && bytes.Equal(a, b)
	}
	return false
}

// Native returns the value as a plain Go value: int64, float64, bool,
// string, []any or []byte. Invalid values return nil.
func (v Value) Native() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Native()
		}
		return out
	case KindOpaque:
		data, err := v.OpaqueBytes()
		if err != nil {
			return nil
		}
		return data
	}
	return nil
}

// String renders the value as text. Arrays render as [a, b, c].
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	case KindArray:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindOpaque:
		return fmt.Sprintf("<%s>", v.s)
	}
	return "<unset>"
}

// ParseValue converts the textual form of a primitive back into a Value.
func ParseValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Float(f), nil
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Bool(b), nil
	case KindString:
		return String(text), nil
	default:
		return Value{}, fmt.Errorf("%w: cannot parse %s from text", ErrTypeMismatch, kind)
	}
}

// FromNative converts a decoded document value into a Value of type t.
// It accepts the shapes produced by the JSON, TOML and YAML decoders.
func FromNative(t Type, raw any) (Value, error) {
	switch t.Kind {
	case KindInt:
		return nativeInt(raw)
	case KindFloat:
		return nativeFloat(raw)
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("%w: want boolean, got %T", ErrMalformed, raw)
		}
		return Bool(b), nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("%w: want string, got %T", ErrMalformed, raw)
		}
		return String(s), nil
	case KindArray:
		list, ok := raw.([]any)
		if !ok {
			if raw == nil {
				return Array(t.Elem)
			}
			return Value{}, fmt.Errorf("%w: want array, got %T", ErrMalformed, raw)
		}
		items := make([]Value, len(list))
		for i, entry := range list {
			item, err := FromNative(Type{Kind: t.Elem}, entry)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = item
		}
		return Array(t.Elem, items...)
	case KindOpaque:
		switch data := raw.(type) {
		case []byte:
			return Opaque(t.Opaque, data), nil
		case string:
			decoded, err := decodeBase64(data)
			if err != nil {
				return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			return Opaque(t.Opaque, decoded), nil
		default:
			return Value{}, fmt.Errorf("%w: want base64 string, got %T", ErrMalformed, raw)
		}
	}
	return Value{}, fmt.Errorf("%w: type %s", ErrMalformed, t)
}

type numberLike interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

func nativeInt(raw any) (Value, error) {
	switch n := raw.(type) {
	case int:
		return Int(int64(n)), nil
	case int64:
		return Int(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d overflows int", ErrMalformed, n)
		}
		return Int(int64(n)), nil
	case float64:
		if n != math.Trunc(n) {
			return Value{}, fmt.Errorf("%w: %v is not integral", ErrMalformed, n)
		}
		return Int(int64(n)), nil
	case numberLike:
		i, err := n.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Int(i), nil
	}
	return Value{}, fmt.Errorf("%w: want int, got %T", ErrMalformed, raw)
}

func nativeFloat(raw any) (Value, error) {
	switch n := raw.(type) {
	case float64:
		return Float(n), nil
	case float32:
		return Float(float64(n)), nil
	case int:
		return Float(float64(n)), nil
	case int64:
		return Float(float64(n)), nil
	case uint64:
		return Float(float64(n)), nil
	case numberLike:
		f, err := n.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Float(f), nil
	}
	return Value{}, fmt.Errorf("%w: want float, got %T", ErrMalformed, raw)
}
