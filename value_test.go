package props

import (
	"errors"
	"math"
	"testing"
)

func TestParseTypeTokens(t *testing.T) {
	cases := map[string]Type{
		"int":          {Kind: KindInt},
		"long":         {Kind: KindInt},
		"float":        {Kind: KindFloat},
		"double":       {Kind: KindFloat},
		"boolean":      {Kind: KindBool},
		"String":       {Kind: KindString},
		"float[]":      {Kind: KindArray, Elem: KindFloat},
		"String[]":     {Kind: KindArray, Elem: KindString},
		"opaque/curve": {Kind: KindOpaque, Opaque: "curve"},
	}
	for token, want := range cases {
		got, err := ParseType(token)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", token, err)
		}
		if got != want {
			t.Fatalf("%s: expected %+v, got %+v", token, want, got)
		}
	}
	for _, bad := range []string{"", "matrix", "opaque[]", "list<int>"} {
		if _, err := ParseType(bad); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%q: expected ErrMalformed, got %v", bad, err)
		}
	}
}

func TestTypeTokenRoundTrip(t *testing.T) {
	for _, typ := range []Type{
		{Kind: KindInt},
		{Kind: KindBool},
		{Kind: KindArray, Elem: KindInt},
		{Kind: KindOpaque, Opaque: "blob"},
	} {
		got, err := ParseType(typ.Token())
		if err != nil || got != typ {
			t.Fatalf("%s: round trip gave %+v, %v", typ, got, err)
		}
	}
}

func TestArrayRejectsMixedElements(t *testing.T) {
	if _, err := Array(KindInt, Int(1), String("x")); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := Array(KindArray); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("nested arrays should be rejected, got %v", err)
	}
	v, err := Array(KindBool, Bool(true), Bool(false))
	if err != nil || v.Len() != 2 || v.Elem() != KindBool {
		t.Fatalf("unexpected array %v, %v", v, err)
	}
}

func TestValueCloneIsDeep(t *testing.T) {
	arr := Ints(1, 2, 3)
	clone := arr.Clone()
	arr.items[0] = Int(9)
	if first, _ := clone.Items()[0].AsInt(); first != 1 {
		t.Fatalf("clone should not share array storage, got %d", first)
	}

	live := &curve{points: []byte{1, 2}}
	opaque := OpaqueOf("curve", live)
	frozen := opaque.Clone()
	live.points[0] = 7
	data, err := frozen.OpaqueBytes()
	if err != nil {
		t.Fatalf("opaque bytes: %v", err)
	}
	if data[0] != 1 {
		t.Fatalf("cloned opaque value should be frozen, got %v", data)
	}
}

func TestValueEqual(t *testing.T) {
	if !Float(math.NaN()).Equal(Float(math.NaN())) {
		t.Fatalf("NaN floats should compare equal")
	}
	if Int(1).Equal(Float(1)) {
		t.Fatalf("different kinds should not be equal")
	}
	if !Strings("a", "b").Equal(Strings("a", "b")) {
		t.Fatalf("equal arrays should compare equal")
	}
	if Opaque("a", []byte{1}).Equal(Opaque("b", []byte{1})) {
		t.Fatalf("opaque values with different types should differ")
	}
	if OpaqueOf("h", &handle{}).Equal(OpaqueOf("h", &handle{})) {
		t.Fatalf("unencodable opaque values should never compare equal")
	}
}

func TestValueConversions(t *testing.T) {
	if n, ok := Float(3).AsInt(); !ok || n != 3 {
		t.Fatalf("integral float should convert to int, got %d %v", n, ok)
	}
	if _, ok := Float(3.5).AsInt(); ok {
		t.Fatalf("fractional float should not convert to int")
	}
	if f, ok := Int(2).AsFloat(); !ok || f != 2 {
		t.Fatalf("int should convert to float, got %v %v", f, ok)
	}
	if _, ok := String("true").AsBool(); ok {
		t.Fatalf("strings should not convert to bool")
	}
	if (Value{}).IsValid() || (Value{}).String() != "<unset>" {
		t.Fatalf("zero value should be invalid")
	}
	if got := Floats(0.5, 1).String(); got != "[0.5, 1]" {
		t.Fatalf("unexpected array text %q", got)
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(KindInt, " 12 ")
	if err != nil || !v.Equal(Int(12)) {
		t.Fatalf("unexpected int %v, %v", v, err)
	}
	v, err = ParseValue(KindString, " keep spaces ")
	if err != nil || !v.Equal(String(" keep spaces ")) {
		t.Fatalf("strings should be kept verbatim, got %q", v)
	}
	if _, err := ParseValue(KindBool, "maybe"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := ParseValue(KindArray, "[]"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("arrays are not parsed from text, got %v", err)
	}
}

func TestFromNative(t *testing.T) {
	v, err := FromNative(Type{Kind: KindFloat}, 3)
	if err != nil || !v.Equal(Float(3)) {
		t.Fatalf("int should widen to float, got %v %v", v, err)
	}
	if _, err := FromNative(Type{Kind: KindInt}, 1.5); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for a fractional int, got %v", err)
	}
	v, err = FromNative(Type{Kind: KindArray, Elem: KindString}, []any{"a", "b"})
	if err != nil || !v.Equal(Strings("a", "b")) {
		t.Fatalf("unexpected array %v %v", v, err)
	}
	if _, err := FromNative(Type{Kind: KindArray, Elem: KindInt}, []any{1, "x"}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for a bad element, got %v", err)
	}
	v, err = FromNative(Type{Kind: KindOpaque, Opaque: "blob"}, encodeBase64([]byte{4, 5}))
	if err != nil || !v.Equal(Opaque("blob", []byte{4, 5})) {
		t.Fatalf("unexpected opaque %v %v", v, err)
	}
}

func TestKeyHelpers(t *testing.T) {
	key := PropertyKey("/slider", "value")
	if key.Setter != "setValue" || key.Getter != "getValue" {
		t.Fatalf("unexpected accessor names %+v", key)
	}
	if key.String() != "/slider#setValue/getValue" {
		t.Fatalf("unexpected key text %q", key.String())
	}
	if Capitalize("") != "" || Capitalize("émoji") != "Émoji" {
		t.Fatalf("unexpected capitalization")
	}
}
