package props

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// walk calls fn for v and, for arrays, for every item.
func (v Value) walk(fn func(Value) error) error {
	if err := fn(v); err != nil {
		return err
	}
	for i, item := range v.items {
		if err := fn(item); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// finite rejects NaN and infinite floats.
func finite(v Value) error {
	if v.kind == KindFloat && (math.IsNaN(v.f) || math.IsInf(v.f, 0)) {
		return fmt.Errorf("%w: %v has no JSON representation", ErrNonSerializable, v.f)
	}
	return nil
}

// validUTF8 rejects strings that are not valid UTF-8.
func validUTF8(v Value) error {
	if v.kind == KindString {
		return textUTF8(v.s)
	}
	return nil
}

func textUTF8(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrNonSerializable, s)
	}
	return nil
}

// xmlText rejects strings an XML 1.0 document cannot carry.
func xmlText(s string) error {
	if err := textUTF8(s); err != nil {
		return err
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: character %U is not allowed in XML", ErrNonSerializable, r)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF, r >= 0xE000 && r <= 0xFFFD:
		return true
	}
	return r >= 0x10000 && r <= utf8.MaxRune
}
