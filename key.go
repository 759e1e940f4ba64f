package props

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Key identifies a property by its owner address and accessor names. Keys are
// comparable and safe to use as map keys.
type Key struct {
	Address string
	Setter  string
	Getter  string
}

// NewKey builds a Key from explicit accessor names.
func NewKey(address, setter, getter string) Key {
	return Key{Address: address, Setter: setter, Getter: getter}
}

// PropertyKey derives set<Name>/get<Name> from a property name, so
// PropertyKey("/slider", "value") addresses setValue/getValue.
func PropertyKey(address, name string) Key {
	name = Capitalize(name)
	return Key{Address: address, Setter: "set" + name, Getter: "get" + name}
}

// Capitalize upper-cases the first rune of name.
func Capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%s/%s", k.Address, k.Setter, k.Getter)
}
