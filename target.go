package props

import (
	"encoding"
	"fmt"
	"sync"
)

// Target is a widget whose properties can be persisted. Accessor returns the
// typed getter/setter pair registered under the given names.
type Target interface {
	Address() string
	Accessor(setter, getter string) (Accessor, bool)
}

// Identified is implemented by targets that carry a numeric id. The id is
// saved with each record and restored on load.
type Identified interface {
	ID() int
	SetID(id int)
}

// Classified is implemented by targets that report a class name for the
// class column of text formats.
type Classified interface {
	Class() string
}

// Resolver looks targets up by address. Controllers are tried before groups.
type Resolver interface {
	Controller(address string) Target
	Group(address string) Target
}

// Accessor is a typed getter/setter pair.
type Accessor struct {
	Type Type
	Get  func() (Value, error)
	Set  func(Value) error
}

func (a Accessor) get() (Value, error) {
	if a.Get == nil {
		return Value{}, fmt.Errorf("%w: no getter", ErrAccessor)
	}
	return a.Get()
}

func (a Accessor) set(v Value) error {
	if a.Set == nil {
		return fmt.Errorf("%w: no setter", ErrAccessor)
	}
	return a.Set(v)
}

// IntAccessor binds an int property.
func IntAccessor(get func() int, set func(int)) Accessor {
	return Accessor{
		Type: Type{Kind: KindInt},
		Get:  func() (Value, error) { return Int(int64(get())), nil },
		Set: func(v Value) error {
			n, ok := v.AsInt()
			if !ok {
				return fmt.Errorf("%w: want int, got %s", ErrTypeMismatch, v.Kind())
			}
			set(int(n))
			return nil
		},
	}
}

// FloatAccessor binds a float property. Integer values are accepted on set.
func FloatAccessor(get func() float64, set func(float64)) Accessor {
	return Accessor{
		Type: Type{Kind: KindFloat},
		Get:  func() (Value, error) { return Float(get()), nil },
		Set: func(v Value) error {
			f, ok := v.AsFloat()
			if !ok {
				return fmt.Errorf("%w: want float, got %s", ErrTypeMismatch, v.Kind())
			}
			set(f)
			return nil
		},
	}
}

// BoolAccessor binds a boolean property.
func BoolAccessor(get func() bool, set func(bool)) Accessor {
	return Accessor{
		Type: Type{Kind: KindBool},
		Get:  func() (Value, error) { return Bool(get()), nil },
		Set: func(v Value) error {
			b, ok := v.AsBool()
			if !ok {
				return fmt.Errorf("%w: want boolean, got %s", ErrTypeMismatch, v.Kind())
			}
			set(b)
			return nil
		},
	}
}

// StringAccessor binds a string property.
func StringAccessor(get func() string, set func(string)) Accessor {
	return Accessor{
		Type: Type{Kind: KindString},
		Get:  func() (Value, error) { return String(get()), nil },
		Set: func(v Value) error {
			s, ok := v.AsString()
			if !ok {
				return fmt.Errorf("%w: want String, got %s", ErrTypeMismatch, v.Kind())
			}
			set(s)
			return nil
		},
	}
}

// FloatsAccessor binds a float array property.
func FloatsAccessor(get func() []float64, set func([]float64)) Accessor {
	return Accessor{
		Type: Type{Kind: KindArray, Elem: KindFloat},
		Get:  func() (Value, error) { return Floats(get()...), nil },
		Set: func(v Value) error {
			if v.Kind() != KindArray {
				return fmt.Errorf("%w: want float[], got %s", ErrTypeMismatch, v.Kind())
			}
			out := make([]float64, v.Len())
			for i, item := range v.items {
				f, ok := item.AsFloat()
				if !ok {
					return fmt.Errorf("%w: element %d is %s", ErrTypeMismatch, i, item.Kind())
				}
				out[i] = f
			}
			set(out)
			return nil
		},
	}
}

// IntsAccessor binds an int array property.
func IntsAccessor(get func() []int, set func([]int)) Accessor {
	return Accessor{
		Type: Type{Kind: KindArray, Elem: KindInt},
		Get: func() (Value, error) {
			values := get()
			items := make([]int64, len(values))
			for i, n := range values {
				items[i] = int64(n)
			}
			return Ints(items...), nil
		},
		Set: func(v Value) error {
			if v.Kind() != KindArray {
				return fmt.Errorf("%w: want int[], got %s", ErrTypeMismatch, v.Kind())
			}
			out := make([]int, v.Len())
			for i, item := range v.items {
				n, ok := item.AsInt()
				if !ok {
					return fmt.Errorf("%w: element %d is %s", ErrTypeMismatch, i, item.Kind())
				}
				out[i] = int(n)
			}
			set(out)
			return nil
		},
	}
}

// StringsAccessor binds a string array property.
func StringsAccessor(get func() []string, set func([]string)) Accessor {
	return Accessor{
		Type: Type{Kind: KindArray, Elem: KindString},
		Get:  func() (Value, error) { return Strings(get()...), nil },
		Set: func(v Value) error {
			if v.Kind() != KindArray || v.Elem() != KindString {
				return fmt.Errorf("%w: want String[], got %s", ErrTypeMismatch, v.Type())
			}
			out := make([]string, v.Len())
			for i, item := range v.items {
				out[i] = item.s
			}
			set(out)
			return nil
		},
	}
}

// OpaqueAccessor binds a property whose value is an arbitrary payload. The
// getter's payload must implement encoding.BinaryMarshaler to be persisted;
// the setter receives the decoded bytes.
func OpaqueAccessor(typeName string, get func() any, set func(data []byte) error) Accessor {
	return Accessor{
		Type: Type{Kind: KindOpaque, Opaque: typeName},
		Get:  func() (Value, error) { return OpaqueOf(typeName, get()), nil },
		Set: func(v Value) error {
			if v.Kind() != KindOpaque {
				return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, typeName, v.Kind())
			}
			data, err := v.OpaqueBytes()
			if err != nil {
				return err
			}
			return set(data)
		},
	}
}

// UnmarshalInto adapts an encoding.BinaryUnmarshaler as an opaque setter.
func UnmarshalInto(target encoding.BinaryUnmarshaler) func([]byte) error {
	return target.UnmarshalBinary
}

// Base is an embeddable Target implementation that keeps accessors in a table.
type Base struct {
	mu        sync.RWMutex
	address   string
	id        int
	class     string
	accessors map[[2]string]Accessor
}

// NewBase returns a Base for address with the given class name.
func NewBase(address, class string) *Base {
	return &Base{address: address, class: class, accessors: map[[2]string]Accessor{}}
}

// Address implements Target.
func (b *Base) Address() string { return b.address }

// Class implements Classified.
func (b *Base) Class() string { return b.class }

// ID implements Identified.
func (b *Base) ID() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.id
}

// SetID implements Identified.
func (b *Base) SetID(id int) {
	b.mu.Lock()
	b.id = id
	b.mu.Unlock()
}

// Bind registers acc under set<Name>/get<Name>.
func (b *Base) Bind(name string, acc Accessor) *Base {
	key := PropertyKey(b.address, name)
	return b.BindPair(key.Setter, key.Getter, acc)
}

// BindPair registers acc under explicit accessor names.
func (b *Base) BindPair(setter, getter string, acc Accessor) *Base {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.accessors == nil {
		b.accessors = map[[2]string]Accessor{}
	}
	b.accessors[[2]string{setter, getter}] = acc
	return b
}

// Accessor implements Target.
func (b *Base) Accessor(setter, getter string) (Accessor, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	acc, ok := b.accessors[[2]string{setter, getter}]
	return acc, ok
}

// Widgets is an in-memory Resolver holding controllers and groups by address.
type Widgets struct {
	mu          sync.RWMutex
	controllers map[string]Target
	groups      map[string]Target
}

// NewWidgets returns an empty resolver.
func NewWidgets() *Widgets {
	return &Widgets{controllers: map[string]Target{}, groups: map[string]Target{}}
}

// AddController registers a controller under its address.
func (w *Widgets) AddController(t Target) *Widgets {
	w.mu.Lock()
	w.controllers[t.Address()] = t
	w.mu.Unlock()
	return w
}

// AddGroup registers a group under its address.
func (w *Widgets) AddGroup(t Target) *Widgets {
	w.mu.Lock()
	w.groups[t.Address()] = t
	w.mu.Unlock()
	return w
}

// Remove drops any controller or group registered under address.
func (w *Widgets) Remove(address string) {
	w.mu.Lock()
	delete(w.controllers, address)
	delete(w.groups, address)
	w.mu.Unlock()
}

// Controller implements Resolver.
func (w *Widgets) Controller(address string) Target {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.controllers[address]
}

// Group implements Resolver.
func (w *Widgets) Group(address string) Target {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.groups[address]
}

func resolve(resolver Resolver, address string) Target {
	if resolver == nil {
		return nil
	}
	if t := resolver.Controller(address); t != nil {
		return t
	}
	return resolver.Group(address)
}
