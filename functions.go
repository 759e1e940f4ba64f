package props

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Function is a helper callable from selection expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry holds selection helpers by case-insensitive name.
// Names are stored lower-cased.
type FunctionRegistry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{funcs: map[string]Function{}}
}

// Register adds fn under name. Names must be unique.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return errors.New("props: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("props: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.funcs[key]; dup {
		return fmt.Errorf("props: function %q already registered", name)
	}
	if r.funcs == nil {
		r.funcs = map[string]Function{}
	}
	r.funcs[key] = fn
	return nil
}

// Call runs the function registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("props: no functions registered, cannot call %q", name)
	}
	r.mu.RLock()
	fn, ok := r.funcs[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("props: function %q not registered", name)
	}
	return fn(args...)
}

// Names lists the registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.funcs))
}

// Clone copies the registry. Later registrations on either copy are not
// shared.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	funcs := maps.Clone(r.funcs)
	if funcs == nil {
		funcs = map[string]Function{}
	}
	return &FunctionRegistry{funcs: funcs}
}

// WithFunctionRegistry makes every function in registry callable from
// selection expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.functions = registry.Clone()
		}
	}
}

// WithCustomFunction adds one selection helper. Duplicate names are ignored.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
