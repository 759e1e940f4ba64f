package props

import (
	"errors"
	"strings"
	"testing"
)

func TestNewEvaluatorEngines(t *testing.T) {
	for _, name := range []string{"", "expr", " CEL "} {
		e, err := NewEvaluator(name)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", name, err)
		}
		want := strings.ToLower(strings.TrimSpace(name))
		if want == "" {
			want = EngineExpr
		}
		if got := engineName(e); got != want {
			t.Fatalf("%q: expected engine %s, got %s", name, want, got)
		}
	}
	if _, err := NewEvaluator("lua"); !errors.Is(err, ErrNoEvaluator) {
		t.Fatalf("expected ErrNoEvaluator, got %v", err)
	}
	if got := engineName(nil); got != "custom" {
		t.Fatalf("expected custom for foreign evaluators, got %s", got)
	}
}

func TestEvaluatorsCallRegisteredFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("Scale", func(args ...any) (any, error) {
		f, ok := args[0].(float64)
		if !ok {
			return nil, errors.New("scale expects a float")
		}
		return f * 10, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	rec := NewRecord(PropertyKey("/knob", "value"), Float(0.5))

	cases := map[string]string{
		EngineExpr: `scale(value) == 5.0 && call("scale", value) == 5.0`,
		EngineCEL:  `call("scale", value) == 5.0`,
	}
	for engine, expression := range cases {
		e, err := NewEvaluator(engine, EngineFunctions(registry))
		if err != nil {
			t.Fatalf("%s: %v", engine, err)
		}
		result, err := e.Evaluate(RuleContext{Record: rec}, expression)
		if err != nil {
			t.Fatalf("%s: evaluate failed: %v", engine, err)
		}
		if result != true {
			t.Fatalf("%s: expected true, got %v", engine, result)
		}
	}
}

func TestEvaluatorsShareCacheByEngine(t *testing.T) {
	cache := &mapCache{}
	rec := NewRecord(PropertyKey("/knob", "value"), Int(2))
	for _, engine := range []string{EngineExpr, EngineCEL, EngineExpr, EngineCEL} {
		e, err := NewEvaluator(engine, EngineCache(cache))
		if err != nil {
			t.Fatalf("%s: %v", engine, err)
		}
		result, err := e.Evaluate(RuleContext{Record: rec}, `value == 2`)
		if err != nil {
			t.Fatalf("%s: evaluate failed: %v", engine, err)
		}
		if result != true {
			t.Fatalf("%s: expected true, got %v", engine, result)
		}
	}
	if len(cache.items) != 2 {
		t.Fatalf("expected one cached program per engine, got %d", len(cache.items))
	}
	if cache.hits != 2 {
		t.Fatalf("expected 2 cache hits, got %d", cache.hits)
	}
}

func TestEvaluatorRejectsEmptyExpression(t *testing.T) {
	for _, engine := range []string{EngineExpr, EngineCEL} {
		e, err := NewEvaluator(engine)
		if err != nil {
			t.Fatalf("%s: %v", engine, err)
		}
		if _, err := e.Compile(""); !errors.Is(err, errEmptyExpression) {
			t.Fatalf("%s: expected errEmptyExpression, got %v", engine, err)
		}
	}
}

func TestFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	noop := func(...any) (any, error) { return nil, nil }
	if err := registry.Register("Noop", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("noop", noop); err == nil {
		t.Fatalf("names should be case-insensitive and unique")
	}
	if err := registry.Register("", noop); err == nil {
		t.Fatalf("empty names should be rejected")
	}
	if err := registry.Register("nil", nil); err == nil {
		t.Fatalf("nil functions should be rejected")
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("calling an unknown function should fail")
	}

	clone := registry.Clone()
	_ = registry.Register("later", noop)
	if names := clone.Names(); len(names) != 1 || names[0] != "noop" {
		t.Fatalf("clone should not see later registrations, got %v", names)
	}
	var empty *FunctionRegistry
	if empty.Names() != nil || empty.Clone() != nil {
		t.Fatalf("nil registry should be usable")
	}
}
