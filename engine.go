package props

import (
	"errors"
	"fmt"
	"strings"
)

// Built-in expression engines.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

var errEmptyExpression = errors.New("expression must not be empty")

// EngineOption configures a built-in evaluator.
type EngineOption func(*engineConfig)

// engineConfig is shared by the built-in evaluators.
type engineConfig struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// EngineCache stores compiled programs in cache. Entries are keyed by engine
// and expression, so one cache may serve several engines.
func EngineCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// EngineFunctions makes the functions of registry callable by name and
// through call(name, args...). The registry is copied.
func EngineFunctions(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		cfg.functions = registry.Clone()
	}
}

// NewEvaluator returns the built-in evaluator for engine: "expr" (also the
// empty name), "cel" or "js". The js engine is only available when built
// with the js_eval tag.
func NewEvaluator(engine string, opts ...EngineOption) (Evaluator, error) {
	var cfg engineConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return &exprEvaluator{engineConfig: cfg}, nil
	case EngineCEL:
		return &celEvaluator{engineConfig: cfg}, nil
	case EngineJS:
		return newJSEvaluator(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

// engineName reports the engine behind e, or "custom" for evaluators
// supplied through WithEvaluator.
func engineName(e Evaluator) string {
	if named, ok := e.(interface{ engine() string }); ok {
		return named.engine()
	}
	return "custom"
}

func (cfg engineConfig) cached(engine, expression string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(engine + ":" + expression)
}

func (cfg engineConfig) store(engine, expression string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(engine+":"+expression, program)
	}
}

func (cfg engineConfig) call(name string, args ...any) (any, error) {
	if cfg.functions == nil {
		return nil, fmt.Errorf("props: no functions registered, cannot call %q", name)
	}
	return cfg.functions.Call(name, args...)
}

func (cfg engineConfig) functionNames() []string {
	return cfg.functions.Names()
}
