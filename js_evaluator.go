//go:build js_eval

package props

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs selection expressions as JavaScript with goja. Each
// evaluation gets a fresh runtime.
type jsEvaluator struct {
	engineConfig
}

func newJSEvaluator(cfg engineConfig) (Evaluator, error) {
	return &jsEvaluator{engineConfig: cfg}, nil
}

func (e *jsEvaluator) engine() string { return EngineJS }

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineJS, errEmptyExpression)
	}
	if cached, ok := e.cached(EngineJS, expression); ok {
		if program, ok := cached.(*goja.Program); ok {
			return &jsRule{evaluator: e, expression: expression, program: program}, nil
		}
	}
	source := fmt.Sprintf("(function(){ return (%s); })()", expression)
	program, err := goja.Compile("selection", source, false)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, "", err)
	}
	e.store(EngineJS, expression, program)
	return &jsRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *jsEvaluator) runtime(ctx RuleContext) (*goja.Runtime, error) {
	vm := goja.New()
	globals := ctx.binding()
	globals["now"] = ctx.timestamp()
	globals["args"] = ctx.Args
	globals["metadata"] = ctx.Metadata
	if e.functions != nil {
		globals["call"] = func(name string, args ...any) (any, error) {
			return e.call(name, args...)
		}
		for _, name := range e.functionNames() {
			globals[name] = func(args ...any) (any, error) {
				return e.call(name, args...)
			}
		}
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return vm, nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vm, err := r.evaluator.runtime(ctx)
	if err != nil {
		return nil, wrapEvaluatorError(EngineJS, err)
	}
	value, err := vm.RunProgram(r.program)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, r.expression, ctx.label(), err)
	}
	return value.Export(), nil
}
