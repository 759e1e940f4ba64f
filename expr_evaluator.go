package props

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs selection expressions with github.com/expr-lang/expr.
// Variables are resolved at run time, so one program serves every record.
type exprEvaluator struct {
	engineConfig
}

func (e *exprEvaluator) engine() string { return EngineExpr }

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineExpr, errEmptyExpression)
	}
	if cached, ok := e.cached(EngineExpr, expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return &exprRule{evaluator: e, expression: expression, program: program}, nil
		}
	}

	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.functionNames() {
		options = append(options, exprlang.Function(name, func(args ...any) (any, error) {
			return e.call(name, args...)
		}))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, "", err)
	}
	e.store(EngineExpr, expression, program)
	return &exprRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *exprEvaluator) environment(ctx RuleContext) map[string]any {
	env := ctx.binding()
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	if e.functions != nil {
		env["call"] = func(name string, args ...any) (any, error) {
			return e.call(name, args...)
		}
	}
	return env
}

type exprRule struct {
	evaluator  *exprEvaluator
	expression string
	program    *exprvm.Program
}

func (r *exprRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(r.program, r.evaluator.environment(ctx))
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, r.expression, ctx.label(), err)
	}
	return result, nil
}
