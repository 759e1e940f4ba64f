package props

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// maxCallArity bounds the overloads of call(name, ...): CEL functions are not
// variadic.
const maxCallArity = 3

// celEvaluator runs selection expressions with github.com/google/cel-go.
// Record variables are declared dyn and type-checked at run time.
type celEvaluator struct {
	engineConfig
}

func (e *celEvaluator) engine() string { return EngineCEL }

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, errEmptyExpression)
	}
	if cached, ok := e.cached(EngineCEL, expression); ok {
		if program, ok := cached.(celgo.Program); ok {
			return &celRule{expression: expression, program: program}, nil
		}
	}

	env, err := e.environment()
	if err != nil {
		return nil, wrapEvaluatorError(EngineCEL, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", err)
	}
	e.store(EngineCEL, expression, program)
	return &celRule{expression: expression, program: program}, nil
}

func (e *celEvaluator) environment() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	for _, name := range bindingNames {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.functions == nil {
		return celgo.NewEnv(opts...)
	}

	params := []*celgo.Type{celgo.StringType}
	overloads := make([]celgo.FunctionOpt, 0, maxCallArity+1)
	for arity := 0; arity <= maxCallArity; arity++ {
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("call_string_dyn%d", arity),
			append([]*celgo.Type(nil), params...),
			celgo.DynType,
			celgo.FunctionBinding(e.callFunction),
		))
		params = append(params, celgo.DynType)
	}
	opts = append(opts, celgo.Function("call", overloads...))
	return celgo.NewEnv(opts...)
}

// callFunction adapts the function registry to CEL values. values[0] is the
// function name.
func (e *celEvaluator) callFunction(values ...ref.Val) ref.Val {
	name, ok := values[0].Value().(string)
	if !ok {
		return types.NewErr("props: call expects a function name, got %s", values[0].Type().TypeName())
	}
	args := make([]any, len(values)-1)
	for i, v := range values[1:] {
		args[i] = v.Value()
	}
	result, err := e.call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

type celRule struct {
	expression string
	program    celgo.Program
}

func (r *celRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	activation := ctx.binding()
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	activation["metadata"] = ctx.Metadata
	out, _, err := r.program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, r.expression, ctx.label(), err)
	}
	return out.Value(), nil
}
