package props

import "time"

// RuleContext carries the record an expression is evaluated against.
type RuleContext struct {
	Record   *Record
	Sets     []string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

// Evaluator compiles and runs selection expressions. Select compiles once
// and evaluates the rule against every record.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a compiled expression.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// ProgramCache stores compiled programs. Built-in engines key entries as
// "engine:expression".
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// bindingNames lists the variables every evaluator exposes for a record.
var bindingNames = []string{"address", "setter", "getter", "class", "id", "type", "kind", "value", "active", "sets"}

// withDefaults fills the optional fields so engines never see nil maps.
func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	if ctx.Sets == nil {
		ctx.Sets = []string{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

func (ctx RuleContext) label() string {
	if ctx.Record == nil {
		return "unknown"
	}
	return ctx.Record.Key().String()
}

// binding flattens the record into the variables named by bindingNames.
func (ctx RuleContext) binding() map[string]any {
	out := map[string]any{
		"address": "",
		"setter":  "",
		"getter":  "",
		"class":   "",
		"id":      int64(0),
		"type":    "",
		"kind":    KindInvalid.String(),
		"value":   nil,
		"active":  false,
		"sets":    ctx.Sets,
	}
	rec := ctx.Record
	if rec == nil {
		return out
	}
	v := rec.Value()
	t := rec.Type()
	if t.Kind == KindInvalid {
		t = v.Type()
	}
	out["address"] = rec.Address()
	out["setter"] = rec.Setter()
	out["getter"] = rec.Getter()
	out["class"] = rec.Class()
	out["id"] = int64(rec.ID())
	out["type"] = t.Token()
	out["kind"] = t.Kind.String()
	out["value"] = v.Native()
	out["active"] = rec.Active()
	return out
}
