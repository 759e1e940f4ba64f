package props

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ErrNoEvaluator reports a selection without a usable evaluator.
var ErrNoEvaluator = errors.New("props: evaluator not configured")

// Select refreshes every registered property and returns those for which
// expr evaluates to true. Expressions see the record as the variables
// address, setter, getter, class, id, type, kind, value, active and sets.
//
//	value > 0.5 && "presets" in sets
func (p *Properties) Select(ctx context.Context, expr string) ([]*Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	records := p.registry.Records()
	for _, rec := range records {
		if err := p.refresh(rec); err != nil {
			p.log.Debugf("selecting on stale %s: %v", rec.Key(), err)
		}
	}
	return p.match(ctx, expr, records)
}

// SaveWhere is SaveAs over the active properties matching expr.
func (p *Properties) SaveWhere(ctx context.Context, path, expr string) (Report, error) {
	p.mu.Lock()
	included, report := p.collect(p.registry.Records())
	matched, err := p.match(ctx, expr, included)
	if err != nil {
		p.mu.Unlock()
		return report, err
	}
	report.Ignored += len(included) - len(matched)
	report, err = p.compile(ctx, path, matched, report)
	p.mu.Unlock()
	if err != nil {
		return report, err
	}
	p.emitSaved(ctx, report, nil)
	return report, nil
}

// match evaluates expr once per record. A record whose evaluation fails is
// not matched; the failures are returned together only when nothing matched.
func (p *Properties) match(ctx context.Context, expr string, records []*Record) ([]*Record, error) {
	if expr == "" {
		return nil, fmt.Errorf("props: expression must not be empty")
	}
	evaluator, err := p.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := engineName(evaluator)
	rule, err := evaluator.Compile(expr)
	if err != nil {
		return nil, wrapEvaluationError(engine, expr, "", err)
	}
	now := time.Now()
	var (
		out  []*Record
		errs error
	)
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rc := RuleContext{Record: rec, Sets: p.registry.Sets(rec), Now: &now}
		start := time.Now()
		result, evalErr := rule.Evaluate(rc)
		evalErr = wrapEvaluationError(engine, expr, rc.label(), evalErr)
		matched := false
		if evalErr == nil {
			var ok bool
			if matched, ok = result.(bool); !ok {
				evalErr = wrapEvaluationError(engine, expr, rc.label(), fmt.Errorf("result %T is not a boolean", result))
			}
		}
		p.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     expr,
			Property: rc.label(),
			Matched:  matched,
			Duration: time.Since(start),
			Err:      evalErr,
		})
		if evalErr != nil {
			errs = multierr.Append(errs, evalErr)
			continue
		}
		if matched {
			out = append(out, rec)
		}
	}
	if len(out) == 0 && errs != nil {
		return nil, errs
	}
	return out, nil
}

func (p *Properties) resolveEvaluator() (Evaluator, error) {
	if p.cfg.evaluator != nil {
		return p.cfg.evaluator, nil
	}
	evaluator, err := NewEvaluator(p.cfg.engine,
		EngineCache(p.cfg.programCache),
		EngineFunctions(p.cfg.functions),
	)
	if err != nil {
		return nil, err
	}
	p.cfg.evaluator = evaluator
	return evaluator, nil
}

func (p *Properties) evaluatorLogger() EvaluatorLogger {
	if p.cfg.evaluatorLogger != nil {
		return p.cfg.evaluatorLogger
	}
	return LogEvaluations(p.log)
}
