package props

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-props/log"
)

// EvaluationError reports a selection expression that failed to compile or
// to run against a property.
type EvaluationError struct {
	Engine string
	Expr   string
	// Property is the label of the record being evaluated. It is empty for
	// compile errors.
	Property string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "props: %s evaluator", e.Engine)
	if e.Expr == "" {
		b.WriteString(" expr=<empty>")
	} else {
		fmt.Fprintf(&b, " expr=%q", e.Expr)
	}
	if e.Property != "" {
		fmt.Fprintf(&b, " property=%s", e.Property)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// fill sets the fields that are still empty.
func (e *EvaluationError) fill(engine, expr, property string) {
	if e.Engine == "" {
		e.Engine = engine
	}
	if e.Expr == "" {
		e.Expr = expr
	}
	if e.Property == "" {
		e.Property = property
	}
}

// wrapEvaluatorError tags an engine setup failure with the engine name.
func wrapEvaluatorError(engine string, err error) error {
	var evalErr *EvaluationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &evalErr), strings.HasPrefix(err.Error(), "props:"):
		return err
	}
	return fmt.Errorf("props: %s evaluator: %w", engine, err)
}

// wrapEvaluationError returns err as an *EvaluationError carrying the
// expression and property it was raised for.
func wrapEvaluationError(engine, expr, property string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		evalErr = &EvaluationError{Err: err}
	}
	evalErr.fill(engine, expr, property)
	return evalErr
}

// EvaluatorLogEvent describes one expression run against one property.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Property string
	Matched  bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger receives an event for every record Select evaluates.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

// LogEvaluations writes evaluation events to logger: failures as warnings,
// everything else at debug level.
func LogEvaluations(logger log.Logger) EvaluatorLogger {
	if logger == nil {
		logger = log.DiscardLogger
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		if event.Err != nil {
			logger.Warnf("select %s %q on %s failed: %v", event.Engine, event.Expr, event.Property, event.Err)
			return
		}
		logger.Debugf("select %s %q on %s matched=%t in %s", event.Engine, event.Expr, event.Property, event.Matched, event.Duration)
	})
}

// WithEvaluatorLogger routes evaluation events to logger instead of the
// Properties logger.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *config) {
		cfg.evaluatorLogger = logger
	}
}
