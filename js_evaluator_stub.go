//go:build !js_eval

package props

import "fmt"

func newJSEvaluator(engineConfig) (Evaluator, error) {
	return nil, fmt.Errorf("%w: the js engine needs the js_eval build tag", ErrNoEvaluator)
}
