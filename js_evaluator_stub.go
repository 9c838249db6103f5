//go:build !js_eval

package atoms

// NewJSEvaluator is unavailable without the js_eval build tag and returns
// nil; computed atoms built with a nil evaluator fall back to expr.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	_ = applyEvaluatorOptions(opts)
	return nil
}

func jsEvaluatorAvailable() bool {
	return false
}
