//go:build !js_eval

package rules

// NewJSEvaluator is unavailable without the js_eval build tag.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

// JSAvailable reports whether the goja-backed evaluator was compiled in.
func JSAvailable() bool {
	return false
}

func jsEngineName(Evaluator) string {
	return ""
}
