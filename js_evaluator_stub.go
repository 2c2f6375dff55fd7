//go:build !js_eval

package xref

// NewJSEvaluator returns nil unless the module is built with the js_eval tag.
func NewJSEvaluator(...JSEvaluatorOption) Evaluator {
	return nil
}
