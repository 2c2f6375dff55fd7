//go:build js_eval

package xref

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSEvaluatorBindingsAndCache(t *testing.T) {
	cache := NewMapProgramCache()
	evaluator := NewJSEvaluator(JSWithProgramCache(cache))

	got, err := evaluator.Evaluate(EvalContext{Value: 21, Raw: map[string]any{"name": "build"}}, "name + ':' + value * 2")
	require.NoError(t, err)
	assert.Equal(t, "build:42", got)

	rule, err := evaluator.Compile("value + 1")
	require.NoError(t, err)
	got, err = rule.Evaluate(EvalContext{Value: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, got)
	_, ok := cache.Get("js:value + 1")
	assert.True(t, ok)
}

func TestJSEvaluatorFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	require.NoError(t, registry.Register("Upper", func(args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}))
	evaluator := NewJSEvaluator(JSWithFunctionRegistry(registry))

	got, err := evaluator.Evaluate(EvalContext{}, "upper('a') + call('upper', 'b')")
	require.NoError(t, err)
	assert.Equal(t, "AB", got)
}

func TestJSEvaluatorErrorsAndTimeout(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))

	_, err := evaluator.Evaluate(EvalContext{}, "")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "xref: js evaluator"))

	_, err = evaluator.Evaluate(EvalContext{Path: "stages[0].timeout"}, "(() => { while (true) {} })()")
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "stages[0].timeout", evalErr.Path)
	assert.Contains(t, err.Error(), "exceeded")
}
