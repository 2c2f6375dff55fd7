package xref

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNoEvaluator   = errors.New("xref: evaluator not configured")
	ErrUnknownEngine = errors.New("xref: unknown evaluator engine")
)

// Evaluate runs expr with the Context's evaluator. The evaluation is logged
// against the innermost scope.
func (c *Context) Evaluate(ctx EvalContext, expr string) (any, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("xref: expression must not be empty")
	}
	evaluator, err := c.evaluator()
	if err != nil {
		return nil, err
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	evalErr = wrapEvaluationError(engine, expr, ctx.Path, evalErr)
	c.observe(Event{
		Op:       OpEvaluate,
		Kind:     c.layers[len(c.layers)-1].key,
		Engine:   engine,
		Expr:     expr,
		Depth:    c.Depth(),
		Duration: time.Since(start),
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

// evaluator returns the configured evaluator, building the engine selected by
// WithEngine on first use. Expr is the default engine.
func (c *Context) evaluator() (Evaluator, error) {
	if c.cfg.evaluator != nil {
		return c.cfg.evaluator, nil
	}
	if err := errors.Join(c.cfg.optionErrs...); err != nil {
		return nil, err
	}
	evaluator, err := newEngineEvaluator(c.cfg.engine, c.cfg.programCache, c.cfg.functions)
	if err != nil {
		return nil, err
	}
	c.cfg.evaluator = evaluator
	return evaluator, nil
}

func newEngineEvaluator(engine string, cache ProgramCache, registry *FunctionRegistry) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(registry)), nil
	case EngineCEL:
		return NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(registry)), nil
	case EngineJS:
		evaluator := NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(registry))
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js requires the js_eval build tag", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEngine, engine)
	}
}

// engineNamer is implemented by the built-in evaluators.
type engineNamer interface {
	engineName() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.engineName()
	}
	return "custom"
}
