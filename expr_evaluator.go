package xref

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// Names of the built-in evaluators.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// ExprEvaluatorOption configures the evaluator returned by NewExprEvaluator.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled programs through cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) { e.cache = cache }
}

// ExprWithFunctionRegistry exposes the functions of registry to expressions,
// both by name and through call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) { e.functions = registry.Clone() }
}

type exprEvaluator struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// NewExprEvaluator returns the default Evaluator, backed by expr-lang/expr.
// Undefined variables evaluate to nil so `value ?? 3` works on absent
// fields.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return e.run(program, expression, ctx.withDefaults())
}

func (e *exprEvaluator) engineName() string { return EngineExpr }

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return exprRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineExpr, errEmptyExpression)
	}
	key := EngineExpr + ":" + expression
	if e.cache != nil {
		if program, ok := e.cache.Get(key); ok {
			if program, ok := program.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	program, err := exprlang.Compile(expression, e.compileOptions()...)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *exprEvaluator) compileOptions() []exprlang.Option {
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.functions.Names() {
		options = append(options, exprlang.Function(name, func(args ...any) (any, error) {
			return e.functions.Call(name, args...)
		}))
	}
	return options
}

func (e *exprEvaluator) run(program *exprvm.Program, expression string, ctx EvalContext) (any, error) {
	env := ctx.bindings()
	if e.functions != nil {
		env["call"] = e.functions.Call
	}
	out, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, expression, ctx.Path, err)
	}
	return out, nil
}

type exprRule struct {
	evaluator  *exprEvaluator
	expression string
	program    *exprvm.Program
}

func (r exprRule) Evaluate(ctx EvalContext) (any, error) {
	return r.evaluator.run(r.program, r.expression, ctx.withDefaults())
}
