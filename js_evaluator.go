//go:build js_eval

package xref

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	settings jsSettings
}

// NewJSEvaluator returns an Evaluator backed by goja. Scripts are wrapped in
// a function expression so a bare expression yields its value, and every
// evaluation gets a fresh runtime.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	return &jsEvaluator{settings: newJSSettings(opts)}
}

func (e *jsEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return e.run(program, expression, ctx.withDefaults())
}

func (e *jsEvaluator) engineName() string { return EngineJS }

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return jsRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *jsEvaluator) program(expression string) (*goja.Program, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineJS, errEmptyExpression)
	}
	key := EngineJS + ":" + expression
	cache := e.settings.cache
	if cache != nil {
		if program, ok := cache.Get(key); ok {
			if program, ok := program.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", "(function(){ return ("+expression+"); })()", false)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, "", err)
	}
	if cache != nil {
		cache.Set(key, program)
	}
	return program, nil
}

func (e *jsEvaluator) run(program *goja.Program, expression string, ctx EvalContext) (any, error) {
	vm := goja.New()
	for name, value := range ctx.bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapEvaluationError(EngineJS, expression, ctx.Path, err)
		}
	}
	if err := e.bindFunctions(vm); err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, ctx.Path, err)
	}
	if d := e.settings.timeout; d > 0 {
		timer := time.AfterFunc(d, func() {
			vm.Interrupt(fmt.Sprintf("script exceeded %s", d))
		})
		defer timer.Stop()
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, expression, ctx.Path, err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) bindFunctions(vm *goja.Runtime) error {
	functions := e.settings.functions
	if functions == nil {
		return nil
	}
	if err := vm.Set("call", functions.Call); err != nil {
		return err
	}
	for _, name := range functions.Names() {
		if err := vm.Set(name, func(args ...any) (any, error) {
			return functions.Call(name, args...)
		}); err != nil {
			return err
		}
	}
	return nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r jsRule) Evaluate(ctx EvalContext) (any, error) {
	return r.evaluator.run(r.program, r.expression, ctx.withDefaults())
}
