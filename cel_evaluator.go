package xref

import (
	"fmt"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

var celFixedBindings = []string{"raw", "value", "path", "kind", "now", "args", "metadata"}

var celReservedWords = map[string]struct{}{
	"as": {}, "break": {}, "const": {}, "continue": {}, "else": {}, "false": {},
	"for": {}, "function": {}, "if": {}, "import": {}, "in": {}, "let": {},
	"loop": {}, "namespace": {}, "null": {}, "package": {}, "return": {},
	"true": {}, "var": {}, "void": {}, "while": {},
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Raw field names
// that are not valid CEL identifiers are reachable through raw only.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, errEmptyExpression)
	}
	ctx = ctx.withDefaults()
	program, err := e.loadOrCompile(expression, rawIdentifiers(mapKeys(ctx.Raw)))
	if err != nil {
		return nil, err
	}
	return e.run(program, expression, ctx)
}

func (e *celEvaluator) engineName() string { return EngineCEL }

func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(EngineCEL, errEmptyExpression)
	}
	cfg := applyCompileOptions(opts)
	keys := rawIdentifiers(cfg.rawKeys)
	program, err := e.loadOrCompile(expression, keys)
	if err != nil {
		return nil, err
	}
	return &celCompiledRule{evaluator: e, expression: expression, keys: keys, program: program}, nil
}

// loadOrCompile type checks expression against the declared raw keys. The
// cache key includes the keys because the checked program depends on them.
func (e *celEvaluator) loadOrCompile(expression string, keys []string) (celgo.Program, error) {
	cacheKey := EngineCEL + ":" + strings.Join(keys, ",") + ":" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(cacheKey); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(keys)
	if err != nil {
		return nil, wrapEvaluatorError(EngineCEL, err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", issues.Err())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(cacheKey, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv(keys []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("raw", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("value", celgo.DynType),
		celgo.Variable("path", celgo.StringType),
		celgo.Variable("kind", celgo.StringType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function("call", celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding()),
		)))
	}
	for _, key := range keys {
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) run(program celgo.Program, expression string, ctx EvalContext) (any, error) {
	out, _, err := program.Eval(ctx.bindings())
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, expression, ctx.Path, err)
	}
	return out.Value(), nil
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	keys       []string
	program    celgo.Program
}

func (r *celCompiledRule) Evaluate(ctx EvalContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError(EngineCEL, fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.run(r.program, r.expression, ctx.withDefaults())
}

// callBinding backs call(name, [args...]).
func (e *celEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if len(values) != 2 {
			return types.NewErr("xref: call requires a function name and an argument list")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("xref: call name must be string")
		}
		var args []any
		if list, ok := values[1].(traits.Lister); ok {
			size, _ := list.Size().Value().(int64)
			for i := int64(0); i < size; i++ {
				args = append(args, list.Get(types.Int(i)).Value())
			}
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

func rawIdentifiers(keys []string) []string {
	reserved := make(map[string]struct{}, len(celFixedBindings))
	for _, name := range celFixedBindings {
		reserved[name] = struct{}{}
	}
	out := make([]string, 0, len(keys))
	seen := map[string]struct{}{}
	for _, key := range keys {
		if _, ok := reserved[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok || !isIdentifier(key) {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	if _, reserved := celReservedWords[name]; reserved {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	return keys
}
