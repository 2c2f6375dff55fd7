package xref

import (
	"errors"
	"time"
)

var errEmptyExpression = errors.New("expression must not be empty")

// EvalContext carries the inputs of an expression attached to a field.
type EvalContext struct {
	// Raw is the raw object that holds the field.
	Raw map[string]any
	// Value is the raw value of the field, nil when absent.
	Value any
	// Path is the conversion path of the field, e.g. "stages[0].timeout".
	Path string
	// Kind is the name of the struct type being converted.
	Kind     string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx EvalContext) withDefaults() EvalContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Raw == nil {
		ctx.Raw = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx EvalContext) timestamp() time.Time {
	if ctx.Now == nil {
		return time.Now()
	}
	return *ctx.Now
}

// bindings returns the variables visible to an expression. Fields of the raw
// object are exposed by name; the fixed bindings win on collision.
func (ctx EvalContext) bindings() map[string]any {
	env := make(map[string]any, len(ctx.Raw)+7)
	for key, value := range ctx.Raw {
		env[key] = value
	}
	env["raw"] = ctx.Raw
	env["value"] = ctx.Value
	env["path"] = ctx.Path
	env["kind"] = ctx.Kind
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	env["metadata"] = ctx.Metadata
	return env
}

// Evaluator executes expressions against an evaluation context.
type Evaluator interface {
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx EvalContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	rawKeys []string
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// CompileWithRawKeys declares raw field names ahead of evaluation. Engines
// that type check at compile time (CEL) need them.
func CompileWithRawKeys(keys ...string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.rawKeys = append(cfg.rawKeys, keys...)
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}
