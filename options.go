package xref

import (
	"context"

	"github.com/goliatone/go-xref/pkg/activity"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultTagName = "xref"

// Option configures a Context.
type Option func(*config)

type config struct {
	logger          Logger
	logLevel        *zerolog.Level
	evaluator       Evaluator
	engine          string
	programCache    ProgramCache
	functions       *FunctionRegistry
	activityHooks   activity.Hooks
	activityConfig  activity.Config
	emitter         *activity.Emitter
	baseContext     context.Context
	runID           string
	actorID         string
	kinds           []Key
	tagName         string
	disallowUnknown bool
	optionErrs      []error
}

func applyOptions(opts []Option) config {
	cfg := config{activityConfig: activity.Config{Enabled: true}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	if cfg.tagName == "" {
		cfg.tagName = defaultTagName
	}
	if cfg.baseContext == nil {
		cfg.baseContext = context.Background()
	}
	applyLogLevel(&cfg)
	cfg.emitter = activity.NewEmitter(cfg.activityHooks, cfg.activityConfig)
	return cfg
}

// RunID identifies the conversion run in logs and activity events.
func (c *Context) RunID() string {
	return c.cfg.runID
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(cfg *config) {
		cfg.runID = id
	}
}

// WithActor sets the actor reported on activity events.
func WithActor(id string) Option {
	return func(cfg *config) {
		cfg.actorID = id
	}
}

// WithBaseContext sets the context.Context handed to activity hooks.
func WithBaseContext(ctx context.Context) Option {
	return func(cfg *config) {
		cfg.baseContext = ctx
	}
}

// WithKinds registers kinds that import tags may name in addition to the
// ones reachable from the converted type.
func WithKinds(kinds ...Key) Option {
	return func(cfg *config) {
		cfg.kinds = append(cfg.kinds, kinds...)
	}
}

// WithTagName changes the struct tag read by the converter.
func WithTagName(name string) Option {
	return func(cfg *config) {
		cfg.tagName = name
	}
}

// WithDisallowUnknownFields makes raw keys without a matching field an error.
func WithDisallowUnknownFields(disallow bool) Option {
	return func(cfg *config) {
		cfg.disallowUnknown = disallow
	}
}

// WithEvaluator configures the evaluator used for expression fields.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithEngine selects a built-in evaluator by name: expr, cel or js.
func WithEngine(engine string) Option {
	return func(cfg *config) {
		cfg.engine = engine
	}
}

// WithProgramCache registers a program cache shared by the built-in
// evaluators.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.programCache = cache
	}
}

// WithActivityHooks attaches activity hooks to the Context. Nil entries are
// dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityConfig controls whether and on which channel activity is
// emitted.
func WithActivityConfig(activityConfig activity.Config) Option {
	return func(cfg *config) {
		cfg.activityConfig = activityConfig
	}
}
