package xref

import "time"

// JSEvaluatorOption configures the evaluator returned by NewJSEvaluator.
type JSEvaluatorOption func(*jsSettings)

type jsSettings struct {
	cache     ProgramCache
	functions *FunctionRegistry
	timeout   time.Duration
}

func newJSSettings(opts []JSEvaluatorOption) jsSettings {
	var s jsSettings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// JSWithProgramCache shares compiled goja programs through cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(s *jsSettings) { s.cache = cache }
}

// JSWithFunctionRegistry exposes the functions of registry to scripts, both
// by name and through call(name, args...).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(s *jsSettings) { s.functions = registry.Clone() }
}

// JSWithTimeout interrupts scripts that run longer than d. Zero disables the
// limit.
func JSWithTimeout(d time.Duration) JSEvaluatorOption {
	return func(s *jsSettings) { s.timeout = d }
}
