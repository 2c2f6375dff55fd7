package xref

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrFunctionNotRegistered is returned when an expression calls a function
// that was never registered.
var ErrFunctionNotRegistered = errors.New("xref: function not registered")

// Function is a callable exposed to expressions by name.
type Function func(args ...any) (any, error)

// FunctionRegistry stores expression functions keyed by case-insensitive name.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// Register stores fn under name. Names are unique ignoring case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("xref: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("xref: function %q is nil", name)
	}
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("xref: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

// Has reports whether name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.functions[strings.ToLower(name)]
	return ok
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	functions := maps.Clone(r.functions)
	if functions == nil {
		functions = make(map[string]Function)
	}
	return &FunctionRegistry{functions: functions}
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.functions[strings.ToLower(name)]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotRegistered, name)
	}
	return fn(args...)
}

// Names returns the lowercased names of the registered functions in order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.functions))
}

// WithFunctionRegistry exposes the functions of registry to expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for expressions evaluated by the
// Context. Registration errors surface on the first expression evaluation.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.optionErrs = append(cfg.optionErrs, err)
		}
	}
}
