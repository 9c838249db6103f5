package atoms

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrHelperExists is returned when a computed helper name is registered
	// twice, ignoring case.
	ErrHelperExists = errors.New("atoms: computed helper already registered")
	// ErrUnknownHelper is returned when an expression calls a helper that
	// was never registered.
	ErrUnknownHelper = errors.New("atoms: computed helper not registered")
)

// Function is a helper callable from computed atom expressions, e.g.
// double(age) or call('greet', [name]) in CEL.
type Function func(args ...any) (any, error)

// FunctionRegistry holds the helpers visible to computed atoms. Names are
// matched ignoring case and exposed to the evaluators in lower case.
type FunctionRegistry struct {
	mu      sync.RWMutex
	helpers map[string]Function
}

// NewFunctionRegistry returns an empty helper registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{helpers: make(map[string]Function)}
}

// Register adds a helper.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if name == "" {
		return errors.New("atoms: computed helper name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("atoms: computed helper %q is nil", name)
	}
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.helpers == nil {
		r.helpers = make(map[string]Function)
	}
	if _, exists := r.helpers[key]; exists {
		return fmt.Errorf("%w: %q", ErrHelperExists, name)
	}
	r.helpers[key] = fn
	return nil
}

// Has reports whether a helper is registered under name.
func (r *FunctionRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.helpers[strings.ToLower(name)]
	return ok
}

// Clone copies the registry so a store or computed atom keeps the helper set
// it was defined with.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{helpers: make(map[string]Function, len(r.helpers))}
	for name, fn := range r.helpers {
		clone.helpers[name] = fn
	}
	return clone
}

// Call runs the helper registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	var fn Function
	if r != nil {
		r.mu.RLock()
		fn = r.helpers[strings.ToLower(name)]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHelper, name)
	}
	return fn(args...)
}

// Names lists the helper names in lower case, sorted.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry exposes the helpers in registry to computed atoms. The
// registry is cloned, so later registrations do not leak into the store.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *storeConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers a single helper for computed atoms. A
// duplicate or invalid helper makes Define or Computed fail.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *storeConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.errs = append(cfg.errs, err)
		}
	}
}
