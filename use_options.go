package atoms

import (
	"time"

	"github.com/goliatone/go-atoms/reactive"
)

// UseOption configures a single Use call.
type UseOption interface {
	applyUseOption(*UseOptions)
}

// UseOptions is the resolved per-call configuration. It is itself a
// UseOption, so a literal can be passed to Use; non-zero fields override
// options applied before it.
type UseOptions struct {
	// Scope selects the nearest provider registered with this tag.
	Scope string
	// Store bypasses provider resolution entirely.
	Store *reactive.Container
	// Delay coalesces tracker notifications. Zero uses the store default.
	Delay time.Duration
	// SkipStoreWarning suppresses the missing provider warning.
	SkipStoreWarning bool
}

func (o UseOptions) applyUseOption(dst *UseOptions) {
	if o.Scope != "" {
		dst.Scope = o.Scope
	}
	if o.Store != nil {
		dst.Store = o.Store
	}
	if o.Delay > 0 {
		dst.Delay = o.Delay
	}
	if o.SkipStoreWarning {
		dst.SkipStoreWarning = true
	}
}

// ScopeTag is shorthand for UseOptions{Scope: string(tag)}.
type ScopeTag string

func (s ScopeTag) applyUseOption(dst *UseOptions) {
	dst.Scope = string(s)
}

type useOptionFunc func(*UseOptions)

func (f useOptionFunc) applyUseOption(dst *UseOptions) {
	if f != nil {
		f(dst)
	}
}

// WithScope resolves the nearest provider registered under scope, falling
// back to the nearest provider of the store.
func WithScope(scope string) UseOption {
	return ScopeTag(scope)
}

// WithStore targets c directly without searching providers.
func WithStore(c *reactive.Container) UseOption {
	return useOptionFunc(func(o *UseOptions) {
		o.Store = c
	})
}

// WithDelay coalesces tracker notifications for this call.
func WithDelay(delay time.Duration) UseOption {
	return useOptionFunc(func(o *UseOptions) {
		o.Delay = delay
	})
}

// WarnIfNoStore toggles the warning logged when no provider is found.
// Warnings are on by default.
func WarnIfNoStore(warn bool) UseOption {
	return useOptionFunc(func(o *UseOptions) {
		o.SkipStoreWarning = !warn
	})
}

func resolveUseOptions(opts []UseOption) UseOptions {
	out := UseOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyUseOption(&out)
		}
	}
	return out
}
