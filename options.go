package atoms

import (
	"log/slog"
	"time"
)

// WithName sets the store name. The name drives the generated export
// identifiers and is the key providers register under.
func WithName(name string) Option {
	return func(cfg *storeConfig) {
		cfg.name = name
	}
}

// WithDefaultDelay sets the delay trackers use to coalesce change
// notifications when a Use call does not supply one.
func WithDefaultDelay(delay time.Duration) Option {
	return func(cfg *storeConfig) {
		if delay > 0 {
			cfg.delay = delay
		}
	}
}

// WithEffect runs fn once for every provider mount.
func WithEffect(fn EffectFunc) Option {
	return func(cfg *storeConfig) {
		cfg.effect = fn
	}
}

// WithExtend adds keys produced by fn after the base keys are built.
// Extension keys are never hydrated by providers.
func WithExtend(fn ExtendFunc) Option {
	return func(cfg *storeConfig) {
		cfg.extend = fn
	}
}

// WithCollisionPolicy configures how extension keys that shadow base keys
// are handled. The default is CollisionReject.
func WithCollisionPolicy(policy CollisionPolicy) Option {
	return func(cfg *storeConfig) {
		cfg.collision = policy
	}
}

// WithLogger routes store diagnostics to logger instead of slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}

// WithEvaluator configures the evaluator used by computed atoms.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}
