package atoms

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/goliatone/go-atoms/pkg/activity"
	"github.com/goliatone/go-atoms/reactive"
)

// Atoms maps store keys to their atoms.
type Atoms map[string]reactive.Atom

// Keys returns the keys of a sorted alphabetically.
func (a Atoms) Keys() []string {
	keys := make([]string, 0, len(a))
	for key := range a {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// RuleContext carries inputs needed when evaluating an expression.
// Snapshot holds the current values of the atoms a computed atom reads,
// keyed by the names the expression uses.
type RuleContext struct {
	Snapshot  any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	ScopeName string
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) scopeLabel() string {
	if ctx.ScopeName != "" {
		return ctx.ScopeName
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	variables []string
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// WithVariables declares the snapshot keys an expression may reference, so
// type-checked engines can compile before any value is available.
func WithVariables(names ...string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.variables = append(cfg.variables, names...)
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

// EffectFunc runs once per provider mount with the mounted context and a
// facade bound to the mounted container. The returned cleanup, if any, runs
// on unmount.
type EffectFunc func(ctx context.Context, f *Facade) (cleanup func())

// ExtendFunc contributes extra keys, typically derived atoms, on top of the
// base keys.
type ExtendFunc func(x *Extension) (Atoms, error)

// CollisionPolicy decides what happens when an extension returns a key that
// already exists in the base keys.
type CollisionPolicy int

const (
	// CollisionReject fails Define with ErrExtendCollision.
	CollisionReject CollisionPolicy = iota
	// CollisionOverride replaces the base atom with the extension atom.
	CollisionOverride
)

func (p CollisionPolicy) String() string {
	switch p {
	case CollisionOverride:
		return "override"
	default:
		return "reject"
	}
}

// Option configures a store definition or a computed atom.
type Option func(*storeConfig)

type storeConfig struct {
	name      string
	delay     time.Duration
	effect    EffectFunc
	extend    ExtendFunc
	collision CollisionPolicy
	logger    *slog.Logger
	hooks     activity.Hooks
	channel   string

	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	evalLogger   EvaluatorLogger
	computed     []ComputedOption

	errs []error
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// err reports option failures collected while applying options.
func (cfg storeConfig) err() error {
	return errors.Join(cfg.errs...)
}

func (cfg storeConfig) log() *slog.Logger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return slog.Default()
}

func (cfg storeConfig) evaluatorLogger() EvaluatorLogger {
	if cfg.evalLogger != nil {
		return cfg.evalLogger
	}
	if cfg.logger != nil {
		return SlogEvaluatorLogger(cfg.logger)
	}
	return noopEvaluatorLogger{}
}
