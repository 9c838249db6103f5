package atoms

import (
	"fmt"

	"github.com/goliatone/go-atoms/reactive"
)

// ComputedOption configures a single computed atom.
type ComputedOption func(*computedConfig)

type computedConfig struct {
	key      string
	args     map[string]any
	metadata map[string]any
	fallback any
}

// ComputedKey names the computed atom in logs, errors and its label.
func ComputedKey(key string) ComputedOption {
	return func(cfg *computedConfig) {
		cfg.key = key
	}
}

// ComputedArgs binds args as the expression's args variable.
func ComputedArgs(args map[string]any) ComputedOption {
	return func(cfg *computedConfig) {
		cfg.args = copyMap(args)
	}
}

// ComputedMetadata binds metadata as the expression's metadata variable.
func ComputedMetadata(metadata map[string]any) ComputedOption {
	return func(cfg *computedConfig) {
		cfg.metadata = copyMap(metadata)
	}
}

// ComputedFallback is the value reported when the first evaluation in a
// container fails.
func ComputedFallback(value any) ComputedOption {
	return func(cfg *computedConfig) {
		cfg.fallback = value
	}
}

// Computed builds a read-only derived atom whose value is expression
// evaluated over deps. Each dependency is bound under its map key. The
// expression is compiled immediately, so syntax errors surface here.
//
// When an evaluation fails the atom keeps its previous value in that
// container (or the fallback on first read) and the failure is reported to
// the evaluator logger.
func Computed(expression string, deps Atoms, opts ...Option) (reactive.Atom, error) {
	cfg := applyOptions(opts)
	if err := cfg.err(); err != nil {
		return nil, err
	}
	return newComputed(cfg, expression, deps)
}

// MustComputed is Computed that panics on error.
func MustComputed(expression string, deps Atoms, opts ...Option) reactive.Atom {
	atom, err := Computed(expression, deps, opts...)
	if err != nil {
		panic(err)
	}
	return atom
}

// WithComputed appends per-atom options to a Computed call.
func WithComputed(opts ...ComputedOption) Option {
	return func(cfg *storeConfig) {
		cfg.computed = append(cfg.computed, opts...)
	}
}

func newComputed(cfg storeConfig, expression string, deps Atoms) (reactive.Atom, error) {
	cc := computedConfig{}
	for _, opt := range cfg.computed {
		if opt != nil {
			opt(&cc)
		}
	}
	if cc.key == "" {
		cc.key = expression
	}

	names := deps.Keys()
	for _, name := range names {
		if _, ok := reactive.AsAtom(deps[name]); !ok {
			return nil, fmt.Errorf("atoms: computed %q: dependency %q is not an atom", cc.key, name)
		}
	}
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	rule, err := evaluator.Compile(expression, WithVariables(names...))
	if err != nil {
		evalErr := wrapEvaluationError(engine, expression, "", err)
		if e, ok := evalErr.(*EvaluationError); ok && e.Key == "" {
			e.Key = cc.key
		}
		return nil, evalErr
	}
	logger := cfg.evaluatorLogger()
	pinned := copyAtoms(deps)

	read := func(get reactive.Getter) any {
		snapshot := make(map[string]any, len(names))
		for _, name := range names {
			snapshot[name] = get.Get(pinned[name])
		}
		value, err := evaluateRule(rule, RuleContext{
			Snapshot: snapshot,
			Args:     copyMap(cc.args),
			Metadata: copyMap(cc.metadata),
		}, logger, engine, expression, cc.key)
		if err != nil {
			if prev, ok := get.Previous(); ok {
				return prev
			}
			return cc.fallback
		}
		return value
	}

	return reactive.NewDerived(read,
		reactive.WithLabel(cc.key),
		reactive.WithTags(map[string]any{
			"computed": true,
			"engine":   engine,
			"expr":     expression,
		}),
	), nil
}

func copyAtoms(src Atoms) Atoms {
	dst := make(Atoms, len(src))
	for key, atom := range src {
		dst[key] = atom
	}
	return dst
}

func copyMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
