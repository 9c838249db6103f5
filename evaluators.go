package atoms

import (
	"sort"
	"strings"
)

// EvaluatorOption configures the built-in evaluators.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// EvaluatorWithProgramCache stores compiled programs in cache. A cache may be
// shared across engines; keys are namespaced per engine.
func EvaluatorWithProgramCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// EvaluatorWithFunctionRegistry exposes the functions in registry to
// expressions, both by name and through call(name, args...).
func EvaluatorWithFunctionRegistry(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyEvaluatorOptions(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg evaluatorConfig) cached(key string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(key)
}

func (cfg evaluatorConfig) store(key string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(key, program)
	}
}

func (cfg evaluatorConfig) call(name string, arguments ...any) (any, error) {
	return cfg.registry.Call(name, arguments...)
}

type engineNamer interface {
	engineName() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.engineName()
	}
	return "custom"
}

func cacheKey(engine, expression string, variables []string) string {
	if len(variables) == 0 {
		return engine + ":" + expression
	}
	vars := append([]string(nil), variables...)
	sort.Strings(vars)
	return engine + ":" + strings.Join(vars, ",") + ":" + expression
}

func snapshotAsMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}
