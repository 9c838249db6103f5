//go:build js_eval

package atoms

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs expressions in a fresh goja runtime per evaluation.
type jsEvaluator struct {
	evaluatorConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	return &jsEvaluator{evaluatorConfig: applyEvaluatorOptions(opts)}
}

func (e *jsEvaluator) engineName() string {
	return "js"
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("js", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledRule{
		evaluator:  e,
		expression: expression,
		program:    program,
	}, nil
}

func (e *jsEvaluator) loadOrCompile(expression string) (*goja.Program, error) {
	key := cacheKey("js", expression, nil)
	if cached, ok := e.cached(key); ok {
		if program, ok := cached.(*goja.Program); ok {
			return program, nil
		}
	}
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, wrapEvaluationError("js", expression, "", err)
	}
	e.store(key, program)
	return program, nil
}

func (e *jsEvaluator) run(ctx RuleContext, program *goja.Program) (any, error) {
	vm := goja.New()
	if err := e.inject(vm, ctx); err != nil {
		return nil, err
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func (e *jsEvaluator) inject(vm *goja.Runtime, ctx RuleContext) error {
	bindings := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"scope":    ctx.ScopeName,
	}
	for key, value := range snapshotAsMap(ctx.Snapshot) {
		bindings[key] = value
	}
	if e.registry != nil {
		bindings["call"] = e.call
		for _, name := range e.registry.Names() {
			fn := name
			bindings[fn] = func(arguments ...any) (any, error) {
				return e.call(fn, arguments...)
			}
		}
	}
	for key, value := range bindings {
		if err := vm.Set(key, value); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	value, err := r.evaluator.run(ctx, r.program)
	if err != nil {
		return nil, wrapEvaluationError("js", r.expression, ctx.scopeLabel(), err)
	}
	return value, nil
}

func jsEvaluatorAvailable() bool {
	return true
}
