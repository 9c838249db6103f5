package atoms

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator executes expressions using github.com/expr-lang/expr.
// Snapshot keys are top-level variables; now, args and metadata are always
// bound.
type exprEvaluator struct {
	evaluatorConfig
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr. It is
// the default engine for computed atoms.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	return &exprEvaluator{evaluatorConfig: applyEvaluatorOptions(opts)}
}

func (e *exprEvaluator) engineName() string {
	return "expr"
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{
		evaluator:  e,
		program:    program,
		expression: expression,
	}, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	key := cacheKey("expr", expression, nil)
	if cached, ok := e.cached(key); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return program, nil
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registry.Names() {
		fn := name
		options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
			return e.call(fn, arguments...)
		}))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, "", err)
	}
	e.store(key, program)
	return program, nil
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(r.program, r.evaluator.environment(ctx))
	if err != nil {
		return nil, wrapEvaluationError("expr", r.expression, ctx.scopeLabel(), err)
	}
	return result, nil
}

func (e *exprEvaluator) environment(ctx RuleContext) map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	if ctx.ScopeName != "" {
		env["scope"] = ctx.ScopeName
	}
	for key, value := range snapshotAsMap(ctx.Snapshot) {
		env[key] = value
	}
	if e.registry != nil {
		env["call"] = e.call
	}
	return env
}
