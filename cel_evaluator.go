package atoms

import (
	"fmt"
	"reflect"
	"sort"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

type celProgram struct {
	program   celgo.Program
	variables map[string]struct{}
}

// celEvaluator type-checks expressions with github.com/google/cel-go. Every
// snapshot key is declared as a dynamically typed variable, so a program
// compiled for one set of keys is reused only for that same set.
type celEvaluator struct {
	evaluatorConfig
}

// NewCELEvaluator constructs an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...EvaluatorOption) Evaluator {
	return &celEvaluator{evaluatorConfig: applyEvaluatorOptions(opts)}
}

func (e *celEvaluator) engineName() string {
	return "cel"
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	snapshot := snapshotAsMap(ctx.Snapshot)
	program, err := e.loadOrCompile(expression, variableNames(snapshot))
	if err != nil {
		return nil, err
	}
	return e.run(program, ctx, expression, snapshot)
}

// Compile checks expression eagerly when variables are declared through
// WithVariables; otherwise compilation is deferred to the first evaluation,
// when the snapshot keys are known.
func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	cfg := applyCompileOptions(opts)
	rule := &celCompiledRule{evaluator: e, expression: expression}
	if len(cfg.variables) > 0 {
		program, err := e.loadOrCompile(expression, cfg.variables)
		if err != nil {
			return nil, err
		}
		rule.program = program
	}
	return rule, nil
}

func (e *celEvaluator) loadOrCompile(expression string, variables []string) (*celProgram, error) {
	key := cacheKey("cel", expression, variables)
	if cached, ok := e.cached(key); ok {
		if program, ok := cached.(*celProgram); ok {
			return program, nil
		}
	}

	env, err := e.buildEnv(variables)
	if err != nil {
		return nil, wrapEvaluatorError("cel", err)
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError("cel", expression, "", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, "", err)
	}

	declared := make(map[string]struct{}, len(variables))
	for _, name := range variables {
		declared[name] = struct{}{}
	}
	bundle := &celProgram{program: prg, variables: declared}
	e.store(key, bundle)
	return bundle, nil
}

func (e *celEvaluator) buildEnv(variables []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("metadata", celgo.DynType),
		celgo.Variable("scope", celgo.StringType),
	}
	if e.registry != nil {
		opts = append(opts, e.callOverloads())
	}
	for _, name := range variables {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) run(program *celProgram, ctx RuleContext, expression string, snapshot map[string]any) (any, error) {
	activation := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"scope":    ctx.ScopeName,
	}
	for key, value := range snapshot {
		if _, ok := program.variables[key]; ok {
			activation[key] = value
		}
	}
	out, _, err := program.program.Eval(activation)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx.scopeLabel(), err)
	}
	return out.Value(), nil
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	program    *celProgram
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.program == nil {
		return r.evaluator.Evaluate(ctx, r.expression)
	}
	ctx = ctx.withDefaults()
	return r.evaluator.run(r.program, ctx, r.expression, snapshotAsMap(ctx.Snapshot))
}

func variableNames(snapshot map[string]any) []string {
	names := make([]string, 0, len(snapshot))
	for key := range snapshot {
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

// callOverloads binds call(name) and call(name, [args...]). CEL has no
// variadic functions, so arguments travel as a list.
func (e *celEvaluator) callOverloads() celgo.EnvOption {
	return celgo.Function("call",
		celgo.Overload("call_string",
			[]*celgo.Type{celgo.StringType},
			celgo.DynType,
			celgo.UnaryBinding(func(name ref.Val) ref.Val {
				return e.invoke(name, nil)
			}),
		),
		celgo.Overload("call_string_list",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.BinaryBinding(func(name, list ref.Val) ref.Val {
				native, err := list.ConvertToNative(reflect.TypeOf([]any{}))
				if err != nil {
					return types.NewErr("atoms: call arguments: %v", err)
				}
				args, _ := native.([]any)
				return e.invoke(name, args)
			}),
		),
	)
}

func (e *celEvaluator) invoke(name ref.Val, args []any) ref.Val {
	fn, ok := name.Value().(string)
	if !ok {
		return types.NewErr("atoms: call name must be string")
	}
	result, err := e.call(fn, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}
