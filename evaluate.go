package atoms

import "time"

// resolveEvaluator returns the configured evaluator, or an expr evaluator
// wired to the configured cache and functions.
func (cfg storeConfig) resolveEvaluator() (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	var opts []EvaluatorOption
	if cfg.programCache != nil {
		opts = append(opts, EvaluatorWithProgramCache(cfg.programCache))
	}
	if cfg.functions != nil {
		opts = append(opts, EvaluatorWithFunctionRegistry(cfg.functions))
	}
	evaluator := NewExprEvaluator(opts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return evaluator, nil
}

// evaluateRule runs rule and reports the attempt to logger.
func evaluateRule(rule CompiledRule, ctx RuleContext, logger EvaluatorLogger, engine, expr, key string) (any, error) {
	ctx = ctx.withDefaults()
	start := time.Now()
	value, err := rule.Evaluate(ctx)
	duration := time.Since(start)
	err = wrapEvaluationError(engine, expr, ctx.ScopeName, err)
	if evalErr, ok := err.(*EvaluationError); ok && evalErr.Key == "" {
		evalErr.Key = key
	}
	logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Key:      key,
		Scope:    ctx.scopeLabel(),
		Duration: duration,
		Err:      err,
	})
	return value, err
}
