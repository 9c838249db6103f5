package atoms

import (
	"context"
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Key      string
	Scope    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogEvaluatorLogger reports failed evaluations at warn level and
// successful ones at debug level.
func SlogEvaluatorLogger(logger *slog.Logger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		attrs := []slog.Attr{
			slog.String("engine", event.Engine),
			slog.String("expr", event.Expr),
			slog.String("key", event.Key),
			slog.String("scope", event.Scope),
			slog.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			attrs = append(attrs, slog.Any("error", event.Err))
			logger.LogAttrs(context.Background(), slog.LevelWarn, "atoms: computed evaluation failed", attrs...)
			return
		}
		logger.LogAttrs(context.Background(), slog.LevelDebug, "atoms: computed evaluated", attrs...)
	})
}

// WithEvaluatorLogger attaches an evaluator logger to computed atoms. A nil
// logger silences evaluation logging even when WithLogger is set.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.evalLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}
