// Package zaplog writes engine and store events to a zap logger.
package zaplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	spectra "github.com/goliatone/go-spectra"
)

// Logger implements spectra.DispatchLogger and spectra.EvaluatorLogger.
type Logger struct {
	logger *zap.Logger
	// NoopLevel is the level of dispatches that changed nothing.
	NoopLevel zapcore.Level
}

// New wraps logger. A nil logger discards everything.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("spectra"), NoopLevel: zapcore.DebugLevel}
}

// LogDispatch implements spectra.DispatchLogger.
func (l *Logger) LogDispatch(event spectra.DispatchLogEvent) {
	fields := []zap.Field{
		zap.String("kind", string(event.Kind)),
		zap.String("scope", string(event.Scope)),
		zap.Bool("changed", event.Changed),
		zap.Bool("recorded", event.Recorded),
		zap.Int("history_len", event.HistoryLen),
		zap.Int("history_index", event.HistoryIndex),
		zap.Duration("duration", event.Duration),
	}
	if event.Condition != nil {
		fields = append(fields,
			zap.String("condition", string(event.Condition.Kind)),
			zap.Strings("atoms", event.Condition.Atoms),
		)
	}

	switch {
	case event.Err != nil:
		l.logger.Warn("dispatch side effects failed", append(fields, zap.Error(event.Err))...)
	case !event.Changed:
		l.logger.Check(l.NoopLevel, "dispatch unchanged").Write(fields...)
	case event.Condition != nil:
		l.logger.Info("dispatch declined", fields...)
	default:
		l.logger.Debug("dispatch", fields...)
	}
}

// LogEvaluation implements spectra.EvaluatorLogger. Compile failures are
// errors; a rule failing against one spectrum only makes its filter
// inapplicable and is logged as a warning.
func (l *Logger) LogEvaluation(event spectra.EvaluatorLogEvent) {
	fields := []zap.Field{
		zap.String("engine", event.Engine),
		zap.String("filter", event.Filter),
		zap.String("expr", event.Expr),
		zap.String("phase", string(event.Phase)),
		zap.Duration("duration", event.Duration),
	}
	if event.Phase == spectra.PhaseEvaluate {
		fields = append(fields, zap.String("spectrum", event.SpectrumID), zap.Bool("result", event.Result))
	}
	switch {
	case event.Err != nil && event.Phase == spectra.PhaseEvaluate:
		l.logger.Warn("rule evaluation failed", append(fields, zap.Error(event.Err))...)
	case event.Err != nil:
		l.logger.Error("rule compilation failed", append(fields, zap.Error(event.Err))...)
	default:
		l.logger.Debug("rule "+string(event.Phase), fields...)
	}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.logger.Sync()
}
