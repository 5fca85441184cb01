package spectra

import "time"

// EvaluatorLogEvent describes one compilation or evaluation of a filter
// rule.
type EvaluatorLogEvent struct {
	Engine     string
	Filter     string
	Expr       string
	Phase      RulePhase
	SpectrumID string
	// Result is the rule outcome, only meaningful in the evaluate phase
	// without Err.
	Result   bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records rule compilations and evaluations.
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

func evaluatorLoggerOrNoop(logger EvaluatorLogger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return logger
}
