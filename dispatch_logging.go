package spectra

import "time"

// DispatchLogEvent describes one store dispatch.
type DispatchLogEvent struct {
	Kind  Kind
	Scope Scope
	// Changed is false when the action was a no-op.
	Changed bool
	// Recorded reports whether the history grew or moved.
	Recorded     bool
	HistoryLen   int
	HistoryIndex int
	Duration     time.Duration
	Condition    *Condition
	Err          error
}

// DispatchLogger records store dispatches.
type DispatchLogger interface {
	LogDispatch(DispatchLogEvent)
}

// DispatchLoggerFunc adapts a function to DispatchLogger.
type DispatchLoggerFunc func(DispatchLogEvent)

// LogDispatch implements DispatchLogger.
func (f DispatchLoggerFunc) LogDispatch(event DispatchLogEvent) {
	if f != nil {
		f(event)
	}
}

// DispatchLoggers fans a dispatch event out to several loggers.
type DispatchLoggers []DispatchLogger

// LogDispatch implements DispatchLogger.
func (l DispatchLoggers) LogDispatch(event DispatchLogEvent) {
	for _, logger := range l {
		if logger != nil {
			logger.LogDispatch(event)
		}
	}
}

type noopDispatchLogger struct{}

func (noopDispatchLogger) LogDispatch(DispatchLogEvent) {}

func dispatchLoggerOrNoop(logger DispatchLogger) DispatchLogger {
	if logger == nil {
		return noopDispatchLogger{}
	}
	return logger
}
