package spectra

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoEvaluator    = errors.New("spectra: evaluator not configured")
	ErrRuleNotBoolean = errors.New("spectra: rule did not return a boolean")
	ErrFilterNotFound = errors.New("spectra: filter not registered")
)

var spectrumBindingKey = []string{"info", "dimension", "nucleus", "isFid", "isFt", "isComplex", "frequency", "filters", "size"}

// SpectrumBinding exposes a spectrum to applicability rules. Rules see the
// spectrum as it is at that point of the pipeline.
func SpectrumBinding(sp *Spectrum) map[string]any {
	if sp == nil {
		return map[string]any{}
	}
	applied := make([]any, 0, len(sp.Filters))
	for _, entry := range sp.Filters {
		if entry.Enabled && entry.Error == nil {
			applied = append(applied, entry.Name)
		}
	}
	nucleus := make([]any, 0, len(sp.Info.Nucleus))
	for _, n := range sp.Info.Nucleus {
		nucleus = append(nucleus, n)
	}
	size := sp.Data.Len()
	if sp.Data.Matrix != nil {
		size = len(sp.Data.Matrix.Z)
	}
	info := map[string]any{
		"name":      sp.Info.Name,
		"dimension": sp.Info.Dimension,
		"nucleus":   nucleus,
		"frequency": sp.Info.Frequency,
		"isFid":     sp.Info.IsFid,
		"isFt":      sp.Info.IsFt,
		"isComplex": sp.Info.IsComplex,
	}
	return map[string]any{
		"info":      info,
		"dimension": sp.Info.Dimension,
		"nucleus":   nucleus,
		"isFid":     sp.Info.IsFid,
		"isFt":      sp.Info.IsFt,
		"isComplex": sp.Info.IsComplex,
		"frequency": sp.Info.Frequency,
		"filters":   applied,
		"size":      size,
	}
}

// RuleFilter gates a Filter behind an applicability expression such as
// `isFid && !isFt`. The wrapped filter's own IsApplicable must pass too.
type RuleFilter struct {
	Filter
	expression string
	engine     string
	rule       CompiledRule
	logger     EvaluatorLogger
}

// Requires compiles expression with evaluator and wraps f. A nil evaluator
// selects the expr engine.
func Requires(f Filter, expression string, evaluator Evaluator, logger EvaluatorLogger) (*RuleFilter, error) {
	if f == nil {
		return nil, fmt.Errorf("spectra: rule target filter is nil")
	}
	if expression == "" {
		return nil, fmt.Errorf("spectra: rule for filter %q must not be empty", f.Name())
	}
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	logger = evaluatorLoggerOrNoop(logger)
	engine := evaluatorEngineName(evaluator)

	start := time.Now()
	rule, err := evaluator.Compile(expression, WithBindingNames(spectrumBindingKey...), WithBooleanResult())
	err = wrapEvaluationError(engine, PhaseCompile, expression, f.Name(), err)
	logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Filter:   f.Name(),
		Expr:     expression,
		Phase:    PhaseCompile,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return nil, err
	}
	return &RuleFilter{
		Filter:     f,
		expression: expression,
		engine:     engine,
		rule:       rule,
		logger:     logger,
	}, nil
}

// Expression returns the applicability expression.
func (f *RuleFilter) Expression() string {
	return f.expression
}

// Engine names the evaluator that compiled the rule.
func (f *RuleFilter) Engine() string {
	return f.engine
}

// Check evaluates the rule against sp.
func (f *RuleFilter) Check(sp *Spectrum) (ok bool, err error) {
	start := time.Now()
	defer func() {
		event := EvaluatorLogEvent{
			Engine:   f.engine,
			Filter:   f.Name(),
			Expr:     f.expression,
			Phase:    PhaseEvaluate,
			Result:   ok,
			Duration: time.Since(start),
			Err:      err,
		}
		if sp != nil {
			event.SpectrumID = sp.ID
		}
		evaluatorLoggerOrNoop(f.logger).LogEvaluation(event)
	}()

	value, err := f.rule.Evaluate(RuleContext{Binding: SpectrumBinding(sp), Label: f.Name()})
	if err != nil {
		return false, wrapEvaluationError(f.engine, PhaseEvaluate, f.expression, f.Name(), err)
	}
	result, isBool := value.(bool)
	if !isBool {
		return false, wrapEvaluationError(f.engine, PhaseEvaluate, f.expression, f.Name(), ErrRuleNotBoolean)
	}
	return result, nil
}

// IsApplicable implements Filter.
func (f *RuleFilter) IsApplicable(sp *Spectrum) bool {
	ok, err := f.Check(sp)
	if err != nil || !ok {
		return false
	}
	return f.Filter.IsApplicable(sp)
}

// TransformInfo forwards to the wrapped filter.
func (f *RuleFilter) TransformInfo(info Info, value any) Info {
	if t, ok := f.Filter.(InfoTransformer); ok {
		return t.TransformInfo(info, value)
	}
	return info
}

// Label forwards to the wrapped filter.
func (f *RuleFilter) Label() string {
	return filterLabel(f.Filter)
}

// DeleteAllowed forwards to the wrapped filter.
func (f *RuleFilter) DeleteAllowed() bool {
	return filterDeleteAllowed(f.Filter)
}

func evaluatorEngineName(e Evaluator) string {
	if named, ok := e.(interface{ engineName() string }); ok {
		return named.engineName()
	}
	if e == nil {
		return "unknown"
	}
	return "custom"
}
