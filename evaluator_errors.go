package spectra

import (
	"errors"
	"fmt"
	"strings"
)

var errEmptyExpression = errors.New("expression must not be empty")

// RulePhase tells whether a rule failed while compiling or while running
// against a spectrum.
type RulePhase string

const (
	PhaseCompile  RulePhase = "compile"
	PhaseEvaluate RulePhase = "evaluate"
)

// EvaluationError reports a failing applicability rule.
type EvaluationError struct {
	Engine string
	Phase  RulePhase
	// Filter is the filter the rule gates, empty for ad hoc evaluations.
	Filter string
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("spectra: ")
	if e.Filter != "" {
		fmt.Fprintf(&b, "filter %s: ", e.Filter)
	}
	phase := e.Phase
	if phase == "" {
		phase = PhaseEvaluate
	}
	fmt.Fprintf(&b, "%s rule %s failed to %s: %v", e.Engine, quoteExpression(e.Expr), phase, e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func quoteExpression(expr string) string {
	if expr == "" {
		return "<empty>"
	}
	return fmt.Sprintf("%q", expr)
}

// wrapEvaluatorError prefixes errors that are not tied to one expression,
// such as a broken environment.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "spectra:") {
		return err
	}
	return fmt.Errorf("spectra: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches rule metadata to err. An existing
// EvaluationError only has its empty fields filled.
func wrapEvaluationError(engine string, phase RulePhase, expr, filter string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Phase: phase, Filter: filter, Expr: expr, Err: err}
	}
	fill := func(dst *string, value string) {
		if *dst == "" {
			*dst = value
		}
	}
	fill(&evalErr.Engine, engine)
	fill(&evalErr.Expr, expr)
	fill(&evalErr.Filter, filter)
	if evalErr.Phase == "" {
		evalErr.Phase = phase
	}
	return evalErr
}
