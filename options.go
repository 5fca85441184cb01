package spectra

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-spectra/analysis"
	"github.com/goliatone/go-spectra/pkg/history"
)

// DefaultNamespace seeds identifiers generated by the engine.
var DefaultNamespace = uuid.MustParse("5f1c3f2e-7a43-4c1e-9a53-2f0b6d3f8e10")

// Integrator computes absolute areas under 1D curves and 2D surfaces.
type Integrator interface {
	Integrate(x, y []float64, from, to float64) float64
	IntegrateZone(grid analysis.Grid, x, y Domain) float64
}

// PeakPicker detects peaks in 1D data.
type PeakPicker interface {
	PickPeaks(x, y []float64, opts analysis.PeakOptions) ([]analysis.Peak, error)
}

// RangePicker detects integration windows in 1D data.
type RangePicker interface {
	PickRanges(x, y []float64, opts analysis.RangeOptions) ([]analysis.Window, error)
}

type Option func(*engineConfig)

type engineConfig struct {
	filters       *FilterRegistry
	rules         []filterRule
	integrator    Integrator
	peakPicker    PeakPicker
	rangePicker   RangePicker
	historyIgnore history.IgnoreSet
	historyLimit  int
	evaluator     Evaluator
	ruleEngine    string
	programCache  ProgramCache
	functions     *FunctionRegistry
	logger        EvaluatorLogger
	namespace     uuid.UUID
}

type filterRule struct {
	name       string
	expression string
}

func applyOptions(opts []Option) engineConfig {
	cfg := engineConfig{
		integrator:    analysis.Trapezoid{},
		peakPicker:    analysis.LocalMaxima{},
		rangePicker:   analysis.Clusters{},
		historyIgnore: DefaultHistoryIgnore(),
		namespace:     DefaultNamespace,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithFilterRegistry sets the filters the pipeline can run.
func WithFilterRegistry(registry *FilterRegistry) Option {
	return func(cfg *engineConfig) {
		cfg.filters = registry.Clone()
	}
}

// WithFilters registers filters on top of the configured registry.
func WithFilters(filters ...Filter) Option {
	return func(cfg *engineConfig) {
		if cfg.filters == nil {
			cfg.filters = &FilterRegistry{filters: map[string]Filter{}}
		}
		for _, f := range filters {
			cfg.filters.Replace(f)
		}
	}
}

// WithFilterRule gates the filter registered under name behind an
// applicability expression evaluated against SpectrumBinding.
func WithFilterRule(name, expression string) Option {
	return func(cfg *engineConfig) {
		cfg.rules = append(cfg.rules, filterRule{name: name, expression: expression})
	}
}

func WithIntegrator(integrator Integrator) Option {
	return func(cfg *engineConfig) {
		if integrator != nil {
			cfg.integrator = integrator
		}
	}
}

func WithPeakPicker(picker PeakPicker) Option {
	return func(cfg *engineConfig) {
		cfg.peakPicker = picker
	}
}

func WithRangePicker(picker RangePicker) Option {
	return func(cfg *engineConfig) {
		cfg.rangePicker = picker
	}
}

// WithHistoryIgnore replaces the kinds never recorded in history.
func WithHistoryIgnore(kinds ...Kind) Option {
	return func(cfg *engineConfig) {
		names := make([]string, 0, len(kinds))
		for _, k := range kinds {
			names = append(names, string(k))
		}
		cfg.historyIgnore = history.NewIgnoreSet(names...)
	}
}

// WithHistoryLimit caps the number of retained history entries.
func WithHistoryLimit(limit int) Option {
	return func(cfg *engineConfig) {
		cfg.historyLimit = limit
	}
}

// WithEvaluator configures the engine used to compile filter rules.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *engineConfig) {
		cfg.evaluator = e
	}
}

// WithRuleEngine selects the built-in evaluator for filter rules: "expr"
// (the default), "cel" or "js". WithEvaluator takes precedence.
func WithRuleEngine(name string) Option {
	return func(cfg *engineConfig) {
		cfg.ruleEngine = name
	}
}

// WithProgramCache registers a program cache for the built-in evaluators.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *engineConfig) {
		cfg.programCache = cache
	}
}

// WithFunctionRegistry exposes registry functions to filter rules.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *engineConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for filter rules.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *engineConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

// WithEvaluatorLogger attaches a logger for rule compilation.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *engineConfig) {
		cfg.logger = logger
	}
}

// WithIDNamespace sets the namespace of generated identifiers. Two engines
// with the same namespace produce the same ids for the same action log.
func WithIDNamespace(namespace uuid.UUID) Option {
	return func(cfg *engineConfig) {
		cfg.namespace = namespace
	}
}

// resolveEvaluator builds the selected built-in engine with the default
// rule helpers plus any registered through WithCustomFunction.
func (cfg *engineConfig) resolveEvaluator() (Evaluator, error) {
	if cfg.evaluator != nil {
		return cfg.evaluator, nil
	}
	functions := DefaultFunctions()
	if cfg.functions != nil {
		merged := cfg.functions.Clone()
		merged.Merge(functions)
		functions = merged
	}
	cache := cfg.programCache
	if cache == nil {
		cache = NewProgramCache(0)
	}

	var evaluator Evaluator
	switch cfg.ruleEngine {
	case "", engineExpr:
		evaluator = NewExprEvaluator(ExprWithProgramCache(cache), ExprWithFunctionRegistry(functions))
	case engineCEL:
		evaluator = NewCELEvaluator(CELWithProgramCache(cache), CELWithFunctionRegistry(functions))
	case engineJS:
		if !JSEvaluatorAvailable() {
			return nil, ErrJSUnavailable
		}
		evaluator = NewJSEvaluator(JSWithProgramCache(cache), JSWithFunctionRegistry(functions))
	default:
		return nil, fmt.Errorf("%w: unknown rule engine %q", ErrNoEvaluator, cfg.ruleEngine)
	}
	cfg.evaluator = evaluator
	return evaluator, nil
}

func (cfg *engineConfig) compileRules() error {
	if len(cfg.rules) == 0 {
		return nil
	}
	evaluator, err := cfg.resolveEvaluator()
	if err != nil {
		return err
	}
	for _, r := range cfg.rules {
		f, ok := cfg.filters.Lookup(r.name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrFilterNotFound, r.name)
		}
		gated, err := Requires(f, r.expression, evaluator, cfg.logger)
		if err != nil {
			return err
		}
		cfg.filters.Replace(gated)
	}
	return nil
}
