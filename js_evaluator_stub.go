//go:build !js_eval

package spectra

// NewJSEvaluator returns an evaluator that rejects every rule with
// ErrJSUnavailable.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return jsUnavailable{}
}

type jsUnavailable struct{}

func (jsUnavailable) Evaluate(RuleContext, string) (any, error) {
	return nil, ErrJSUnavailable
}

func (jsUnavailable) Compile(string, ...CompileOption) (CompiledRule, error) {
	return nil, ErrJSUnavailable
}

func (jsUnavailable) engineName() string { return engineJS }

// JSEvaluatorAvailable reports whether JS rules are compiled in.
func JSEvaluatorAvailable() bool {
	return false
}
