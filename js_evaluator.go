//go:build js_eval

package spectra

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	timeout  time.Duration
}

// NewJSEvaluator constructs an Evaluator backed by goja. Every evaluation
// runs in a fresh runtime.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	cfg := applyJSEvaluatorOptions(opts)
	return &jsEvaluator{
		cache:    cfg.cache,
		registry: cfg.registry,
		timeout:  cfg.timeout,
	}
}

func (e *jsEvaluator) engineName() string { return engineJS }

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(engineJS, errEmptyExpression)
	}
	key := programCacheKey(engineJS, expression, false)
	program, ok := cacheLookup[*goja.Program](e.cache, key)
	if !ok {
		var err error
		program, err = goja.Compile("rule", fmt.Sprintf("(function(){ return (%s); })()", expression), true)
		if err != nil {
			return nil, wrapEvaluationError(engineJS, PhaseCompile, expression, "", err)
		}
		if e.cache != nil {
			e.cache.Set(key, program)
		}
	}
	return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil || r.program == nil {
		return nil, wrapEvaluatorError(engineJS, fmt.Errorf("compiled rule is incomplete"))
	}
	ctx = ctx.withDefaultMaps()
	value, err := r.evaluator.run(ctx, r.program)
	if err != nil {
		return nil, wrapEvaluationError(engineJS, PhaseEvaluate, r.expression, ctx.Label, err)
	}
	return value, nil
}

func (e *jsEvaluator) run(ctx RuleContext, program *goja.Program) (any, error) {
	vm := goja.New()
	for key, value := range ctx.scope() {
		if err := vm.Set(key, value); err != nil {
			return nil, err
		}
	}
	if e.registry != nil {
		if err := vm.Set("call", e.registry.Call); err != nil {
			return nil, err
		}
		for _, name := range e.registry.Names() {
			if err := vm.Set(name, e.registry.bind(name)); err != nil {
				return nil, err
			}
		}
	}
	if e.timeout > 0 {
		timer := time.AfterFunc(e.timeout, func() {
			vm.Interrupt(fmt.Sprintf("rule exceeded %s", e.timeout))
		})
		defer timer.Stop()
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

// JSEvaluatorAvailable reports whether JS rules are compiled in.
func JSEvaluatorAvailable() bool {
	return true
}
