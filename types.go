package spectra

// RuleContext carries the inputs of an applicability rule.
type RuleContext struct {
	// Binding exposes the spectrum under test to the expression.
	Binding  map[string]any
	Args     map[string]any
	Metadata map[string]any
	// Label names the rule owner in errors and logs, usually a filter name.
	Label string
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Binding == nil {
		ctx.Binding = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// scope flattens the context into the variables an expression sees: the
// binding at top level next to args and metadata.
func (ctx RuleContext) scope() map[string]any {
	vars := make(map[string]any, len(ctx.Binding)+2)
	for key, value := range ctx.Binding {
		vars[key] = value
	}
	vars["args"] = ctx.Args
	vars["metadata"] = ctx.Metadata
	return vars
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	binding []string
	boolean bool
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// WithBindingNames declares the top-level variables a rule may reference.
// Engines with a checked environment (CEL) need them at compile time.
func WithBindingNames(names ...string) CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.binding = append(cfg.binding, names...)
	})
}

// WithBooleanResult asks engines that type check at compile time to reject
// rules that cannot produce a boolean.
func WithBooleanResult() CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.boolean = true
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}
