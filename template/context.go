package template

// Logger receives resolution diagnostics. Failures never escalate across the
// package boundary; they are reported here and the original value is kept.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Context carries the provenance sources a template resolves against.
type Context struct {
	// Parameters holds resolved flow parameter values ("param" source).
	Parameters map[string]any
	// Responses holds stored response bodies keyed by "stepID-index" and by
	// custom response aliases ("res" source).
	Responses map[string]any
	// Transformations holds named aliases per endpoint key; they shadow
	// response fields when addressed via the "res" source.
	Transformations map[string]map[string]any
	// Environment holds variables of the selected sub-environment
	// ("env" source).
	Environment map[string]any
	// Funcs resolves "func" source calls; nil uses the default registry.
	Funcs *Registry
	// Logger receives warnings on unresolved tokens; nil discards them.
	Logger Logger
}

// NewContext returns an empty resolution context.
func NewContext() *Context {
	return &Context{
		Parameters:      map[string]any{},
		Responses:       map[string]any{},
		Transformations: map[string]map[string]any{},
		Environment:     map[string]any{},
	}
}

func (c *Context) logger() Logger {
	if c == nil || c.Logger == nil {
		return nopLogger{}
	}
	return c.Logger
}

func (c *Context) registry() *Registry {
	if c == nil || c.Funcs == nil {
		return defaultRegistry
	}
	return c.Funcs
}
