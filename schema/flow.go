// Package schema provides the flow definitions of the execution engine.
package schema

import "fmt"

// Flow is an ordered definition of steps, parameters, outputs, and endpoint
// bindings describing an end-to-end API test scenario.
// A Flow is read-only during a run.
type Flow struct {
	ID         string      `yaml:"id" json:"id"`
	Name       string      `yaml:"name,omitempty" json:"name,omitempty"`
	Steps      []Step      `yaml:"steps" json:"steps"`
	Parameters []Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Outputs    []Output    `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	Endpoints  []Endpoint  `yaml:"endpoints" json:"endpoints"`
	Settings   Settings    `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// Endpoint looks up an endpoint definition by id.
func (f *Flow) Endpoint(id string) (*Endpoint, bool) {
	for i := range f.Endpoints {
		if f.Endpoints[i].ID == id {
			return &f.Endpoints[i], true
		}
	}
	return nil, false
}

// Settings holds flow-level execution settings.
type Settings struct {
	// APIHosts maps an API id to its base URL.
	APIHosts map[int]string `yaml:"apiHosts,omitempty" json:"apiHosts,omitempty"`
	// EnvironmentID links the flow to an environment definition.
	EnvironmentID string `yaml:"environmentId,omitempty" json:"environmentId,omitempty"`
	// Timeout is the per-request timeout in milliseconds (default 30000).
	Timeout int `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	// StopOnError halts step iteration after the first captured error.
	StopOnError bool `yaml:"stopOnError,omitempty" json:"stopOnError,omitempty"`
}

// Step is a position in a flow's execution order containing one or more
// step endpoints.
type Step struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	// Parallel executes the step's endpoints as a concurrent batch joined
	// by an all-complete barrier instead of one at a time.
	Parallel bool `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	// ClearCookies empties the run's cookie store before the first request.
	ClearCookies bool           `yaml:"clearCookies,omitempty" json:"clearCookies,omitempty"`
	Endpoints    []StepEndpoint `yaml:"endpoints" json:"endpoints"`
}

// StepEndpoint is one concrete, parameterized invocation of an endpoint
// within a step.
type StepEndpoint struct {
	EndpointID string            `yaml:"endpointId" json:"endpointId"`
	PathParams map[string]string `yaml:"pathParams,omitempty" json:"pathParams,omitempty"`
	// QueryParams values are templates; array parameters are re-serialized
	// according to the endpoint's parameter schema.
	QueryParams     map[string]string `yaml:"queryParams,omitempty" json:"queryParams,omitempty"`
	Headers         []Header          `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body            any               `yaml:"body,omitempty" json:"body,omitempty"`
	Transformations []Transformation  `yaml:"transformations,omitempty" json:"transformations,omitempty"`
	Assertions      []Assertion       `yaml:"assertions,omitempty" json:"assertions,omitempty"`
	// SkipStatusCheck disables the default non-2xx failure.
	SkipStatusCheck bool `yaml:"skipStatusCheck,omitempty" json:"skipStatusCheck,omitempty"`
	// ResponseAlias names the stored response for later reference.
	ResponseAlias string       `yaml:"responseAlias,omitempty" json:"responseAlias,omitempty"`
	Retry         *RetryPolicy `yaml:"retry,omitempty" json:"retry,omitempty"`
}

// Header is a name/value pair resolved only when enabled.
type Header struct {
	Name    string `yaml:"name" json:"name"`
	Value   string `yaml:"value" json:"value"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// Endpoint is a reusable definition of one HTTP operation, independent of
// any flow.
type Endpoint struct {
	ID     string          `yaml:"id" json:"id"`
	Method string          `yaml:"method" json:"method"`
	Path   string          `yaml:"path" json:"path"`
	APIID  int             `yaml:"apiId" json:"apiId"`
	Params []EndpointParam `yaml:"params,omitempty" json:"params,omitempty"`
}

// Param looks up a parameter schema entry by name and location.
func (e *Endpoint) Param(name, in string) (*EndpointParam, bool) {
	for i := range e.Params {
		if e.Params[i].Name == name && e.Params[i].In == in {
			return &e.Params[i], true
		}
	}
	return nil, false
}

// Collection formats for array parameter serialization.
const (
	FormatCSV   = "csv"
	FormatSSV   = "ssv"
	FormatTSV   = "tsv"
	FormatPipes = "pipes"
	FormatMulti = "multi"
)

// EndpointParam describes one entry of an endpoint's parameter schema.
type EndpointParam struct {
	Name string `yaml:"name" json:"name"`
	// In is the parameter location: "path" or "query".
	In      string `yaml:"in" json:"in"`
	IsArray bool   `yaml:"isArray,omitempty" json:"isArray,omitempty"`
	// CollectionFormat declares how an array value is split and re-joined
	// (csv default, ssv, tsv, pipes, multi).
	CollectionFormat string `yaml:"collectionFormat,omitempty" json:"collectionFormat,omitempty"`
	// Explode writes one query key per value instead of a joined string.
	Explode bool `yaml:"explode,omitempty" json:"explode,omitempty"`
}

// Delimiter returns the separator of the declared collection format.
func (p *EndpointParam) Delimiter() string {
	switch p.CollectionFormat {
	case FormatSSV:
		return " "
	case FormatTSV:
		return "\t"
	case FormatPipes:
		return "|"
	default:
		return ","
	}
}

// Parameter declares a flow-level input value.
type Parameter struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Default  *any   `yaml:"default,omitempty" json:"default,omitempty"`
}

// Transformation is a named extraction rule producing a reusable alias from
// a response. An empty expression aliases the raw response.
type Transformation struct {
	Alias      string `yaml:"alias" json:"alias"`
	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"`
}

// Assertion sources.
const (
	SourceResponse        = "response"
	SourceTransformedData = "transformed_data"
)

// Assertion data ids with non-query semantics.
const (
	DataStatusCode   = "status_code"
	DataResponseTime = "response_time"
)

// Assertion is a declared expectation evaluated against response or
// transformed data.
type Assertion struct {
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	Source string `yaml:"source" json:"source"`
	// DataID selects the actual value: "status_code", "response_time",
	// "header.<Name>", a JSONPath into the body, or a transformation alias
	// optionally followed by a path.
	DataID    string `yaml:"dataId" json:"dataId"`
	Operator  string `yaml:"operator" json:"operator"`
	Value     any    `yaml:"value,omitempty" json:"value,omitempty"`
	ValueType string `yaml:"valueType,omitempty" json:"valueType,omitempty"`
	Enabled   *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled reports whether the assertion participates in the verdict.
// Assertions are enabled unless explicitly disabled.
func (a *Assertion) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// Output cast types.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeNull    = "null"
)

// Output declares a value evaluated after the flow completes.
type Output struct {
	Name  string `yaml:"name" json:"name"`
	Value any    `yaml:"value" json:"value"`
	// Type casts the resolved value; empty keeps it as-is.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// Validate checks the flow shape before execution.
func (f *Flow) Validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow has no steps")
	}
	if len(f.Endpoints) == 0 {
		return fmt.Errorf("flow has no endpoint definitions")
	}
	for _, s := range f.Steps {
		if s.ID == "" {
			return fmt.Errorf("step without id")
		}
		if len(s.Endpoints) == 0 {
			return fmt.Errorf("step %s has no endpoints", s.ID)
		}
		for _, se := range s.Endpoints {
			if _, ok := f.Endpoint(se.EndpointID); !ok {
				return fmt.Errorf("step %s references unknown endpoint %q", s.ID, se.EndpointID)
			}
		}
	}
	return nil
}
