// Package engine executes declarative flows of HTTP calls: it resolves
// templated requests, runs steps sequentially or in parallel, evaluates
// transformations and assertions, and accumulates responses for later steps.
package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/schema"
	"github.com/khanh1998/test-pilot-sub005/template"
	"github.com/khanh1998/test-pilot-sub005/transport"
)

// StateCallback receives a deep copy of the full execution state map after
// every endpoint state change.
type StateCallback func(states map[string]*EndpointState)

// EndpointCallback receives a single endpoint state on its terminal
// transition.
type EndpointCallback func(key string, state *EndpointState)

// Option configures an Engine.
type Option func(*Engine)

// WithEnvironment binds the run to a sub-environment of env. Its API hosts
// override the flow settings and its variables feed parameter mappings and
// env tokens.
func WithEnvironment(env *schema.Environment, subEnv string) Option {
	return func(e *Engine) {
		e.env = env
		e.subEnv = subEnv
	}
}

// WithMappings sets the parameter-to-variable mappings.
func WithMappings(ms []schema.ParameterMapping) Option {
	return func(e *Engine) { e.mappings = ms }
}

// WithProxy routes all requests through the proxy endpoint instead of
// calling targets directly.
func WithProxy(endpoint string) Option {
	return func(e *Engine) { e.proxy = endpoint }
}

// WithFuncs replaces the template function registry.
func WithFuncs(r *template.Registry) Option {
	return func(e *Engine) { e.funcs = r }
}

// OnStateChange registers the full-state callback.
func OnStateChange(cb StateCallback) Option {
	return func(e *Engine) { e.onState = cb }
}

// OnEndpoint registers the terminal endpoint callback.
func OnEndpoint(cb EndpointCallback) Option {
	return func(e *Engine) { e.onEndpoint = cb }
}

// Engine runs one flow. A single Engine never executes two runs at once;
// Stop, Reset, and the read accessors are safe from other goroutines.
type Engine struct {
	flow       *schema.Flow
	env        *schema.Environment
	subEnv     string
	mappings   []schema.ParameterMapping
	proxy      string
	funcs      *template.Registry
	onState    StateCallback
	onEndpoint EndpointCallback

	mu       sync.Mutex
	status   Status
	current  string
	supplied map[string]any
	exec     *execState
}

// New returns an idle engine for flow.
func New(flow *schema.Flow, opts ...Option) *Engine {
	e := &Engine{
		flow:   flow,
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a run or a single-step execution.
type Result struct {
	Success           bool                      `json:"success"`
	Status            Status                    `json:"status"`
	Error             error                     `json:"-"`
	MissingParameters []errors.MissingParameter `json:"missing_parameters,omitempty"`
	StoredResponses   map[string]any            `json:"stored_responses,omitempty"`
	ParameterValues   map[string]any            `json:"parameter_values,omitempty"`
	FlowOutputs       map[string]any            `json:"flow_outputs,omitempty"`
}

// Run executes the whole flow from the top. When required parameters are
// unbound it returns a needs-input result without issuing any request; the
// caller supplies values via UpdateParameterValues and runs again.
func (e *Engine) Run(ctx context.Context) *Result {
	e.mu.Lock()
	if e.status == StatusRunning {
		e.mu.Unlock()
		return &Result{Status: StatusRunning, Error: errors.New("flow is already running")}
	}
	e.status = StatusRunning
	supplied := e.supplied
	e.mu.Unlock()

	if err := e.validate(); err != nil {
		e.setStatus(StatusFailed)
		return &Result{Status: StatusFailed, Error: err}
	}

	sub, _ := e.subEnvironment()
	params := prepareParameters(e.flow, sub, e.mappings)
	params, err := mergeParameterValues(params, supplied)
	if err != nil {
		e.setStatus(StatusFailed)
		return &Result{Status: StatusFailed, Error: err}
	}
	if missing := checkRequiredParameters(e.flow, params); len(missing) > 0 {
		e.setStatus(StatusNeedsInput)
		return &Result{
			Status:            StatusNeedsInput,
			MissingParameters: missing,
			Error:             &errors.MissingParameterError{Parameters: missing},
		}
	}

	exec := newExecState(params)
	e.mu.Lock()
	e.exec = exec
	e.mu.Unlock()
	exec.log.Infof("run %s: flow %q started", exec.runID, e.flow.ID)

	client := e.newClient(exec)
	for i := range e.flow.Steps {
		step := &e.flow.Steps[i]
		if exec.isStopped() {
			break
		}
		if e.flow.Settings.StopOnError && exec.err() != nil {
			exec.log.Infof("stopping before step %s after error", step.ID)
			break
		}
		e.setCurrent(step.ID)
		e.runStep(ctx, exec, step, client)
	}
	e.setCurrent("")

	return e.finish(exec)
}

// finish computes the terminal status and result of a run.
func (e *Engine) finish(exec *execState) *Result {
	result := &Result{
		StoredResponses: exec.snapshotResponses(),
		ParameterValues: exec.snapshotParameters(),
	}
	switch {
	case exec.isStopped():
		result.Status = StatusStopped
		result.Error = exec.err()
		exec.log.Infof("run %s: stopped by user", exec.runID)
	case exec.err() != nil:
		result.Status = StatusFailed
		result.Error = exec.err()
		exec.log.Errorf("run %s: failed: %s", exec.runID, exec.err())
	default:
		result.Status = StatusCompleted
		result.Success = true
		result.FlowOutputs = evaluateOutputs(e.flow.Outputs, exec.templateContext(e.variables(), e.funcs), exec.log)
		exec.log.Infof("run %s: completed", exec.runID)
	}
	e.setStatus(result.Status)
	return result
}

// ExecuteSingleStep runs one step against the accumulated execution state,
// so responses stored by earlier invocations stay addressable. The first
// invocation prepares parameters the same way Run does.
func (e *Engine) ExecuteSingleStep(ctx context.Context, stepID string) *Result {
	var step *schema.Step
	for i := range e.flow.Steps {
		if e.flow.Steps[i].ID == stepID {
			step = &e.flow.Steps[i]
			break
		}
	}
	if step == nil {
		return &Result{Status: StatusFailed, Error: errors.Validationf("unknown step %q", stepID)}
	}
	if err := e.validate(); err != nil {
		return &Result{Status: StatusFailed, Error: err}
	}

	e.mu.Lock()
	exec := e.exec
	supplied := e.supplied
	e.mu.Unlock()
	if exec == nil {
		sub, _ := e.subEnvironment()
		params := prepareParameters(e.flow, sub, e.mappings)
		params, err := mergeParameterValues(params, supplied)
		if err != nil {
			return &Result{Status: StatusFailed, Error: err}
		}
		if missing := checkRequiredParameters(e.flow, params); len(missing) > 0 {
			return &Result{
				Status:            StatusNeedsInput,
				MissingParameters: missing,
				Error:             &errors.MissingParameterError{Parameters: missing},
			}
		}
		exec = newExecState(params)
		e.mu.Lock()
		e.exec = exec
		e.mu.Unlock()
	}

	before := exec.err()
	e.setCurrent(step.ID)
	e.runStep(ctx, exec, step, e.newClient(exec))
	e.setCurrent("")

	result := &Result{
		StoredResponses: exec.snapshotResponses(),
		ParameterValues: exec.snapshotParameters(),
	}
	if err := exec.err(); err != before {
		result.Status = StatusFailed
		result.Error = err
		return result
	}
	result.Status = StatusCompleted
	result.Success = true
	return result
}

// Stop requests a graceful stop. In-flight endpoints finish; no further step
// starts.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exec != nil {
		e.exec.stop()
	}
}

// Reset discards all accumulated state, including supplied parameter values
// and the cookie store, and returns the engine to idle.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = StatusIdle
	e.current = ""
	e.supplied = nil
	e.exec = nil
}

// UpdateParameterValues merges supplied values over the current ones. They
// survive until Reset, so a needs-input run can be re-invoked.
func (e *Engine) UpdateParameterValues(values map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	merged, err := mergeParameterValues(e.supplied, values)
	if err != nil {
		return err
	}
	e.supplied = merged
	if e.exec != nil {
		e.exec.setParameters(values)
	}
	return nil
}

// Status returns the engine lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// IsRunning reports whether a run is in progress.
func (e *Engine) IsRunning() bool {
	return e.Status() == StatusRunning
}

// Progress reports how far the current or last run advanced.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	exec := e.exec
	current := e.current
	e.mu.Unlock()
	total := 0
	for i := range e.flow.Steps {
		total += len(e.flow.Steps[i].Endpoints)
	}
	p := Progress{CurrentStep: current, TotalEndpoints: total}
	if exec != nil {
		p.RunID = exec.runID
		p.Finished = exec.finished()
	}
	return p
}

// ExecutionState returns a deep copy of the per-endpoint state map.
func (e *Engine) ExecutionState() map[string]*EndpointState {
	e.mu.Lock()
	exec := e.exec
	e.mu.Unlock()
	if exec == nil {
		return map[string]*EndpointState{}
	}
	return exec.snapshotStates()
}

// StoredResponses returns a copy of the stored response map.
func (e *Engine) StoredResponses() map[string]any {
	e.mu.Lock()
	exec := e.exec
	e.mu.Unlock()
	if exec == nil {
		return map[string]any{}
	}
	return exec.snapshotResponses()
}

// Log returns the execution log entries of the current or last run.
func (e *Engine) Log() []Entry {
	e.mu.Lock()
	exec := e.exec
	e.mu.Unlock()
	if exec == nil {
		return nil
	}
	return exec.log.Entries()
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = s
}

func (e *Engine) setCurrent(stepID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = stepID
}

// validate checks everything that must hold before the first request.
func (e *Engine) validate() error {
	if err := e.flow.Validate(); err != nil {
		return &errors.ValidationError{Err: err}
	}
	if e.subEnv != "" {
		if e.env == nil {
			return errors.Validationf("sub-environment %q requested without an environment", e.subEnv)
		}
		if _, ok := e.env.SubEnvironment(e.subEnv); !ok {
			return errors.Validationf("unknown sub-environment %q", e.subEnv)
		}
	}
	if len(e.hosts()) == 0 {
		return errors.Validationf("no api hosts configured")
	}
	return nil
}

func (e *Engine) subEnvironment() (*schema.SubEnvironment, bool) {
	if e.env == nil || e.subEnv == "" {
		return nil, false
	}
	return e.env.SubEnvironment(e.subEnv)
}

func (e *Engine) variables() map[string]any {
	if sub, ok := e.subEnvironment(); ok {
		return sub.Variables
	}
	return nil
}

// hosts resolves the API host map: sub-environment hosts win over flow
// settings.
func (e *Engine) hosts() map[int]string {
	hosts := map[int]string{}
	for id, h := range e.flow.Settings.APIHosts {
		hosts[id] = h
	}
	if sub, ok := e.subEnvironment(); ok {
		for id, h := range sub.APIHosts {
			hosts[id] = h
		}
	}
	return hosts
}

func (e *Engine) timeout() time.Duration {
	if t := e.flow.Settings.Timeout; t > 0 {
		return time.Duration(t) * time.Millisecond
	}
	return transport.DefaultTimeout
}

func (e *Engine) newClient(exec *execState) transport.Client {
	if e.proxy != "" {
		return transport.NewProxy(e.proxy, exec.cookies, e.timeout())
	}
	return transport.NewDirect(exec.cookies, e.timeout())
}

// runStep executes one step. Parallel endpoints all run to completion before
// the step joins, even when one of them fails.
func (e *Engine) runStep(ctx context.Context, exec *execState, step *schema.Step, client transport.Client) {
	if step.ClearCookies {
		exec.cookies.Clear()
		exec.log.Infof("step %s: cookie store cleared", step.ID)
	}
	if step.Parallel {
		var g errgroup.Group
		for i := range step.Endpoints {
			i := i
			g.Go(func() error {
				e.runEndpoint(ctx, exec, step, i, client)
				return nil
			})
		}
		g.Wait()
		return
	}
	for i := range step.Endpoints {
		if exec.isStopped() {
			return
		}
		if e.flow.Settings.StopOnError && exec.err() != nil {
			return
		}
		e.runEndpoint(ctx, exec, step, i, client)
	}
}

// runEndpoint drives one endpoint call through compose, send, transform, and
// assert, publishing its state after every phase.
func (e *Engine) runEndpoint(ctx context.Context, exec *execState, step *schema.Step, idx int, client transport.Client) {
	se := &step.Endpoints[idx]
	key := Key(step.ID, idx)
	state := &EndpointState{Status: EndpointRunning}
	publish := func() {
		exec.setState(key, state)
		if e.onState != nil {
			e.onState(exec.snapshotStates())
		}
		if state.Status != EndpointRunning && e.onEndpoint != nil {
			c := *state
			e.onEndpoint(key, &c)
		}
	}
	fail := func(err error) {
		state.Status = EndpointFailed
		state.Error = err.Error()
		exec.setErr(err)
		exec.log.Errorf("%s: %s", key, err)
		publish()
	}
	publish()

	ep, ok := e.flow.Endpoint(se.EndpointID)
	if !ok {
		fail(errors.Validationf("unknown endpoint %q", se.EndpointID))
		return
	}

	req, err := composeRequest(key, ep, se, e.hosts(), exec.templateContext(e.variables(), e.funcs))
	if err != nil {
		fail(err)
		return
	}
	state.Request = &RequestRecord{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header,
		Body:   req.Body,
	}
	publish()
	exec.log.Infof("%s: %s %s", key, req.Method, req.URL)

	resp, err := transport.WithRetry(client, se.Retry).Do(ctx, req)
	if err != nil {
		fail(err)
		return
	}
	state.Response = &ResponseRecord{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       resp.Body,
		DurationMS: resp.Duration.Milliseconds(),
	}
	exec.storeResponse(key, se.ResponseAlias, resp.Body)

	trs := evaluateTransformations(se.Transformations, resp.Body, exec.templateContext(e.variables(), e.funcs), exec.log)
	exec.storeTransformations(key, se.ResponseAlias, trs)
	state.Transformations = trs

	results, aerr := evaluateAssertions(key, se, resp, trs, exec.templateContext(e.variables(), e.funcs))
	state.Assertions = results
	if aerr != nil {
		fail(aerr)
		return
	}
	state.Status = EndpointCompleted
	exec.log.Infof("%s: completed in %dms with status %d", key, resp.Duration.Milliseconds(), resp.StatusCode)
	publish()
}
