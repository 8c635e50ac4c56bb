package engine

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/mitchellh/copystructure"

	"github.com/khanh1998/test-pilot-sub005/template"
	"github.com/khanh1998/test-pilot-sub005/transport"
)

// Status is the lifecycle state of a flow run.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusStopped    Status = "stopped"
	StatusNeedsInput Status = "needs_input"
)

// EndpointStatus is the lifecycle state of a single endpoint call.
type EndpointStatus string

const (
	EndpointRunning   EndpointStatus = "running"
	EndpointCompleted EndpointStatus = "completed"
	EndpointFailed    EndpointStatus = "failed"
)

// Key builds the execution state key of the endpoint at index within a step.
func Key(stepID string, index int) string {
	return fmt.Sprintf("%s-%d", stepID, index)
}

// RequestRecord captures the fully resolved request as it went on the wire.
type RequestRecord struct {
	Method string      `json:"method"`
	URL    string      `json:"url"`
	Header http.Header `json:"header,omitempty"`
	Body   any         `json:"body,omitempty"`
}

// ResponseRecord captures what came back, with the body already parsed.
type ResponseRecord struct {
	StatusCode int         `json:"status_code"`
	Status     string      `json:"status"`
	Header     http.Header `json:"header,omitempty"`
	Body       any         `json:"body,omitempty"`
	DurationMS int64       `json:"duration_ms"`
}

// AssertionResult is the verdict of one declared assertion.
type AssertionResult struct {
	ID       string `json:"id,omitempty"`
	Source   string `json:"source"`
	DataID   string `json:"data_id"`
	Operator string `json:"operator"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// EndpointState is everything the engine knows about one endpoint call.
type EndpointState struct {
	Status          EndpointStatus    `json:"status"`
	Request         *RequestRecord    `json:"request,omitempty"`
	Response        *ResponseRecord   `json:"response,omitempty"`
	Transformations map[string]any    `json:"transformations,omitempty"`
	Assertions      []AssertionResult `json:"assertions,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// Progress summarizes how far a run has advanced.
type Progress struct {
	RunID          string `json:"run_id"`
	CurrentStep    string `json:"current_step,omitempty"`
	TotalEndpoints int    `json:"total_endpoints"`
	Finished       int    `json:"finished"`
}

// execState holds all mutable state of one run. Parallel endpoints within a
// step write to distinct keys but share the maps, so every access goes
// through the mutex.
type execState struct {
	mu              sync.RWMutex
	runID           string
	parameterValues map[string]any
	responses       map[string]any
	transformations map[string]map[string]any
	states          map[string]*EndpointState
	cookies         *transport.CookieStore
	log             *Log
	stopped         bool
	firstErr        error
}

func newExecState(params map[string]any) *execState {
	if params == nil {
		params = map[string]any{}
	}
	return &execState{
		runID:           uuid.NewString(),
		parameterValues: params,
		responses:       map[string]any{},
		transformations: map[string]map[string]any{},
		states:          map[string]*EndpointState{},
		cookies:         transport.NewCookieStore(),
		log:             &Log{},
	}
}

func (s *execState) storeResponse(key, alias string, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[key] = body
	if alias != "" {
		s.responses[alias] = body
	}
}

func (s *execState) storeTransformations(key, alias string, values map[string]any) {
	if len(values) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transformations[key] = values
	if alias != "" {
		s.transformations[alias] = values
	}
}

// setState stores a copy so the caller can keep mutating its working state
// between publishes without racing snapshot readers.
func (s *execState) setState(key string, state *EndpointState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *state
	s.states[key] = &c
}

// setErr records the first unrecovered error; later ones are kept in the log
// only.
func (s *execState) setErr(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.firstErr == nil {
		s.firstErr = err
	}
}

func (s *execState) err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstErr
}

func (s *execState) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *execState) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

func (s *execState) setParameters(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, v := range values {
		s.parameterValues[name] = v
	}
}

// templateContext returns a resolution context over snapshots of the shared
// maps, so in-flight parallel endpoints never observe a concurrent write.
func (s *execState) templateContext(environment map[string]any, funcs *template.Registry) *template.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	params := make(map[string]any, len(s.parameterValues))
	for k, v := range s.parameterValues {
		params[k] = v
	}
	responses := make(map[string]any, len(s.responses))
	for k, v := range s.responses {
		responses[k] = v
	}
	trs := make(map[string]map[string]any, len(s.transformations))
	for k, v := range s.transformations {
		trs[k] = v
	}
	return &template.Context{
		Parameters:      params,
		Responses:       responses,
		Transformations: trs,
		Environment:     environment,
		Funcs:           funcs,
		Logger:          s.log,
	}
}

func (s *execState) snapshotStates() map[string]*EndpointState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied, err := copystructure.Copy(s.states)
	if err != nil {
		out := make(map[string]*EndpointState, len(s.states))
		for k, v := range s.states {
			c := *v
			out[k] = &c
		}
		return out
	}
	return copied.(map[string]*EndpointState)
}

func (s *execState) snapshotResponses() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if copied, err := copystructure.Copy(s.responses); err == nil {
		return copied.(map[string]any)
	}
	out := make(map[string]any, len(s.responses))
	for k, v := range s.responses {
		out[k] = v
	}
	return out
}

func (s *execState) snapshotParameters() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.parameterValues))
	for k, v := range s.parameterValues {
		out[k] = v
	}
	return out
}

func (s *execState) finished() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.states {
		if st.Status != EndpointRunning {
			n++
		}
	}
	return n
}
