package engine

import (
	"strings"

	"github.com/khanh1998/test-pilot-sub005/assert"
	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/internal/queryutil"
	"github.com/khanh1998/test-pilot-sub005/schema"
	"github.com/khanh1998/test-pilot-sub005/template"
	"github.com/khanh1998/test-pilot-sub005/transport"
)

// evaluateAssertions runs every enabled assertion of a step endpoint plus the
// default status check. All assertions are evaluated even after a failure;
// the returned error aggregates every failed one.
func evaluateAssertions(key string, se *schema.StepEndpoint, resp *transport.Response, trs map[string]any, tc *template.Context) ([]AssertionResult, error) {
	var failures []error
	if !se.SkipStatusCheck && !resp.IsSuccess() {
		failures = append(failures, errors.Errorf("unexpected status %d %s", resp.StatusCode, resp.Status))
	}

	results := make([]AssertionResult, 0, len(se.Assertions))
	for i := range se.Assertions {
		a := &se.Assertions[i]
		if !a.IsEnabled() {
			continue
		}
		result := AssertionResult{
			ID:       a.ID,
			Source:   a.Source,
			DataID:   a.DataID,
			Operator: a.Operator,
			Passed:   true,
		}
		if err := evaluateAssertion(a, resp, trs, tc); err != nil {
			result.Passed = false
			result.Message = err.Error()
			failures = append(failures, errors.Wrapf(err, "assertion on %s", a.DataID))
		}
		results = append(results, result)
	}

	if err := errors.Append(nil, failures...); err != nil {
		return results, &errors.AssertionError{Key: key, Err: err}
	}
	return results, nil
}

func evaluateAssertion(a *schema.Assertion, resp *transport.Response, trs map[string]any, tc *template.Context) error {
	actual, err := actualValue(a, resp, trs)
	if err != nil {
		if lenientOperator(a.Operator) {
			actual = nil
		} else {
			return err
		}
	}
	expected := template.ResolveStructured(a.Value, tc)
	assertion, err := assert.ForOperator(a.Operator, expected)
	if err != nil {
		return err
	}
	return assertion.Assert(actual)
}

// lenientOperator reports whether a failed extraction should be treated as
// an absent value rather than an evaluation error.
func lenientOperator(op string) bool {
	switch op {
	case assert.OpExists, assert.OpNotExists, assert.OpIsNull, assert.OpIsNotNull:
		return true
	}
	return false
}

// actualValue selects the value under test. For the response source the data
// id is "status_code", "response_time", "header.<Name>", or a JSONPath into
// the body; for transformed data it is an alias with an optional path.
func actualValue(a *schema.Assertion, resp *transport.Response, trs map[string]any) (any, error) {
	if a.Source == schema.SourceTransformedData {
		alias, rest := splitDataID(a.DataID)
		v, ok := trs[alias]
		if !ok {
			return nil, errors.Errorf("unknown transformation alias %q", alias)
		}
		if rest == "" {
			return v, nil
		}
		return extractPath(v, rest)
	}

	switch {
	case a.DataID == schema.DataStatusCode:
		return resp.StatusCode, nil
	case a.DataID == schema.DataResponseTime:
		return resp.Duration.Milliseconds(), nil
	case strings.HasPrefix(a.DataID, "header."):
		name := strings.TrimPrefix(a.DataID, "header.")
		return resp.Header.Get(name), nil
	default:
		return extractPath(resp.Body, a.DataID)
	}
}

func splitDataID(id string) (string, string) {
	if i := strings.IndexAny(id, ".["); i >= 0 {
		if id[i] == '[' {
			return id[:i], id[i:]
		}
		return id[:i], id[i+1:]
	}
	return id, ""
}

func extractPath(v any, path string) (any, error) {
	q, err := queryutil.ParsePath(path)
	if err != nil {
		return nil, err
	}
	got, err := q.Extract(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to extract %q", path)
	}
	return got, nil
}
