// Package errors provides the error types of the flow execution engine.
package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

func New(message string) error {
	return errors.New(message)
}

func Errorf(format string, args ...any) error {
	return errors.Errorf(format, args...)
}

func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// Append aggregates errs into a single error, skipping nils.
func Append(err error, errs ...error) error {
	merr := &multierror.Error{
		ErrorFormat: errorFormat,
	}
	if err != nil {
		merr = multierror.Append(merr, err)
	}
	for _, e := range errs {
		if e != nil {
			merr = multierror.Append(merr, e)
		}
	}
	return merr.ErrorOrNil()
}

func errorFormat(es []error) string {
	if len(es) == 1 {
		return es[0].Error()
	}
	points := make([]string, len(es))
	for i, err := range es {
		points[i] = fmt.Sprintf("* %s", err.Error())
	}
	return fmt.Sprintf("%d errors occurred:\n%s", len(es), strings.Join(points, "\n"))
}

// ValidationError reports a malformed flow definition.
// It is fatal and aborts the run before any request is issued.
type ValidationError struct {
	Err error
}

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Err: errors.Errorf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid flow: %s", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// MissingParameter describes one required parameter without a value.
type MissingParameter struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Required bool   `json:"required" yaml:"required"`
}

// MissingParameterError reports required parameters that remain unset.
// It is recoverable: the caller supplies values and re-invokes the run.
type MissingParameterError struct {
	Parameters []MissingParameter
}

func (e *MissingParameterError) Error() string {
	names := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		names[i] = p.Name
	}
	return fmt.Sprintf("missing required parameters: %s", strings.Join(names, ", "))
}

// NetworkError reports a request that failed to produce a usable response,
// including timeouts and non-2xx statuses.
type NetworkError struct {
	Key     string // endpoint key (stepID-index)
	Timeout bool
	Err     error
}

func Network(key string, err error) *NetworkError {
	return &NetworkError{Key: key, Err: err}
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("network error on %s: timeout: %s", e.Key, e.Err)
	}
	return fmt.Sprintf("network error on %s: %s", e.Key, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AssertionError reports failed assertions on one endpoint.
type AssertionError struct {
	Key string
	Err error
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed on %s: %s", e.Key, e.Err)
}

func (e *AssertionError) Unwrap() error { return e.Err }
