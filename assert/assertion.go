// Package assert provides value assertions.
package assert

import (
	"github.com/khanh1998/test-pilot-sub005/errors"
)

// Assertion implements value assertion.
type Assertion interface {
	Assert(v any) error
}

// AssertionFunc is an adaptor to allow the use of ordinary functions as
// assertions.
type AssertionFunc func(v any) error

// Assert asserts the v.
func (f AssertionFunc) Assert(v any) error {
	return f(v)
}

// And returns an assertion passing when every given assertion passes.
// Failures are aggregated.
func And(assertions ...Assertion) Assertion {
	return AssertionFunc(func(v any) error {
		var errs []error
		for _, assertion := range assertions {
			if err := assertion.Assert(v); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return errors.Append(nil, errs...)
		}
		return nil
	})
}

// Nop returns an assertion that always passes.
func Nop() Assertion {
	return AssertionFunc(func(any) error {
		return nil
	})
}
