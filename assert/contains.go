package assert

import (
	"reflect"
	"strings"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/internal/reflectutil"
)

// Contains returns an assertion to ensure a value contains the expected
// value. Strings check for a substring, arrays for a matching element.
func Contains(expected any) Assertion {
	return AssertionFunc(func(v any) error {
		if s, ok := v.(string); ok {
			sub, ok := expected.(string)
			if !ok {
				return errors.Errorf("expected a string to search for but got %T", expected)
			}
			if strings.Contains(s, sub) {
				return nil
			}
			return errors.Errorf("%q doesn't contain %q", s, sub)
		}
		vv, err := arrayOrSlice(v)
		if err != nil {
			return err
		}
		if err := contains(Equal(expected), vv); err != nil {
			return errors.Wrap(err, "doesn't contain expected value")
		}
		return nil
	})
}

// NotContains returns an assertion to ensure a value doesn't contain the
// expected value.
func NotContains(expected any) Assertion {
	c := Contains(expected)
	return AssertionFunc(func(v any) error {
		if err := c.Assert(v); err != nil {
			//nolint:nilerr // absence is the success case
			return nil
		}
		return errors.New("contains the value")
	})
}

// ContainsAll returns an assertion to ensure a value contains every element
// of expected.
func ContainsAll(expected []any) Assertion {
	return AssertionFunc(func(v any) error {
		for _, e := range expected {
			if err := Contains(e).Assert(v); err != nil {
				return err
			}
		}
		return nil
	})
}

// ContainsAny returns an assertion to ensure a value contains at least one
// element of expected.
func ContainsAny(expected []any) Assertion {
	return AssertionFunc(func(v any) error {
		var err error
		for _, e := range expected {
			if err = Contains(e).Assert(v); err == nil {
				return nil
			}
		}
		if err == nil {
			return errors.New("no expected values given")
		}
		return errors.Wrap(err, "contains none of the expected values")
	})
}

func arrayOrSlice(v any) (reflect.Value, error) {
	vv := reflectutil.Elem(reflect.ValueOf(v))
	switch vv.Kind() {
	case reflect.Array, reflect.Slice:
	default:
		return reflect.Value{}, errors.New("expected an array")
	}
	return vv, nil
}

func contains(assertion Assertion, v reflect.Value) error {
	if v.Len() == 0 {
		return errors.New("empty")
	}
	var err error
	for i := 0; i < v.Len(); i++ {
		e := v.Index(i).Interface()
		if err = assertion.Assert(e); err == nil {
			return nil
		}
	}
	return errors.Wrap(err, "last error")
}
