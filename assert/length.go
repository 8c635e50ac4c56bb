package assert

import (
	"reflect"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/internal/reflectutil"
)

// Length returns an assertion to ensure a value's length equals expected.
func Length(expected int) Assertion {
	return AssertionFunc(func(v any) error {
		n, err := lengthOf(v)
		if err != nil {
			return err
		}
		if n == expected {
			return nil
		}
		return errors.Errorf("expected length %d but got %d", expected, n)
	})
}

// LengthGreater returns an assertion to ensure a value's length is greater
// than expected.
func LengthGreater(expected int) Assertion {
	return AssertionFunc(func(v any) error {
		n, err := lengthOf(v)
		if err != nil {
			return err
		}
		if n > expected {
			return nil
		}
		return errors.Errorf("expected length greater than %d but got %d", expected, n)
	})
}

// LengthLess returns an assertion to ensure a value's length is less than
// expected.
func LengthLess(expected int) Assertion {
	return AssertionFunc(func(v any) error {
		n, err := lengthOf(v)
		if err != nil {
			return err
		}
		if n < expected {
			return nil
		}
		return errors.Errorf("expected length less than %d but got %d", expected, n)
	})
}

func lengthOf(v any) (int, error) {
	vv := reflectutil.Elem(reflect.ValueOf(v))
	switch vv.Kind() {
	case reflect.Array, reflect.Slice, reflect.Map, reflect.String:
		return vv.Len(), nil
	default:
		return 0, errors.Errorf("can't take the length of %T", v)
	}
}
