package assert

import (
	"encoding/json"
	"reflect"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/internal/reflectutil"
)

// Exists returns an assertion to ensure a value is present and non-nil.
func Exists() Assertion {
	return AssertionFunc(func(v any) error {
		if v == nil || reflectutil.IsNil(reflect.ValueOf(v)) {
			return errors.New("expected a value but got none")
		}
		return nil
	})
}

// NotExists returns an assertion to ensure a value is absent.
func NotExists() Assertion {
	return AssertionFunc(func(v any) error {
		if v == nil || reflectutil.IsNil(reflect.ValueOf(v)) {
			return nil
		}
		return errors.Errorf("expected no value but got %v", v)
	})
}

// Null returns an assertion to ensure a value is null.
func Null() Assertion {
	return AssertionFunc(func(v any) error {
		if v == nil || reflectutil.IsNil(reflect.ValueOf(v)) {
			return nil
		}
		return errors.Errorf("expected null but got %v", v)
	})
}

// NotNull returns an assertion to ensure a value isn't null.
func NotNull() Assertion {
	return AssertionFunc(func(v any) error {
		if v == nil || reflectutil.IsNil(reflect.ValueOf(v)) {
			return errors.New("expected a non-null value")
		}
		return nil
	})
}

// IsType returns an assertion to ensure a value has the named JSON type:
// string, number, boolean, object, array, or null.
func IsType(name string) Assertion {
	return AssertionFunc(func(v any) error {
		got := jsonType(v)
		if got == name {
			return nil
		}
		return errors.Errorf("expected type %s but got %s", name, got)
	})
}

func jsonType(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	}
	vv := reflectutil.Elem(reflect.ValueOf(v))
	if reflectutil.IsNil(vv) {
		return "null"
	}
	switch vv.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return vv.Kind().String()
	}
}
