package assert

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strconv"

	"github.com/khanh1998/test-pilot-sub005/errors"
)

type compareType int

const (
	compareGreater compareType = iota
	compareGreaterOrEqual
	compareLess
	compareLessOrEqual
)

// Greater returns an assertion to ensure a value greater than the expected
// value.
func Greater(expected any) Assertion {
	return AssertionFunc(func(actual any) error {
		return compareNumber(actual, expected, compareGreater)
	})
}

// GreaterOrEqual returns an assertion to ensure a value equal or greater
// than the expected value.
func GreaterOrEqual(expected any) Assertion {
	return AssertionFunc(func(actual any) error {
		return compareNumber(actual, expected, compareGreaterOrEqual)
	})
}

// Less returns an assertion to ensure a value less than the expected value.
func Less(expected any) Assertion {
	return AssertionFunc(func(actual any) error {
		return compareNumber(actual, expected, compareLess)
	})
}

// LessOrEqual returns an assertion to ensure a value equal or less than the
// expected value.
func LessOrEqual(expected any) Assertion {
	return AssertionFunc(func(actual any) error {
		return compareNumber(actual, expected, compareLessOrEqual)
	})
}

// Between returns an assertion to ensure lo <= value <= hi.
func Between(lo, hi any) Assertion {
	return AssertionFunc(func(actual any) error {
		if err := compareNumber(actual, lo, compareGreaterOrEqual); err != nil {
			return err
		}
		return compareNumber(actual, hi, compareLessOrEqual)
	})
}

// NotBetween returns an assertion to ensure a value outside [lo, hi].
func NotBetween(lo, hi any) Assertion {
	between := Between(lo, hi)
	return AssertionFunc(func(actual any) error {
		if err := between.Assert(actual); err != nil {
			//nolint:nilerr // outside the range is the success case
			return nil
		}
		return errors.Errorf("must not be between %v and %v", lo, hi)
	})
}

// compareNumber compares actual with expected based on compareType.
// If the comparison fails, an error will be returned.
func compareNumber(actual, expected any, typ compareType) error {
	n1, err := toNumber(actual)
	if err != nil {
		return err
	}
	n2, err := toNumber(expected)
	if err != nil {
		return err
	}
	if isKindOfInt(n1) && isKindOfInt(n2) {
		i1, err := convertToBigInt(n1)
		if err != nil {
			return err
		}
		i2, err := convertToBigInt(n2)
		if err != nil {
			return err
		}
		return compareByType(i1.Cmp(i2), i2.String(), typ)
	}
	f1, err := convertToBigFloat(n1)
	if err != nil {
		return err
	}
	f2, err := convertToBigFloat(n2)
	if err != nil {
		return err
	}
	return compareByType(f1.Cmp(f2), f2.String(), typ)
}

func toNumber(v any) (any, error) {
	if !reflect.ValueOf(v).IsValid() {
		return nil, errors.Errorf("value %v is invalid", v)
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if f, err := n.Float64(); err == nil {
			return f, nil
		}
		return nil, errors.Errorf("failed to convert %v to number", n)
	}
	if s, ok := v.(string); ok {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		return nil, errors.Errorf("failed to convert %q to number", s)
	}
	if !isKindOfNumber(v) {
		return nil, errors.Errorf("failed to convert %T to number", v)
	}
	return v, nil
}

func isKindOfInt(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		return true
	default:
		return false
	}
}

func isKindOfFloat(v any) bool {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func isKindOfNumber(v any) bool {
	return isKindOfInt(v) || isKindOfFloat(v)
}

func compareByType(result int, expValue string, typ compareType) error {
	switch typ {
	case compareGreater:
		if result > 0 {
			return nil
		}
		return errors.Errorf("must be greater than %s", expValue)
	case compareGreaterOrEqual:
		if result >= 0 {
			return nil
		}
		return errors.Errorf("must be equal or greater than %s", expValue)
	case compareLess:
		if result < 0 {
			return nil
		}
		return errors.Errorf("must be less than %s", expValue)
	case compareLessOrEqual:
		if result <= 0 {
			return nil
		}
		return errors.Errorf("must be equal or less than %s", expValue)
	default:
		return errors.Errorf("unknown compare type %v", typ)
	}
}

func convert[T any](v any, t T) (T, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		var zero T
		return zero, errors.Errorf("value is invalid")
	}
	rt := reflect.TypeOf(t)
	if !rv.Type().ConvertibleTo(rt) {
		var zero T
		return zero, errors.Errorf("%T is not convertible to %T", v, t)
	}
	vv, ok := rv.Convert(rt).Interface().(T)
	if !ok {
		var zero T
		return zero, errors.Errorf("%T is not convertible to %T", v, t)
	}
	return vv, nil
}

func convertToBigInt(v any) (*big.Int, error) {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i64, err := convert(v, int64(0))
		if err != nil {
			return nil, err
		}
		return big.NewInt(i64), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u64, err := convert(v, uint64(0))
		if err != nil {
			return nil, err
		}
		return big.NewInt(0).SetUint64(u64), nil
	default:
		return nil, errors.Errorf("%T is not convertible to *big.Int", v)
	}
}

func convertToBigFloat(v any) (*big.Float, error) {
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i64, err := convert(v, int64(0))
		if err != nil {
			return nil, err
		}
		return big.NewFloat(0).SetInt64(i64), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u64, err := convert(v, uint64(0))
		if err != nil {
			return nil, err
		}
		return big.NewFloat(0).SetUint64(u64), nil
	case reflect.Float32, reflect.Float64:
		f64, err := convert(v, float64(0))
		if err != nil {
			return nil, err
		}
		return big.NewFloat(f64), nil
	default:
		return nil, errors.Errorf("%T is not convertible to *big.Float", v)
	}
}
