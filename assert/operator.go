package assert

import (
	"github.com/khanh1998/test-pilot-sub005/errors"
)

// Operator names accepted by ForOperator.
const (
	OpEquals             = "equals"
	OpNotEquals          = "not_equals"
	OpContains           = "contains"
	OpNotContains        = "not_contains"
	OpExists             = "exists"
	OpNotExists          = "not_exists"
	OpGreaterThan        = "greater_than"
	OpGreaterThanOrEqual = "greater_than_or_equal"
	OpLessThan           = "less_than"
	OpLessThanOrEqual    = "less_than_or_equal"
	OpBetween            = "between"
	OpNotBetween         = "not_between"
	OpStartsWith         = "starts_with"
	OpEndsWith           = "ends_with"
	OpMatchesRegex       = "matches_regex"
	OpLengthEquals       = "length_equals"
	OpLengthGreaterThan  = "length_greater_than"
	OpLengthLessThan     = "length_less_than"
	OpContainsAll        = "contains_all"
	OpContainsAny        = "contains_any"
	OpIsType             = "is_type"
	OpIsNull             = "is_null"
	OpIsNotNull          = "is_not_null"
)

// ForOperator builds the assertion of a declared operator and its expected
// value.
func ForOperator(op string, value any) (Assertion, error) {
	switch op {
	case OpEquals:
		return Equal(value), nil
	case OpNotEquals:
		return NotEqual(value), nil
	case OpContains:
		return Contains(value), nil
	case OpNotContains:
		return NotContains(value), nil
	case OpExists:
		return Exists(), nil
	case OpNotExists:
		return NotExists(), nil
	case OpGreaterThan:
		return Greater(value), nil
	case OpGreaterThanOrEqual:
		return GreaterOrEqual(value), nil
	case OpLessThan:
		return Less(value), nil
	case OpLessThanOrEqual:
		return LessOrEqual(value), nil
	case OpBetween, OpNotBetween:
		lo, hi, err := boundsOf(value)
		if err != nil {
			return nil, err
		}
		if op == OpBetween {
			return Between(lo, hi), nil
		}
		return NotBetween(lo, hi), nil
	case OpStartsWith:
		s, err := expectString(op, value)
		if err != nil {
			return nil, err
		}
		return StartsWith(s), nil
	case OpEndsWith:
		s, err := expectString(op, value)
		if err != nil {
			return nil, err
		}
		return EndsWith(s), nil
	case OpMatchesRegex:
		s, err := expectString(op, value)
		if err != nil {
			return nil, err
		}
		return Regexp(s), nil
	case OpLengthEquals, OpLengthGreaterThan, OpLengthLessThan:
		n, err := toNumber(value)
		if err != nil {
			return nil, errors.Wrapf(err, "%s expects a number", op)
		}
		i, err := convert(n, int(0))
		if err != nil {
			return nil, errors.Wrapf(err, "%s expects a number", op)
		}
		switch op {
		case OpLengthGreaterThan:
			return LengthGreater(i), nil
		case OpLengthLessThan:
			return LengthLess(i), nil
		default:
			return Length(i), nil
		}
	case OpContainsAll, OpContainsAny:
		vs, ok := value.([]any)
		if !ok {
			return nil, errors.Errorf("%s expects an array of values but got %T", op, value)
		}
		if op == OpContainsAll {
			return ContainsAll(vs), nil
		}
		return ContainsAny(vs), nil
	case OpIsType:
		s, err := expectString(op, value)
		if err != nil {
			return nil, err
		}
		return IsType(s), nil
	case OpIsNull:
		return Null(), nil
	case OpIsNotNull:
		return NotNull(), nil
	default:
		return nil, errors.Errorf("unknown assertion operator %q", op)
	}
}

// boundsOf reads the two bounds of a between operator: either a two-element
// array or a {min, max} object.
func boundsOf(value any) (any, any, error) {
	switch v := value.(type) {
	case []any:
		if len(v) != 2 {
			return nil, nil, errors.Errorf("between expects two bounds but got %d", len(v))
		}
		return v[0], v[1], nil
	case map[string]any:
		lo, ok1 := v["min"]
		hi, ok2 := v["max"]
		if !ok1 || !ok2 {
			return nil, nil, errors.New("between expects min and max")
		}
		return lo, hi, nil
	default:
		return nil, nil, errors.Errorf("between expects bounds but got %T", value)
	}
}

func expectString(op string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", errors.Errorf("%s expects a string but got %T", op, value)
	}
	return s, nil
}
