package assert

import (
	"regexp"
	"strings"

	"github.com/khanh1998/test-pilot-sub005/errors"
)

// StartsWith returns an assertion to ensure a string value starts with the
// prefix.
func StartsWith(prefix string) Assertion {
	return AssertionFunc(func(v any) error {
		s, err := stringValue(v)
		if err != nil {
			return err
		}
		if strings.HasPrefix(s, prefix) {
			return nil
		}
		return errors.Errorf("%q doesn't start with %q", s, prefix)
	})
}

// EndsWith returns an assertion to ensure a string value ends with the
// suffix.
func EndsWith(suffix string) Assertion {
	return AssertionFunc(func(v any) error {
		s, err := stringValue(v)
		if err != nil {
			return err
		}
		if strings.HasSuffix(s, suffix) {
			return nil
		}
		return errors.Errorf("%q doesn't end with %q", s, suffix)
	})
}

// Regexp returns an assertion to ensure a value matches the expression.
func Regexp(expr string) Assertion {
	re, compileErr := regexp.Compile(expr)
	return AssertionFunc(func(v any) error {
		if compileErr != nil {
			return errors.Wrapf(compileErr, "failed to compile %q", expr)
		}
		s, err := stringValue(v)
		if err != nil {
			return err
		}
		if re.MatchString(s) {
			return nil
		}
		return errors.Errorf("%q doesn't match pattern %q", s, expr)
	})
}

func stringValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.Errorf("expected a string but got %T", v)
}
