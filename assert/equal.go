package assert

import (
	"encoding/json"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/khanh1998/test-pilot-sub005/errors"
)

// Equal returns an assertion to ensure a value equals the expected value.
// Numbers compare by value regardless of their Go type.
func Equal(expected any) Assertion {
	return AssertionFunc(func(actual any) error {
		if equalValues(expected, actual) {
			return nil
		}
		if es, ok := expected.(string); ok {
			if as, ok := actual.(string); ok && (strings.ContainsRune(es, '\n') || strings.ContainsRune(as, '\n')) {
				dmp := diffmatchpatch.New()
				diffs := dmp.DiffMain(es, as, false)
				return errors.Errorf("expected %q but got %q\n%s", expected, actual, dmp.DiffPrettyText(diffs))
			}
		}
		return errors.Errorf("expected %v but got %v", expected, actual)
	})
}

// NotEqual returns an assertion to ensure a value doesn't equal the expected
// value.
func NotEqual(expected any) Assertion {
	return AssertionFunc(func(actual any) error {
		if !equalValues(expected, actual) {
			return nil
		}
		return errors.Errorf("must not be %v", expected)
	})
}

func equalValues(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if es, ok := expected.(string); ok {
		if as, ok := actual.(string); ok {
			return es == as
		}
	}
	if eb, ok := expected.(bool); ok {
		if ab, ok := actual.(bool); ok {
			return eb == ab
		}
	}
	if isNumeric(expected) && isNumeric(actual) {
		return compareNumber(actual, expected, compareGreaterOrEqual) == nil &&
			compareNumber(actual, expected, compareLessOrEqual) == nil
	}
	// structured values: compare canonical JSON encodings
	eb, eerr := json.Marshal(expected)
	ab, aerr := json.Marshal(actual)
	if eerr != nil || aerr != nil {
		return false
	}
	return string(eb) == string(ab)
}

func isNumeric(v any) bool {
	if _, ok := v.(json.Number); ok {
		return true
	}
	return isKindOfNumber(v)
}
