package engine

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/schema"
	"github.com/khanh1998/test-pilot-sub005/template"
)

// evaluateOutputs resolves the declared flow outputs against the final
// context and casts each to its declared type. A failed cast keeps the
// uncast value and leaves a warning; outputs never fail a completed run.
func evaluateOutputs(outputs []schema.Output, tc *template.Context, log *Log) map[string]any {
	if len(outputs) == 0 {
		return nil
	}
	out := make(map[string]any, len(outputs))
	for _, o := range outputs {
		v := template.ResolveStructured(o.Value, tc)
		cast, err := castValue(v, o.Type)
		if err != nil {
			log.Warnf("output %q: %s", o.Name, err)
			cast = v
		}
		out[o.Name] = cast
	}
	return out
}

func castValue(v any, typ string) (any, error) {
	switch typ {
	case "", schema.TypeNull:
		if typ == schema.TypeNull {
			return nil, nil
		}
		return v, nil
	case schema.TypeString:
		return template.Stringify(v), nil
	case schema.TypeNumber:
		return castNumber(v)
	case schema.TypeBoolean:
		return castBool(v)
	case schema.TypeObject:
		return castComposite(v, "object")
	case schema.TypeArray:
		return castComposite(v, "array")
	default:
		return nil, errors.Errorf("unknown output type %q", typ)
	}
}

func castNumber(v any) (any, error) {
	switch n := v.(type) {
	case json.Number:
		return n, nil
	case int, int64, float64:
		return v, nil
	case string:
		s := strings.TrimSpace(n)
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, errors.Errorf("%q is not a number", n)
		}
		return json.Number(s), nil
	default:
		return nil, errors.Errorf("cannot cast %T to number", v)
	}
}

func castBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return nil, errors.Errorf("%q is not a boolean", b)
		}
		return parsed, nil
	default:
		return nil, errors.Errorf("cannot cast %T to boolean", v)
	}
}

// castComposite accepts a value that already has the target shape, or a
// string holding its JSON form.
func castComposite(v any, kind string) (any, error) {
	if s, ok := v.(string); ok {
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var parsed any
		if err := dec.Decode(&parsed); err != nil {
			return nil, errors.Errorf("%q is not valid JSON", s)
		}
		v = parsed
	}
	switch kind {
	case "object":
		if _, ok := v.(map[string]any); !ok {
			return nil, errors.Errorf("cannot cast %T to object", v)
		}
	case "array":
		if _, ok := v.([]any); !ok {
			return nil, errors.Errorf("cannot cast %T to array", v)
		}
	}
	return v, nil
}
