package engine

import (
	"strings"

	"github.com/khanh1998/test-pilot-sub005/internal/queryutil"
	"github.com/khanh1998/test-pilot-sub005/schema"
	"github.com/khanh1998/test-pilot-sub005/template"
)

// evaluateTransformations produces the alias map of one endpoint call.
// An expression with template tokens resolves against the accumulated
// context; anything else is a JSONPath into this call's response body.
// A failed expression aliases the raw body and leaves a warning, so later
// steps still find the alias.
func evaluateTransformations(ts []schema.Transformation, body any, tc *template.Context, log *Log) map[string]any {
	if len(ts) == 0 {
		return nil
	}
	out := make(map[string]any, len(ts))
	for _, t := range ts {
		if t.Alias == "" {
			continue
		}
		v, err := evaluateExpression(t.Expression, body, tc)
		if err != nil {
			log.Warnf("transformation %q: %s", t.Alias, err)
			v = body
		}
		out[t.Alias] = v
	}
	return out
}

func evaluateExpression(expr string, body any, tc *template.Context) (any, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return body, nil
	}
	if strings.Contains(expr, "{{") {
		return template.Resolve(expr, tc), nil
	}
	q, err := queryutil.ParsePath(expr)
	if err != nil {
		return nil, err
	}
	return q.Extract(body)
}
