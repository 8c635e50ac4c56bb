// Package template resolves {{source:expression}} placeholders against a
// resolution context. Supported sources are "param"/"parameter"/"var"
// (resolved parameters), "res" (stored responses and transformation aliases),
// "env" (sub-environment variables), and "func" (registered pure functions).
// The triple-brace form {{{source:expression}}} marks a value that must not
// retain surrounding quotes after a JSON round trip.
package template

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/khanh1998/test-pilot-sub005/internal/queryutil"
)

var (
	tokenRe       = regexp.MustCompile(`\{\{\{(\w+):([^{}]+)\}\}\}|\{\{(\w+):([^{}]+)\}\}`)
	quotedTokenRe = regexp.MustCompile(`"\{\{\{(\w+):([^{}"]+)\}\}\}"`)
)

// Resolve resolves all tokens of tmpl against ctx.
// If tmpl is exactly one token, the native resolved value is returned;
// otherwise resolved values are stringified and substituted in place.
// Failed tokens stay intact and are reported to the context logger; Resolve
// never fails across its public boundary.
func Resolve(tmpl string, ctx *Context) any {
	if m := tokenRe.FindStringSubmatch(tmpl); m != nil && m[0] == strings.TrimSpace(tmpl) {
		source, expr := tokenParts(m)
		v, err := resolveToken(source, expr, ctx)
		if err != nil {
			ctx.logger().Warnf("failed to resolve %s: %s", m[0], err)
			return tmpl
		}
		return v
	}
	return tokenRe.ReplaceAllStringFunc(tmpl, func(tok string) string {
		m := tokenRe.FindStringSubmatch(tok)
		source, expr := tokenParts(m)
		v, err := resolveToken(source, expr, ctx)
		if err != nil {
			ctx.logger().Warnf("failed to resolve %s: %s", tok, err)
			return tok
		}
		return toString(v)
	})
}

// tokenParts returns the source and expression of a regex match, whichever
// of the triple- or double-brace groups matched.
func tokenParts(m []string) (string, string) {
	if m[1] != "" {
		return m[1], strings.TrimSpace(m[2])
	}
	return m[3], strings.TrimSpace(m[4])
}

func resolveToken(source, expr string, ctx *Context) (any, error) {
	switch source {
	case "param", "parameter", "var":
		v, ok := ctx.Parameters[expr]
		if !ok {
			return nil, errors.Errorf("Parameter not found: %s", expr)
		}
		return v, nil
	case "res":
		return resolveResponse(expr, ctx)
	case "env":
		v, ok := ctx.Environment[expr]
		if !ok {
			return nil, errors.Errorf("environment variable not found: %s", expr)
		}
		return v, nil
	case "func":
		return resolveFunc(expr, ctx)
	default:
		return nil, errors.Errorf("unknown template source %q", source)
	}
}

// resolveResponse looks up a stored response by its "stepID-index" key (or
// custom alias) and applies the JSONPath-like remainder, default "$".
// Transformation aliases of the endpoint shadow response fields: the first
// path segment is tried as an alias name before querying the raw body.
func resolveResponse(expr string, ctx *Context) (any, error) {
	key, path := splitKey(expr)
	if trs, ok := ctx.Transformations[key]; ok && path != "" {
		alias, rest := splitKey(path)
		if v, ok := trs[alias]; ok {
			return extract(v, rest)
		}
	}
	resp, ok := ctx.Responses[key]
	if !ok {
		return nil, errors.Errorf("response not found: %s", key)
	}
	return extract(resp, path)
}

func splitKey(expr string) (string, string) {
	if i := strings.IndexByte(expr, '.'); i >= 0 {
		return expr[:i], expr[i+1:]
	}
	return expr, ""
}

func extract(v any, path string) (any, error) {
	q, err := queryutil.ParsePath(path)
	if err != nil {
		return nil, err
	}
	got, err := q.Extract(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to extract %q", path)
	}
	return got, nil
}

// resolveFunc calls a registered function. The expression is a name with an
// optional argument list; arguments parse as JSON literals where possible,
// otherwise they are passed as raw strings.
func resolveFunc(expr string, ctx *Context) (any, error) {
	name := expr
	var rawArgs []string
	if i := strings.IndexByte(expr, '('); i >= 0 {
		if !strings.HasSuffix(expr, ")") {
			return nil, errors.Errorf("malformed function call %q", expr)
		}
		name = strings.TrimSpace(expr[:i])
		rawArgs = splitArgs(expr[i+1 : len(expr)-1])
	}
	f, ok := ctx.registry().lookup(name)
	if !ok {
		return nil, errors.Errorf("template function not found: %s", name)
	}
	args := make([]any, len(rawArgs))
	for i, raw := range rawArgs {
		args[i] = parseArg(raw)
	}
	v, err := f(args)
	if err != nil {
		return nil, errors.Wrapf(err, "function %s failed", name)
	}
	return v, nil
}

// splitArgs splits a function argument list on top-level commas, honoring
// quotes and brackets.
func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var (
		args    []string
		depth   int
		quote   byte
		start   int
		escaped bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case c == ',' && depth == 0:
			args = append(args, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	args = append(args, strings.TrimSpace(s[start:]))
	return args
}

func parseArg(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	// single-quoted strings are not valid JSON but common in hand-written flows
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1]
	}
	return raw
}
