package template

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ResolveStructured resolves every token inside a structured value (maps,
// slices, scalars) by serializing it to JSON, resolving the serialized form
// in one pass, and parsing the result back. This enables arbitrarily nested
// substitution, including tokens inside keys produced by earlier tokens.
// On any failure the original value is returned unchanged and the failure is
// logged; the contract never fails across the public boundary.
func ResolveStructured(v any, ctx *Context) any {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return Resolve(s, ctx)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			ctx.logger().Warnf("failed to serialize value for resolution: %s", err)
			return v
		}
		resolved := resolveSerialized(string(b), ctx)
		dec := json.NewDecoder(strings.NewReader(resolved))
		dec.UseNumber()
		var out any
		if err := dec.Decode(&out); err != nil {
			ctx.logger().Warnf("failed to parse resolved value: %s", err)
			return v
		}
		return out
	}
}

// resolveSerialized substitutes tokens inside a JSON document. Quoted
// triple-brace tokens are replaced together with their surrounding quotes by
// the raw JSON encoding of the resolved value, so objects and numbers embed
// unquoted. Remaining tokens substitute as JSON-escaped string content.
func resolveSerialized(doc string, ctx *Context) string {
	doc = quotedTokenRe.ReplaceAllStringFunc(doc, func(tok string) string {
		m := quotedTokenRe.FindStringSubmatch(tok)
		v, err := resolveToken(m[1], strings.TrimSpace(m[2]), ctx)
		if err != nil {
			ctx.logger().Warnf("failed to resolve %s: %s", tok, err)
			return tok
		}
		b, err := json.Marshal(v)
		if err != nil {
			ctx.logger().Warnf("failed to encode resolved value of %s: %s", tok, err)
			return tok
		}
		return string(b)
	})
	return tokenRe.ReplaceAllStringFunc(doc, func(tok string) string {
		m := tokenRe.FindStringSubmatch(tok)
		source, expr := tokenParts(m)
		v, err := resolveToken(source, expr, ctx)
		if err != nil {
			ctx.logger().Warnf("failed to resolve %s: %s", tok, err)
			return tok
		}
		return jsonEscape(toString(v))
	})
}

// jsonEscape encodes s as JSON string content without the enclosing quotes,
// keeping the substituted document valid.
func jsonEscape(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return s
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	return strings.TrimSuffix(strings.TrimPrefix(out, `"`), `"`)
}
