package transport

import (
	"bytes"
	"encoding/json"
	"mime"
	"strings"

	encutil "github.com/mattn/go-encoding"
)

// parseBody dispatches on the response Content-Type: JSON types decode to a
// Go value with numbers kept as json.Number, text and XML types stay
// strings, and anything else attempts JSON with a text fallback.
func parseBody(raw []byte, contentType string) any {
	if len(raw) == 0 {
		return nil
	}
	raw = decodeCharset(raw, contentType)
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}
	switch {
	case strings.Contains(mediaType, "json"):
		if v, err := decodeJSON(raw); err == nil {
			return v
		}
		return string(raw)
	case strings.HasPrefix(mediaType, "text/"), strings.Contains(mediaType, "xml"):
		return string(raw)
	default:
		if v, err := decodeJSON(raw); err == nil {
			return v
		}
		return string(raw)
	}
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeCharset converts the body to UTF-8 when the Content-Type declares a
// different charset. Unknown charsets pass through untouched.
func decodeCharset(raw []byte, contentType string) []byte {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return raw
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return raw
	}
	enc := encutil.GetEncoding(charset)
	if enc == nil {
		return raw
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return raw
	}
	return decoded
}
