// Package queryutil builds structural queries over decoded response data.
package queryutil

import (
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	query "github.com/zoncoen/query-go"
	yamlextractor "github.com/zoncoen/query-go/extractor/yaml"
)

var (
	m    sync.RWMutex
	opts = []query.Option{}
)

func New(opts ...query.Option) *query.Query {
	return query.New(append(Options(), opts...)...)
}

func Options() []query.Option {
	m.RLock()
	defer m.RUnlock()
	return append(
		[]query.Option{
			query.ExtractByStructTag("yaml", "json"),
			query.CustomExtractFunc(yamlextractor.MapSliceExtractFunc()),
		},
		opts...,
	)
}

func AppendOptions(customOpts ...query.Option) {
	m.Lock()
	defer m.Unlock()
	opts = append(opts, customOpts...)
}

// ParsePath compiles a JSONPath-like expression into a query.
// Accepted forms: "$", "$.a.b", "a.b[0]", `$["key with spaces"].c`.
// A leading "$" refers to the root value.
func ParsePath(path string) (*query.Query, error) {
	q := New()
	s := strings.TrimSpace(path)
	if s == "" || s == "$" {
		return q, nil
	}
	s = strings.TrimPrefix(s, "$")
	for len(s) > 0 {
		switch s[0] {
		case '.':
			s = s[1:]
			if s == "" {
				return nil, errors.Errorf("invalid path %q: trailing dot", path)
			}
		case '[':
			end := strings.IndexByte(s, ']')
			if end < 0 {
				return nil, errors.Errorf("invalid path %q: unclosed bracket", path)
			}
			idx := strings.TrimSpace(s[1:end])
			s = s[end+1:]
			if len(idx) >= 2 && (idx[0] == '"' || idx[0] == '\'') {
				key, err := unquote(idx)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid path %q", path)
				}
				q = q.Key(key)
				continue
			}
			i, err := strconv.Atoi(idx)
			if err != nil {
				return nil, errors.Errorf("invalid path %q: bad index %q", path, idx)
			}
			q = q.Index(i)
			continue
		default:
			key := s
			if i := strings.IndexAny(s, ".["); i >= 0 {
				key, s = s[:i], s[i:]
			} else {
				s = ""
			}
			if key == "" {
				return nil, errors.Errorf("invalid path %q: empty key", path)
			}
			q = q.Key(key)
		}
	}
	return q, nil
}

func unquote(s string) (string, error) {
	if len(s) < 2 || s[0] != s[len(s)-1] {
		return "", errors.Errorf("bad quoted key %q", s)
	}
	if s[0] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], `\'`, `'`), nil
	}
	return strconv.Unquote(s)
}
