package queryutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePath(t *testing.T) {
	data := map[string]any{
		"data": map[string]any{
			"users": []any{
				map[string]any{"id": "u1", "full name": "Alice"},
				map[string]any{"id": "u2", "full name": "Bob"},
			},
		},
		"total": 2,
	}
	tests := map[string]struct {
		path   string
		expect any
	}{
		"root":             {path: "$", expect: data},
		"empty":            {path: "", expect: data},
		"key":              {path: "$.total", expect: 2},
		"without dollar":   {path: "total", expect: 2},
		"nested with idx":  {path: "$.data.users[1].id", expect: "u2"},
		"bracketed key":    {path: `$.data.users[0]["full name"]`, expect: "Alice"},
		"single quote key": {path: `$.data.users[0]['full name']`, expect: "Alice"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			q, err := ParsePath(test.path)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			got, err := q.Extract(data)
			if err != nil {
				t.Fatalf("failed to extract: %s", err)
			}
			if diff := cmp.Diff(test.expect, got); diff != "" {
				t.Errorf("differs: (-want +got)\n%s", diff)
			}
		})
	}
}

func TestParsePath_Error(t *testing.T) {
	tests := map[string]string{
		"trailing dot":     "$.a.",
		"unclosed bracket": "$.a[0",
		"bad index":        "$.a[x]",
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePath(path); err == nil {
				t.Fatalf("expected error for %q", path)
			}
		})
	}
}
