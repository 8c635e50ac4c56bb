package engine

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/khanh1998/test-pilot-sub005/schema"
	"github.com/khanh1998/test-pilot-sub005/template"
)

func TestEvaluateOutputs(t *testing.T) {
	tc := &template.Context{
		Parameters: map[string]any{"env": "staging"},
		Responses: map[string]any{
			"step1-0": map[string]any{
				"id":    json.Number("42"),
				"roles": []any{"admin"},
			},
		},
	}
	log := &Log{}
	outputs := []schema.Output{
		{Name: "userId", Value: "{{res:step1-0.id}}", Type: schema.TypeString},
		{Name: "idNumber", Value: "{{res:step1-0.id}}", Type: schema.TypeNumber},
		{Name: "roles", Value: "{{res:step1-0.roles}}", Type: schema.TypeArray},
		{Name: "label", Value: "run-{{param:env}}"},
		{Name: "badCast", Value: "not a number", Type: schema.TypeNumber},
	}
	got := evaluateOutputs(outputs, tc, log)
	expect := map[string]any{
		"userId":   "42",
		"idNumber": json.Number("42"),
		"roles":    []any{"admin"},
		"label":    "run-staging",
		"badCast":  "not a number",
	}
	if diff := cmp.Diff(expect, got); diff != "" {
		t.Errorf("differs: (-want +got)\n%s", diff)
	}
	var warned bool
	for _, e := range log.Entries() {
		if e.Level == LevelWarning {
			warned = true
		}
	}
	if !warned {
		t.Error("failed cast should warn")
	}
}

func TestCastValue(t *testing.T) {
	tests := map[string]struct {
		v       any
		typ     string
		expect  any
		wantErr bool
	}{
		"string from number":  {v: json.Number("7"), typ: schema.TypeString, expect: "7"},
		"string from object":  {v: map[string]any{"a": 1}, typ: schema.TypeString, expect: `{"a":1}`},
		"number from string":  {v: " 3.14 ", typ: schema.TypeNumber, expect: json.Number("3.14")},
		"number invalid":      {v: "abc", typ: schema.TypeNumber, wantErr: true},
		"boolean from string": {v: "true", typ: schema.TypeBoolean, expect: true},
		"boolean invalid":     {v: "yes please", typ: schema.TypeBoolean, wantErr: true},
		"object from json":    {v: `{"a":1}`, typ: schema.TypeObject, expect: map[string]any{"a": json.Number("1")}},
		"object mismatch":     {v: []any{1}, typ: schema.TypeObject, wantErr: true},
		"array passthrough":   {v: []any{"x"}, typ: schema.TypeArray, expect: []any{"x"}},
		"null":                {v: "anything", typ: schema.TypeNull, expect: nil},
		"untyped passthrough": {v: true, typ: "", expect: true},
		"unknown type":        {v: 1, typ: "uuid", wantErr: true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := castValue(test.v, test.typ)
			if test.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if diff := cmp.Diff(test.expect, got); diff != "" {
				t.Errorf("differs: (-want +got)\n%s", diff)
			}
		})
	}
}
