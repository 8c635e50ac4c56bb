package engine

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/schema"
	"github.com/khanh1998/test-pilot-sub005/template"
)

func composeContext() *template.Context {
	return &template.Context{
		Parameters: map[string]any{
			"userId": json.Number("42"),
			"tag":    "go lang",
			"token":  "tok-1",
		},
		Responses: map[string]any{
			"step1-0": map[string]any{
				"ids": []any{json.Number("1"), json.Number("2"), json.Number("3")},
			},
		},
	}
}

func TestComposeRequest(t *testing.T) {
	ep := &schema.Endpoint{
		ID:     "ep-posts",
		Method: "get",
		Path:   "/users/{userId}/posts",
		APIID:  1,
		Params: []schema.EndpointParam{
			{Name: "ids", In: "query", IsArray: true},
			{Name: "tags", In: "query", IsArray: true, CollectionFormat: schema.FormatPipes},
			{Name: "fields", In: "query", IsArray: true, Explode: true},
		},
	}
	hosts := map[int]string{1: "http://api.local/"}

	tests := map[string]struct {
		se        schema.StepEndpoint
		expectURL string
	}{
		"path parameter is resolved and escaped": {
			se: schema.StepEndpoint{
				EndpointID: "ep-posts",
				PathParams: map[string]string{"userId": "{{param:userId}}"},
			},
			expectURL: "http://api.local/users/42/posts",
		},
		"array from response joins csv": {
			se: schema.StepEndpoint{
				EndpointID:  "ep-posts",
				PathParams:  map[string]string{"userId": "7"},
				QueryParams: map[string]string{"ids": "{{res:step1-0.ids}}"},
			},
			expectURL: "http://api.local/users/7/posts?ids=1%2C2%2C3",
		},
		"array with pipes format": {
			se: schema.StepEndpoint{
				EndpointID:  "ep-posts",
				PathParams:  map[string]string{"userId": "7"},
				QueryParams: map[string]string{"tags": "a|b|c"},
			},
			expectURL: "http://api.local/users/7/posts?tags=a%7Cb%7Cc",
		},
		"exploded array repeats the key": {
			se: schema.StepEndpoint{
				EndpointID:  "ep-posts",
				PathParams:  map[string]string{"userId": "7"},
				QueryParams: map[string]string{"fields": "{{res:step1-0.ids}}"},
			},
			expectURL: "http://api.local/users/7/posts?fields=1&fields=2&fields=3",
		},
		"scalar query value": {
			se: schema.StepEndpoint{
				EndpointID:  "ep-posts",
				PathParams:  map[string]string{"userId": "7"},
				QueryParams: map[string]string{"q": "{{param:tag}}"},
			},
			expectURL: "http://api.local/users/7/posts?q=go+lang",
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := composeRequest("step2-0", ep, &test.se, hosts, composeContext())
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if req.URL != test.expectURL {
				t.Errorf("expect %q but got %q", test.expectURL, req.URL)
			}
			if req.Method != "GET" {
				t.Errorf("expect GET but got %q", req.Method)
			}
		})
	}
}

func TestComposeRequest_Headers(t *testing.T) {
	ep := &schema.Endpoint{ID: "ep-me", Method: "GET", Path: "/me", APIID: 1}
	se := &schema.StepEndpoint{
		EndpointID: "ep-me",
		Headers: []schema.Header{
			{Name: "Authorization", Value: "Bearer {{param:token}}", Enabled: true},
			{Name: "X-Debug", Value: "1", Enabled: false},
		},
	}
	req, err := composeRequest("step1-0", ep, se, map[int]string{1: "http://api.local"}, composeContext())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got, expect := req.Header.Get("Authorization"), "Bearer tok-1"; got != expect {
		t.Errorf("expect %q but got %q", expect, got)
	}
	if req.Header.Get("X-Debug") != "" {
		t.Error("disabled header must not be sent")
	}
}

func TestComposeRequest_Body(t *testing.T) {
	ep := &schema.Endpoint{ID: "ep-login", Method: "POST", Path: "/login", APIID: 1}
	se := &schema.StepEndpoint{
		EndpointID: "ep-login",
		Body: map[string]any{
			"user": "{{param:tag}}",
			"ids":  "{{{res:step1-0.ids}}}",
		},
	}
	req, err := composeRequest("step1-0", ep, se, map[int]string{1: "http://api.local"}, composeContext())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	expect := map[string]any{
		"user": "go lang",
		"ids":  []any{json.Number("1"), json.Number("2"), json.Number("3")},
	}
	if diff := cmp.Diff(expect, req.Body); diff != "" {
		t.Errorf("body differs: (-want +got)\n%s", diff)
	}
}

func TestComposeRequest_MissingHost(t *testing.T) {
	ep := &schema.Endpoint{ID: "ep-me", Method: "GET", Path: "/me", APIID: 9}
	_, err := composeRequest("step1-0", ep, &schema.StepEndpoint{EndpointID: "ep-me"}, map[int]string{1: "http://api.local"}, composeContext())
	if err == nil {
		t.Fatal("expected an error")
	}
	var verr *errors.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected a validation error but got %T", err)
	}
}
