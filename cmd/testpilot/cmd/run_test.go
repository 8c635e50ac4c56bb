package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/khanh1998/test-pilot-sub005/errors"
)

const runFlowYAML = `id: login-flow
name: Login
parameters:
  - name: username
    type: string
    required: true
endpoints:
  - id: ep-login
    method: POST
    path: /login
    apiId: 1
steps:
  - id: step1
    endpoints:
      - endpointId: ep-login
        body:
          username: "{{param:username}}"
        transformations:
          - alias: token
            expression: $.data.token
        assertions:
          - source: response
            dataId: status_code
            operator: equals
            value: 200
outputs:
  - name: token
    value: "{{res:step1-0.token}}"
    type: string
settings:
  apiHosts:
    1: %s
`

func resetRunFlags() {
	envPath = ""
	subEnv = ""
	mappingsPath = ""
	paramFlags = nil
	proxyURL = ""
	timeoutMS = 0
	verbose = false
	noColor = false
}

func writeFlow(t *testing.T, host string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	if err := os.WriteFile(path, []byte(fmt.Sprintf(runFlowYAML, host)), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetRunFlags()
	t.Cleanup(resetRunFlags)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := Execute(context.Background())
	return buf.String(), err
}

func TestRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"token":"tok-1"}}`))
	}))
	defer srv.Close()
	path := writeFlow(t, srv.URL)

	t.Run("missing parameters are reported", func(t *testing.T) {
		out, err := execute(t, "run", path, "--no-color")
		if !errors.Is(err, ErrFlowFailed) {
			t.Fatalf("expect ErrFlowFailed but got %v", err)
		}
		if !strings.Contains(out, "missing required parameters: username") {
			t.Errorf("missing parameter not reported:\n%s", out)
		}
	})
	t.Run("completed run prints the summary", func(t *testing.T) {
		out, err := execute(t, "run", path, "--param", "username=admin", "--no-color", "--verbose")
		if err != nil {
			t.Fatalf("unexpected error: %s\n%s", err, out)
		}
		if !strings.Contains(out, "status: completed") {
			t.Errorf("summary not rendered:\n%s", out)
		}
		if !strings.Contains(out, "token: tok-1") {
			t.Errorf("outputs not rendered:\n%s", out)
		}
		if !strings.Contains(out, "PASS: step1-0") {
			t.Errorf("endpoint transition not rendered:\n%s", out)
		}
	})
}

func TestRun_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	path := writeFlow(t, srv.URL)

	out, err := execute(t, "run", path, "--param", "username=admin", "--no-color")
	if !errors.Is(err, ErrFlowFailed) {
		t.Fatalf("expect ErrFlowFailed but got %v", err)
	}
	if !strings.Contains(out, "status: failed") {
		t.Errorf("failure summary not rendered:\n%s", out)
	}
}

func TestParseParams(t *testing.T) {
	values, err := parseParams([]string{"name=admin", "limit=10", "debug=true", "note=a=b"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if values["name"] != "admin" {
		t.Errorf("unexpected name %v", values["name"])
	}
	if v, ok := values["limit"].(uint64); !ok || v != 10 {
		if v, ok := values["limit"].(int64); !ok || v != 10 {
			t.Errorf("limit did not decode as a number: %T %v", values["limit"], values["limit"])
		}
	}
	if values["debug"] != true {
		t.Errorf("debug did not decode as a boolean: %v", values["debug"])
	}
	if values["note"] != "a=b" {
		t.Errorf("value with '=' must split at the first one: %v", values["note"])
	}

	if _, err := parseParams([]string{"novalue"}); err == nil {
		t.Error("expected an error for a flag without '='")
	}
}
