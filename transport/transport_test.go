package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/schema"
)

func TestParseBody(t *testing.T) {
	tests := map[string]struct {
		raw         string
		contentType string
		expect      any
	}{
		"json object": {
			raw:         `{"id":1}`,
			contentType: "application/json",
			expect:      map[string]any{"id": json.Number("1")},
		},
		"json with charset": {
			raw:         `{"ok":true}`,
			contentType: "application/json; charset=utf-8",
			expect:      map[string]any{"ok": true},
		},
		"problem+json": {
			raw:         `{"title":"nope"}`,
			contentType: "application/problem+json",
			expect:      map[string]any{"title": "nope"},
		},
		"text": {
			raw:         "hello",
			contentType: "text/plain",
			expect:      "hello",
		},
		"xml stays text": {
			raw:         "<a>1</a>",
			contentType: "application/xml",
			expect:      "<a>1</a>",
		},
		"unknown type json fallback": {
			raw:         `[1,2]`,
			contentType: "application/octet-stream",
			expect:      []any{json.Number("1"), json.Number("2")},
		},
		"unknown type text fallback": {
			raw:         "not json",
			contentType: "application/octet-stream",
			expect:      "not json",
		},
		"invalid json stays text": {
			raw:         "{broken",
			contentType: "application/json",
			expect:      "{broken",
		},
		"empty": {
			raw:         "",
			contentType: "application/json",
			expect:      nil,
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := parseBody([]byte(test.raw), test.contentType)
			if diff := cmp.Diff(test.expect, got); diff != "" {
				t.Errorf("differs: (-want +got)\n%s", diff)
			}
		})
	}
}

func TestDirect_Do(t *testing.T) {
	var gotCookies []*http.Cookie
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1"})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		gotCookies = r.Cookies()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewCookieStore()
	d := NewDirect(store, time.Second)

	resp, err := d.Do(context.Background(), &Request{Key: "step1-0", Method: http.MethodPost, URL: srv.URL + "/login", Body: map[string]any{"u": "a"}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !resp.IsSuccess() {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one cookie entry but got %d", store.Len())
	}

	if _, err := d.Do(context.Background(), &Request{Key: "step2-0", Method: http.MethodGet, URL: srv.URL + "/me"}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(gotCookies) != 1 || gotCookies[0].Name != "session" {
		t.Errorf("captured cookies were not forwarded: %v", gotCookies)
	}
}

func TestDirect_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	d := NewDirect(NewCookieStore(), 20*time.Millisecond)
	_, err := d.Do(context.Background(), &Request{Key: "step1-0", Method: http.MethodGet, URL: srv.URL})
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	var nerr *errors.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected a network error but got %T", err)
	}
	if !nerr.Timeout {
		t.Error("error not classified as timeout")
	}
}

func TestProxy_Do(t *testing.T) {
	var envelope proxyEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			t.Errorf("bad envelope: %s", err)
		}
		json.NewEncoder(w).Encode(proxyResult{
			StatusCode: 200,
			Header:     map[string]string{"Content-Type": "application/json"},
			Body:       `{"token":"tok"}`,
			Cookies:    []proxyCookie{{Name: "session", Value: "s2"}},
			DurationMS: 12,
		})
	}))
	defer srv.Close()

	store := NewCookieStore()
	store.Set("step0-0", []*http.Cookie{{Name: "prev", Value: "v"}})
	p := NewProxy(srv.URL, store, time.Second)

	resp, err := p.Do(context.Background(), &Request{
		Key:    "step1-0",
		Method: http.MethodPost,
		URL:    "https://api.internal/login",
		Header: http.Header{"X-Trace": []string{"t1"}},
		Body:   map[string]any{"u": "a"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got, expect := envelope.URL, "https://api.internal/login"; got != expect {
		t.Errorf("expect %q but got %q", expect, got)
	}
	if len(envelope.Cookies) != 1 || envelope.Cookies[0].Name != "prev" {
		t.Errorf("prior cookies not forwarded: %v", envelope.Cookies)
	}
	if diff := cmp.Diff(map[string]any{"token": "tok"}, resp.Body); diff != "" {
		t.Errorf("body differs: (-want +got)\n%s", diff)
	}
	if resp.Duration != 12*time.Millisecond {
		t.Errorf("expect proxy-reported duration but got %s", resp.Duration)
	}
	if store.Len() != 2 {
		t.Errorf("proxy cookies not stored, have %d entries", store.Len())
	}
}

type countingClient struct {
	calls int
	failN int
}

func (c *countingClient) Do(ctx context.Context, req *Request) (*Response, error) {
	c.calls++
	if c.calls <= c.failN {
		return nil, errors.Network(req.Key, errors.New("connection refused"))
	}
	return &Response{StatusCode: 200}, nil
}

func TestWithRetry(t *testing.T) {
	t.Run("recovers after failures", func(t *testing.T) {
		c := &countingClient{failN: 2}
		client := WithRetry(c, &schema.RetryPolicy{MaxRetries: 3, Interval: 1})
		resp, err := client.Do(context.Background(), &Request{Key: "step1-0"})
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("unexpected status %d", resp.StatusCode)
		}
		if c.calls != 3 {
			t.Errorf("expect 3 attempts but got %d", c.calls)
		}
	})
	t.Run("exhausts retries", func(t *testing.T) {
		c := &countingClient{failN: 10}
		client := WithRetry(c, &schema.RetryPolicy{MaxRetries: 2, Interval: 1})
		if _, err := client.Do(context.Background(), &Request{Key: "step1-0"}); err == nil {
			t.Fatal("expected an error")
		}
		if c.calls != 3 {
			t.Errorf("expect 3 attempts but got %d", c.calls)
		}
	})
	t.Run("nil policy passes through", func(t *testing.T) {
		c := &countingClient{}
		if got := WithRetry(c, nil); got != Client(c) {
			t.Error("expected the original client")
		}
	})
}
