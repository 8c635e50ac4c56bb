// Package transport issues the HTTP requests of a flow run, either directly
// or through a cookie-forwarding proxy, and owns the per-run cookie store.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// DefaultTimeout bounds a single request unless the flow settings override it.
const DefaultTimeout = 30000 * time.Millisecond

// Request is a fully composed request ready to be issued.
type Request struct {
	// Key is the endpoint key ("stepID-index") the response and any
	// captured cookies are recorded under.
	Key    string
	Method string
	URL    string
	Header http.Header
	// Body is JSON-encoded when non-nil; strings pass through as-is.
	Body any
}

// Response is the parsed outcome of one request.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	// Body is parsed according to the response Content-Type: decoded JSON
	// (numbers as json.Number), text, or a JSON-then-text fallback.
	Body     any
	RawBody  []byte
	Duration time.Duration
}

// IsSuccess reports whether the response status is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues one composed request.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// CookieStore holds the cookies captured during one run, keyed by the
// endpoint that set them. It is scoped to a single run and cleared on reset
// or by a step's clear-cookies flag.
type CookieStore struct {
	mu      sync.Mutex
	entries map[string][]*http.Cookie
}

func NewCookieStore() *CookieStore {
	return &CookieStore{entries: map[string][]*http.Cookie{}}
}

// Set records the cookies captured by the endpoint key, replacing earlier
// captures of the same key.
func (s *CookieStore) Set(key string, cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = cookies
}

// All returns the union of every captured cookie across all endpoints.
// The aggregation is deliberately not domain-scoped, matching the proxied
// transport's forwarding behavior.
func (s *CookieStore) All() []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*http.Cookie
	for _, cs := range s.entries {
		all = append(all, cs...)
	}
	return all
}

// Clear empties the store.
func (s *CookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[string][]*http.Cookie{}
}

// Len returns the number of endpoint keys holding cookies.
func (s *CookieStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
