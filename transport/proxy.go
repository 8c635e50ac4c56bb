package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/khanh1998/test-pilot-sub005/errors"
)

// Proxy forwards prepared requests through a trusted intermediary that
// performs the call and returns the response plus any set-cookie data.
// The forwarded cookie set is the union of all cookies captured so far
// across all steps; it is not domain-scoped.
type Proxy struct {
	endpoint string
	client   *http.Client
	cookies  *CookieStore
	timeout  time.Duration
}

// NewProxy returns a proxied transport posting envelopes to endpoint.
func NewProxy(endpoint string, store *CookieStore, timeout time.Duration) *Proxy {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Proxy{
		endpoint: endpoint,
		client:   &http.Client{},
		cookies:  store,
		timeout:  timeout,
	}
}

type proxyCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

type proxyEnvelope struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Header  map[string]string `json:"header,omitempty"`
	Body    any               `json:"body,omitempty"`
	Cookies []proxyCookie     `json:"cookies,omitempty"`
}

type proxyResult struct {
	StatusCode int               `json:"status_code"`
	Status     string            `json:"status,omitempty"`
	Header     map[string]string `json:"header,omitempty"`
	Body       string            `json:"body"`
	Cookies    []proxyCookie     `json:"cookies,omitempty"`
	DurationMS int64             `json:"duration_ms,omitempty"`
}

// Do implements the Client interface.
func (p *Proxy) Do(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	env := proxyEnvelope{
		Method: req.Method,
		URL:    req.URL,
		Body:   req.Body,
	}
	if len(req.Header) > 0 {
		env.Header = map[string]string{}
		for name := range req.Header {
			env.Header[name] = req.Header.Get(name)
		}
	}
	for _, c := range p.cookies.All() {
		env.Cookies = append(env.Cookies, proxyCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
		})
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode proxy envelope for %s", req.Key)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build proxy request for %s", req.Key)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classify(req.Key, err)
	}
	defer httpResp.Body.Close()
	respRaw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classify(req.Key, err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, errors.Network(req.Key, errors.Errorf("proxy returned status %s", httpResp.Status))
	}

	var result proxyResult
	if err := json.Unmarshal(respRaw, &result); err != nil {
		return nil, errors.Network(req.Key, errors.Wrap(err, "malformed proxy response"))
	}

	duration := time.Since(start)
	if result.DurationMS > 0 {
		duration = time.Duration(result.DurationMS) * time.Millisecond
	}

	if len(result.Cookies) > 0 {
		cookies := make([]*http.Cookie, len(result.Cookies))
		for i, c := range result.Cookies {
			cookies[i] = &http.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain, Path: c.Path}
		}
		p.cookies.Set(req.Key, cookies)
	}

	header := http.Header{}
	contentType := ""
	for name, v := range result.Header {
		header.Set(name, v)
		if http.CanonicalHeaderKey(name) == "Content-Type" {
			contentType = v
		}
	}
	status := result.Status
	if status == "" {
		status = http.StatusText(result.StatusCode)
	}
	return &Response{
		StatusCode: result.StatusCode,
		Status:     status,
		Header:     header,
		Body:       parseBody([]byte(result.Body), contentType),
		RawBody:    []byte(result.Body),
		Duration:   duration,
	}, nil
}
