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

// Direct issues requests from the caller's own network context.
type Direct struct {
	client  *http.Client
	cookies *CookieStore
	timeout time.Duration
}

// NewDirect returns a direct transport writing captured cookies to store.
// A zero timeout falls back to DefaultTimeout.
func NewDirect(store *CookieStore, timeout time.Duration) *Direct {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Direct{
		client:  &http.Client{},
		cookies: store,
		timeout: timeout,
	}
}

// Do implements the Client interface.
func (d *Direct) Do(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode request body for %s", req.Key)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build request for %s", req.Key)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for _, c := range d.cookies.All() {
		httpReq.AddCookie(c)
	}

	start := time.Now()
	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, classify(req.Key, err)
	}
	defer httpResp.Body.Close()
	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classify(req.Key, err)
	}
	duration := time.Since(start)

	d.cookies.Set(req.Key, httpResp.Cookies())

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       parseBody(raw, httpResp.Header.Get("Content-Type")),
		RawBody:    raw,
		Duration:   duration,
	}, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return bytes.NewReader([]byte(b)), "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(raw), "application/json", nil
	}
}

// classify wraps a transport failure as a network error, marking timeouts.
func classify(key string, err error) error {
	nerr := errors.Network(key, err)
	if errors.Is(err, context.DeadlineExceeded) {
		nerr.Timeout = true
		return nerr
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		nerr.Timeout = true
	}
	return nerr
}
