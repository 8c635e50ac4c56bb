package transport

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/khanh1998/test-pilot-sub005/errors"
	"github.com/khanh1998/test-pilot-sub005/schema"
)

// WithRetry wraps c so that network-classified failures re-issue the request
// according to the policy. Responses, including non-2xx ones, never retry:
// the status verdict belongs to the assertion evaluator.
func WithRetry(c Client, policy *schema.RetryPolicy) Client {
	if policy == nil || policy.MaxRetries <= 0 {
		return c
	}
	return &retryClient{next: c, policy: policy}
}

type retryClient struct {
	next   Client
	policy *schema.RetryPolicy
}

func (r *retryClient) Do(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	op := func() error {
		var err error
		resp, err = r.next.Do(ctx, req)
		if err == nil {
			return nil
		}
		var nerr *errors.NetworkError
		if errors.As(err, &nerr) {
			return err
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, backoff.WithContext(r.policy.Build(), ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}
