package schema

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy re-issues a request after network-classified failures.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int `yaml:"maxRetries" json:"maxRetries"`
	// Interval is the initial wait in milliseconds (default 1000).
	Interval int `yaml:"interval,omitempty" json:"interval,omitempty"`
	// Multiplier grows the interval per attempt; values <= 1 keep it constant.
	Multiplier float64 `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
}

// Build returns the backoff schedule of the policy.
// A nil policy performs a single attempt.
func (p *RetryPolicy) Build() backoff.BackOff {
	if p == nil || p.MaxRetries <= 0 {
		return &backoff.StopBackOff{}
	}
	interval := time.Duration(p.Interval) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	var b backoff.BackOff
	if p.Multiplier > 1 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = interval
		eb.Multiplier = p.Multiplier
		eb.RandomizationFactor = 0
		eb.MaxElapsedTime = 0
		b = eb
	} else {
		b = backoff.NewConstantBackOff(interval)
	}
	return backoff.WithMaxRetries(b, uint64(p.MaxRetries))
}
