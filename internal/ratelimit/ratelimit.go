// Package ratelimit admits requests per client key over a rolling window.
package ratelimit

import (
	"context"
	"time"
)

// Rule allows Limit requests per key in any Window-long interval.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // zero when Allowed
}

// Limiter records a hit for key and reports whether it is admitted.
// Rejected hits are not recorded.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func (r Rule) valid() bool { return r.Limit > 0 && r.Window > 0 }
