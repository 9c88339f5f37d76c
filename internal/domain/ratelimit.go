package domain

import (
	"context"
	"time"
)

type RateLimitDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, populated on rejection
}

// RateLimiter bounds accepted work per key over a fixed (tumbling) window.
// A burst straddling a window boundary may admit up to twice the limit; this
// is the accepted cost of O(1) state per key and stable Retry-After
// semantics.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
