// Package ratelimit bounds accepted requests per vendor over a fixed
// (tumbling) window. A burst straddling a window boundary can admit up to
// twice the limit; the window semantics are part of the external contract
// (Retry-After), so this is documented rather than traded for a sliding
// window.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"sentra/internal/domain"

	"go.uber.org/zap"
)

type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	data    map[string]*bucket
	maxKeys int
	logger  *zap.Logger
}

// bucket is replaced wholesale when its window expires, never reused across
// windows.
type bucket struct {
	count     int
	windowEnd time.Time
}

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
	Logger  *zap.Logger
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) *MemoryLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &MemoryLimiter{
		now:     cfg.Now,
		data:    make(map[string]*bucket),
		maxKeys: cfg.MaxKeys,
		logger:  cfg.Logger,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.data[key]
	if ok && !now.Before(b.windowEnd) {
		// Expired entries are logically absent even before the sweeper
		// reclaims them.
		delete(m.data, key)
		ok = false
	}
	if !ok {
		if len(m.data) >= m.maxKeys {
			m.sweepLocked(now)
		}
		if len(m.data) >= m.maxKeys {
			return domain.RateLimitDecision{}, errors.New("rate limiter capacity exceeded")
		}
		b = &bucket{windowEnd: now.Add(window)}
		m.data[key] = b
	}

	if b.count < limit {
		b.count++
		return domain.RateLimitDecision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - b.count,
			ResetAt:   b.windowEnd,
		}, nil
	}

	decision := domain.RateLimitDecision{
		Limit:      limit,
		ResetAt:    b.windowEnd,
		RetryAfter: retryAfterSeconds(b.windowEnd, now),
	}
	m.logger.Warn("rate limit exceeded",
		zap.String("key", key),
		zap.Int("count", b.count),
		zap.Int("retry_after_seconds", decision.RetryAfter))
	return decision, nil
}

// Sweep removes expired buckets and reports how many were reclaimed. Purely
// a memory-reclamation concern; Allow never observes the difference.
func (m *MemoryLimiter) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(now)
}

// sweepLocked re-checks expiry under the lock, so a bucket replaced by a
// concurrent Allow is never removed.
func (m *MemoryLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for key, b := range m.data {
		if !now.Before(b.windowEnd) {
			delete(m.data, key)
			removed++
		}
	}
	return removed
}

// retryAfterSeconds rounds up so a caller that waits the advertised delay
// always lands in the next window.
func retryAfterSeconds(windowEnd, now time.Time) int {
	remaining := windowEnd.Sub(now)
	if remaining <= 0 {
		return 1
	}
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
