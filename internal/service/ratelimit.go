package service

import (
	"sync"
	"time"
)

// rateLimiter is a simple fixed-window rate limiter keyed by channel token.
// Each channel has an independent counter that resets after window duration.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*windowBucket
}

type windowBucket struct {
	count   int
	resetAt time.Time
}

// newRateLimiter returns a limiter allowing limit requests per window per
// channel. A non-positive limit disables limiting entirely.
func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*windowBucket),
	}
}

// Allow returns true if the channel is within its rate limit, false when
// exceeded. It is safe for concurrent use from multiple goroutines.
func (r *rateLimiter) Allow(token string) bool {
	if r.limit <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	b, ok := r.buckets[token]
	if !ok || now.After(b.resetAt) {
		r.buckets[token] = &windowBucket{count: 1, resetAt: now.Add(r.window)}
		return true
	}
	if b.count >= r.limit {
		return false
	}
	b.count++
	return true
}
