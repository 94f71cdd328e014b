package ledger

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-operation rate limiting using a token bucket
// per gateway operation, so a burst of balance polls cannot starve a
// transaction submit.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a rate limiter with the specified sustained rate
// (requests per second) and burst size.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// DefaultRateLimiter returns a limiter tuned for public gateway nodes:
// 5 requests/second with a burst of 10.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(5, 10)
}

// Allow reports whether a request for the operation may proceed now.
func (r *RateLimiter) Allow(operation string) bool {
	return r.limiterFor(operation).Allow()
}

// Wait blocks until a request for the operation is allowed or the context
// is canceled.
func (r *RateLimiter) Wait(ctx context.Context, operation string) error {
	return r.limiterFor(operation).Wait(ctx)
}

func (r *RateLimiter) limiterFor(operation string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[operation]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, exists = r.limiters[operation]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[operation] = limiter
	return limiter
}
