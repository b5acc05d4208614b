package oracle

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a token bucket keyed in requests per second. Each
// client owns one limiter; all calls pass through Wait before hitting
// the network.
type rateLimiter struct {
	mu sync.Mutex

	rps    float64
	tokens float64
	last   time.Time
}

func newRateLimiter(rps float64) *rateLimiter {
	if rps <= 0 {
		rps = 1.0
	}
	return &rateLimiter{
		rps:    rps,
		tokens: rps,
		last:   time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (r *rateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refill()
		if r.tokens >= 1.0 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		needed := 1.0 - r.tokens
		wait := time.Duration(needed / r.rps * float64(time.Second))
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// refill adds tokens for elapsed time. Caller must hold the lock.
func (r *rateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(r.last).Seconds()
	r.last = now

	r.tokens += elapsed * r.rps
	if r.tokens > r.rps {
		r.tokens = r.rps
	}
}
