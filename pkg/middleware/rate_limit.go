package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/training-portal/pkg/response"
)

// RateLimiter is a fixed-window limiter keyed by client IP. It guards the
// endpoints that accept the admin secret or a password.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	count int
	start time.Time
}

// NewRateLimiter allows limit requests per period for each client. Stale
// entries are swept until ctx is cancelled.
func NewRateLimiter(ctx context.Context, limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}

	go rl.sweep(ctx)

	return rl
}

// Middleware rejects requests over the limit with 429 and a Retry-After hint.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := rl.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			response.Error(c, http.StatusTooManyRequests, "Too many requests, please try again later", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.windows[key] = &window{count: 1, start: now}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, rl.period - now.Sub(w.start)
	}
	w.count++
	return true, 0
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	ticker := time.NewTicker(rl.period * 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, w := range rl.windows {
				if now.Sub(w.start) >= rl.period {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
