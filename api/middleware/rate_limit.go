package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gpuindex/gpu-price-index/internal/cache"
	"github.com/gpuindex/gpu-price-index/internal/logger"
)

const RateLimitRemainingHeader = "X-RateLimit-Remaining"

// RateLimiter is a fixed-window counter per client key. The counter store
// decides whether windows are shared between replicas.
type RateLimiter struct {
	counter cache.Counter
	limit   int
	window  time.Duration
	scope   string
	now     func() time.Time
}

func NewRateLimiter(counter cache.Counter, scope string, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		counter: counter,
		limit:   limit,
		window:  window,
		scope:   scope,
		now:     time.Now,
	}
}

func (rl *RateLimiter) windowKey(key string) string {
	bucket := rl.now().UnixNano() / int64(rl.window)
	return fmt.Sprintf("ratelimit:%s:%s:%d", rl.scope, key, bucket)
}

// Allow records one hit for key and reports whether it fits the window.
// Counter failures admit the request.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int) {
	if rl.limit <= 0 {
		return true, -1
	}

	wk := rl.windowKey(key)
	n, err := rl.counter.Increment(ctx, wk)
	if err != nil {
		logger.WithField("key", key).WithError(err).Warn("Rate limit counter unavailable")
		return true, rl.limit
	}
	if n == 1 {
		if err := rl.counter.Expire(ctx, wk, rl.window); err != nil {
			logger.WithField("key", key).WithError(err).Warn("Failed to set rate limit window expiry")
		}
	}

	remaining := rl.limit - int(n)
	if remaining < 0 {
		return false, 0
	}
	return true, remaining
}

func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}

func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, remaining := rl.Allow(c.Request.Context(), c.ClientIP())
		if remaining >= 0 {
			c.Header(RateLimitRemainingHeader, strconv.Itoa(remaining))
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": rl.window.Seconds(),
			})
			return
		}
		c.Next()
	}
}
