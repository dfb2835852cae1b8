package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gpuindex/gpu-price-index/internal/cache"
)

// EndpointRateLimiter applies tighter limits to individual routes on top of
// the global limiter.
type EndpointRateLimiter struct {
	counter  cache.Counter
	limiters map[string]*RateLimiter
	mu       sync.RWMutex
}

func NewEndpointRateLimiter(counter cache.Counter) *EndpointRateLimiter {
	return &EndpointRateLimiter{
		counter:  counter,
		limiters: make(map[string]*RateLimiter),
	}
}

// AddEndpoint limits requests to the route pattern path, e.g. "/api/sync".
func (erl *EndpointRateLimiter) AddEndpoint(path string, limit int, window time.Duration) {
	erl.mu.Lock()
	defer erl.mu.Unlock()
	erl.limiters[path] = NewRateLimiter(erl.counter, "endpoint"+path, limit, window)
}

func (erl *EndpointRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		erl.mu.RLock()
		limiter, exists := erl.limiters[c.FullPath()]
		erl.mu.RUnlock()

		if exists {
			if ok, _ := limiter.Allow(c.Request.Context(), c.ClientIP()); !ok {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"error":       "rate limit exceeded for this endpoint",
					"retry_after": limiter.Window().Seconds(),
				})
				return
			}
		}

		c.Next()
	}
}
