package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per caller over a fixed window. Callers are
// keyed by tenant plus client IP so one noisy tenant cannot exhaust the
// allowance of others behind the same NAT address.
type RateLimiter struct {
	mu       sync.Mutex
	counters map[string]*counter
	limit    int
	window   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	count     int
	startedAt time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window.
// A background goroutine evicts stale counters; call Stop to terminate it.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		counters: make(map[string]*counter),
		limit:    limit,
		window:   window,
		stop:     make(chan struct{}),
	}
	go rl.evictLoop()
	return rl
}

// Stop terminates the eviction goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * rl.window)
			rl.mu.Lock()
			for key, c := range rl.counters {
				if c.startedAt.Before(cutoff) {
					delete(rl.counters, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Take consumes one slot for the key and reports whether it fit in the
// current window, along with the caller's remaining allowance
func (rl *RateLimiter) Take(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.counters[key]
	if !ok || now.Sub(c.startedAt) >= rl.window {
		rl.counters[key] = &counter{count: 1, startedAt: now}
		return true, rl.limit - 1
	}

	if c.count >= rl.limit {
		return false, 0
	}
	c.count++
	return true, rl.limit - c.count
}

// RateLimit rejects callers above the limiter's allowance with 429 and
// advertises the budget through the X-RateLimit response headers
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if tenantID := c.GetHeader("X-Tenant-ID"); tenantID != "" {
			key = tenantID + ":" + key
		}

		allowed, remaining := limiter.Take(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		c.Next()
	}
}
