package middleware

import (
	"sync"
	"time"

	"precast-tracker/internal/logger"
	appErrors "precast-tracker/pkg/errors"
	"precast-tracker/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per caller. Authenticated requests are
// keyed by actor id so a crew sharing one site connection is not throttled
// as a single client; anonymous requests fall back to the client IP.
type RateLimiter struct {
	name      string
	rate      rate.Limit
	burst     int
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns nil when rps is not positive, which disables the
// limit.
func NewRateLimiter(name string, rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		name:      name,
		rate:      rate.Limit(rps),
		burst:     burst,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

// Allow takes one token from key's bucket.
func (rl *RateLimiter) Allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > limiterIdleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > limiterIdleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// RateLimitMiddleware answers 429 RATE_LIMITED once the caller's bucket is
// empty. A nil limiter lets every request through.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil {
			c.Next()
			return
		}

		key := callerKey(c)
		if !rl.Allow(key, time.Now()) {
			logger.Warn("Rate limit exceeded",
				zap.String("request_id", GetRequestID(c)),
				zap.String("limit", rl.name),
				zap.String("caller", key),
				zap.String("path", c.FullPath()),
				zap.String("event", "rate_limited"),
			)
			utils.RespondError(c, appErrors.New(appErrors.KindRateLimited, "rate limit exceeded").
				WithDetail("limit", rl.name))
			c.Abort()
			return
		}

		c.Next()
	}
}

func callerKey(c *gin.Context) string {
	if id, ok := CurrentUserID(c); ok {
		return "actor:" + id.String()
	}
	return "ip:" + c.ClientIP()
}
