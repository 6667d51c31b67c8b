package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/reservalo/agenda-api/pkg/errors"
	"github.com/reservalo/agenda-api/pkg/response"
)

type rateLimitVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP using token buckets.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*rateLimitVisitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

// NewRateLimiter builds a limiter allowing requestsPerMinute sustained requests
// per client with the given burst headroom.
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return &RateLimiter{
		visitors: make(map[string]*rateLimitVisitor),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
		idleTTL:  3 * time.Minute,
	}
}

// Middleware rejects requests exceeding the per-IP budget with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.Error(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	visitor, ok := rl.visitors[ip]
	if !ok {
		visitor = &rateLimitVisitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = visitor
	}
	visitor.lastSeen = now

	if len(rl.visitors) > 1024 {
		rl.pruneLocked(now)
	}

	return visitor.limiter.Allow()
}

func (rl *RateLimiter) pruneLocked(now time.Time) {
	for ip, visitor := range rl.visitors {
		if now.Sub(visitor.lastSeen) > rl.idleTTL {
			delete(rl.visitors, ip)
		}
	}
}
