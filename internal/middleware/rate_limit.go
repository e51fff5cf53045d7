package middleware

import (
	"sync"
	"time"

	"taskdesk-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// KeyFunc extracts the rate limiting key from a request.
type KeyFunc func(*fiber.Ctx) string

// IPKeyFunc limits per client IP.
func IPKeyFunc(c *fiber.Ctx) string {
	return c.IP()
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key. Buckets idle for longer than
// idleTTL are dropped on the next sweep.
type RateLimiter struct {
	extractKey KeyFunc
	rate       rate.Limit
	burst      int

	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	lastSweep time.Time
	idleTTL   time.Duration
	now       func() time.Time
}

func NewRateLimiter(keyFunc KeyFunc, limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		extractKey: keyFunc,
		rate:       limit,
		burst:      burst,
		limiters:   make(map[string]*limiterEntry),
		idleTTL:    10 * time.Minute,
		now:        time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > rl.idleTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		// Keys from c.Get/c.Params alias the request buffer, which fasthttp reuses.
		rl.limiters[utils.CopyString(key)] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Handler rejects requests over the limit with 429.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.getLimiter(rl.extractKey(c)).Allow() {
			log.Warn().
				Str("trace_id", GetTraceID(c)).
				Str("ip", c.IP()).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("rate limit exceeded")
			return response.Error(c, "Too many requests", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
