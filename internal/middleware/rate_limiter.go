package middleware

import (
	"sync"
	"time"

	"balwatch/internal/errors"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	// visitorTTL is how long an idle client keeps its bucket.
	visitorTTL = 3 * time.Minute
	// sweepInterval bounds how often the visitor map is swept.
	sweepInterval = time.Minute
)

// rateLimiter tracks one token bucket per client IP. The control-plane
// is a single-user surface; the limiter exists to keep a misbehaving
// wizard or script from hammering the config store.
type rateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

// RateLimiter creates a per-IP rate limiting middleware.
func RateLimiter(requestsPerSecond, burst int) echo.MiddlewareFunc {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
		now:      time.Now,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.visitorFor(clientIP(c)).Allow() {
				traceID := GetTraceID(c)
				resp := errors.NewErrorResponse(errors.SystemRateLimitExceeded, traceID)
				return c.JSON(resp.GetHTTPStatus(), resp)
			}
			return next(c)
		}
	}
}

func (rl *rateLimiter) visitorFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepStale(now)

	v, exists := rl.visitors[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rps, rl.burst)
		rl.visitors[ip] = &visitor{limiter, now}
		return limiter
	}

	v.lastSeen = now
	return v.limiter
}

// sweepStale drops visitors idle longer than visitorTTL, at most once
// per sweepInterval. Runs inline on request arrival instead of in a
// background goroutine; the caller holds the mutex.
func (rl *rateLimiter) sweepStale(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.lastSweep = now
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(rl.visitors, ip)
		}
	}
}

func clientIP(c echo.Context) string {
	if xff := c.Request().Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := c.Request().Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return c.RealIP()
}
