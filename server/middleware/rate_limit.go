package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	engineerrors "github.com/hrygo/slotwise/server/internal/errors"
)

// Default limits per client: 2 messages per second, burst of 10.
const (
	DefaultRate  = rate.Limit(2)
	DefaultBurst = 10
)

// RateLimiter throttles assistant traffic per client key.
type RateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	rate   rate.Limit
	burst  int
}

// NewRateLimiter creates a new rate limiter. Non-positive values use the
// defaults.
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	if r <= 0 {
		r = DefaultRate
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &RateLimiter{
		limits: make(map[string]*rate.Limiter),
		rate:   r,
		burst:  burst,
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rl.Allow(c.RealIP()) {
				return next(c)
			}
			c.Response().Header().Set("Retry-After", retryAfter(rl.rate))
			limited := engineerrors.RateLimitExceeded("Too many requests. Please slow down and try again shortly.")
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error_code": string(limited.Code),
				"message":    limited.Message,
			})
		}
	}
}

// retryAfter is the Retry-After header value in whole seconds.
func retryAfter(r rate.Limit) string {
	seconds := int(math.Ceil(1 / float64(r)))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
