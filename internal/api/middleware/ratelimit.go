package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/logger"
	"golang.org/x/time/rate"
)

// Rate limiter defaults
const (
	DefaultRequestsPerSecond = 10.0
	DefaultBurst             = 20
	DefaultCleanupInterval   = 10 * time.Minute
)

// IPRateLimiter manages rate limiters per IP address
type IPRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    b,
	}
}

// GetLimiter returns the rate limiter for the given IP
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rate, i.burst)
		i.limiters[ip] = limiter
	}

	return limiter
}

// Len returns the number of tracked addresses.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// CleanupOldEntries forgets every tracked address.
func (i *IPRateLimiter) CleanupOldEntries() {
	i.mu.Lock()
	defer i.mu.Unlock()
	clear(i.limiters)
}

// StartCleanup clears the limiter every interval until ctx is done.
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				i.CleanupOldEntries()
			}
		}
	}()
}

// RateLimitConfig configures RateLimiter
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	Security          *logger.SecurityLogger
	Logger            *slog.Logger
}

// RateLimiter returns per-IP rate limiting middleware backed by limiter.
// A nil limiter is built from cfg.
func RateLimiter(limiter *IPRateLimiter, cfg RateLimitConfig) echo.MiddlewareFunc {
	if limiter == nil {
		rps, burst := cfg.RequestsPerSecond, cfg.Burst
		if rps <= 0 {
			rps = DefaultRequestsPerSecond
		}
		if burst <= 0 {
			burst = DefaultBurst
		}
		limiter = NewIPRateLimiter(rate.Limit(rps), burst)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.GetLimiter(ip).Allow() {
				if cfg.Security != nil {
					cfg.Security.RateLimitExceeded(ip, c.Path())
				} else if cfg.Logger != nil {
					cfg.Logger.Warn("rate limit exceeded",
						slog.String("ip", ip),
						slog.String("path", c.Path()))
				}

				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(429, map[string]string{
					"error":       "rate limit exceeded",
					"code":        "RATE_LIMITED",
					"retry_after": "60",
				})
			}

			return next(c)
		}
	}
}
