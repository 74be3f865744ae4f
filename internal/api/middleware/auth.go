// Package middleware provides HTTP middleware for the voicemail admin API.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/logger"
)

// APIKeyAuth validates the bearer token in the Authorization header against
// apiKey. An empty apiKey disables the check. Failures are reported to
// security when it is non-nil.
func APIKeyAuth(apiKey string, security *logger.SecurityLogger, log *slog.Logger) echo.MiddlewareFunc {
	if apiKey == "" && log != nil {
		log.Warn("API_KEY not set - API is UNSECURED")
	}

	reject := func(c echo.Context, reason string) error {
		if security != nil {
			security.AuthFailure(c.RealIP(), c.Path(), reason)
		}
		return echo.NewHTTPError(401, map[string]string{
			"error": reason,
			"code":  "UNAUTHORIZED",
		})
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()

			if strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/ready") {
				return next(c)
			}

			if apiKey == "" {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return reject(c, "missing authorization header")
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			// Use constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				return reject(c, "invalid API key")
			}

			return next(c)
		}
	}
}
