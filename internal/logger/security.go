package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Security event types, written as the event_type attribute.
const (
	EventAuthFailure       = "auth_failure"
	EventRateLimit         = "rate_limit"
	EventRejectedDeposit   = "rejected_deposit"
	EventPathTraversal     = "path_traversal"
	EventInvalidOrigin     = "invalid_origin"
	EventRejectedRecording = "rejected_recording"
)

// SecurityLogger records security events as warnings. Callers pass reasons
// and identifiers, never credentials.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger writes JSON events to stdout.
func NewSecurityLogger() *SecurityLogger {
	return NewSecurityLoggerWithHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// NewSecurityLoggerWithHandler writes events through handler.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{logger: slog.New(handler)}
}

func (s *SecurityLogger) event(msg, eventType, ip string, attrs ...slog.Attr) {
	all := make([]slog.Attr, 0, len(attrs)+3)
	all = append(all, slog.String("event_type", eventType), slog.String("ip", ip))
	all = append(all, attrs...)
	all = append(all, slog.Time("timestamp", time.Now().UTC()))
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, msg, all...)
}

// AuthFailure records a rejected API key.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.event("authentication_failure", EventAuthFailure, ip,
		slog.String("path", path),
		slog.String("reason", reason),
	)
}

// RateLimitExceeded records a request refused by the rate limiter.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.event("rate_limit_exceeded", EventRateLimit, ip, slog.String("path", path))
}

// RejectedDeposit records an SMTP recipient or deposit the gateway refused.
func (s *SecurityLogger) RejectedDeposit(remoteAddr, recipient, reason string) {
	s.event("rejected_deposit", EventRejectedDeposit, remoteAddr,
		slog.String("recipient", recipient),
		slog.String("reason", reason),
	)
}

// PathTraversalAttempt records a recording path that escaped the storage root.
func (s *SecurityLogger) PathTraversalAttempt(ip, path, attemptedPath string) {
	s.event("path_traversal_attempt", EventPathTraversal, ip,
		slog.String("path", path),
		slog.String("attempted_path", attemptedPath),
	)
}

// InvalidOrigin records a websocket upgrade from an origin not allowed.
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.event("invalid_origin", EventInvalidOrigin, ip, slog.String("origin", origin))
}

// RejectedRecording records audio refused by the recording storage rules.
func (s *SecurityLogger) RejectedRecording(ip, filename, reason string) {
	s.event("rejected_recording", EventRejectedRecording, ip,
		slog.String("filename", filename),
		slog.String("reason", reason),
	)
}
