package integration

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/voicemail-store/internal/api"
	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/logger"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/websocket"
)

// newSecuredRouter builds the full router on a temporary SQLite database.
func newSecuredRouter(t *testing.T, cfg api.RouterConfig) (http.Handler, *bytes.Buffer) {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := database.OpenSQLite(database.Config{
		ConnectionString: filepath.Join(t.TempDir(), "voicemail.db"),
		Logger:           quiet,
	})
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	repos := repository.NewRepositories(provider, quiet, repository.MessageOptions{})
	require.NoError(t, repos.CreateSchema(context.Background()))

	events := &bytes.Buffer{}
	cfg.Repositories = repos
	cfg.Logger = quiet
	cfg.Security = logger.NewSecurityLoggerWithHandler(slog.NewJSONHandler(events, nil))
	return api.NewRouter(&cfg), events
}

func TestSecurityMiddlewareIntegration(t *testing.T) {
	router, events := newSecuredRouter(t, api.RouterConfig{
		APIKey:         "test-api-key",
		AllowedOrigins: []string{"https://admin.example.com"},
		RateLimit:      100,
		RateBurst:      100,
	})

	t.Run("valid key and origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/contexts", nil)
		req.Header.Set("Authorization", "Bearer test-api-key")
		req.Header.Set("Origin", "https://admin.example.com")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	})

	t.Run("wrong key is rejected and recorded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/contexts", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, events.String(), "auth_failure")
		assert.NotContains(t, events.String(), "wrong")
	})

	t.Run("foreign origin gets no CORS grant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/contexts", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHealthEndpointBypassesAuth(t *testing.T) {
	router, _ := newSecuredRouter(t, api.RouterConfig{APIKey: "test-api-key"})

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRateLimitIntegration(t *testing.T) {
	router, events := newSecuredRouter(t, api.RouterConfig{RateLimit: 1, RateBurst: 2})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		last = httptest.NewRecorder()
		router.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "RATE_LIMITED")
	assert.Contains(t, events.String(), "rate_limit")
}

func TestWebSocketOriginIntegration(t *testing.T) {
	hub := websocket.NewHub(nil)
	router, events := newSecuredRouter(t, api.RouterConfig{
		Hub:            hub,
		AllowedOrigins: []string{"https://admin.example.com"},
	})

	req := httptest.NewRequest(http.MethodGet, "/ws/mwi", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, events.String(), "invalid_origin")
}
