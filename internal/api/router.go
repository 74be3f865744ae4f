package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/api/handlers"
	"github.com/welldanyogia/voicemail-store/internal/api/middleware"
	"github.com/welldanyogia/voicemail-store/internal/logger"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/storage"
	"github.com/welldanyogia/voicemail-store/internal/websocket"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	Repositories *repository.Repositories
	Recordings   storage.RecordingStorage
	Notifier     handlers.Notifier
	Hub          *websocket.Hub
	Security     *logger.SecurityLogger
	Logger       *slog.Logger

	APIKey         string   // empty disables authentication
	AllowedOrigins []string // CORS and websocket origins
	Production     bool

	// RateLimiter is shared with its cleanup loop; nil builds one from
	// RateLimit and RateBurst.
	RateLimiter *middleware.IPRateLimiter
	RateLimit   float64
	RateBurst   int
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Order matters: recover first, rate limiting last.
	e.Use(middleware.Recover())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))
	e.Use(middleware.RateLimiter(cfg.RateLimiter, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit,
		Burst:             cfg.RateBurst,
		Security:          cfg.Security,
		Logger:            log,
	}))

	repos := cfg.Repositories
	healthHandler := handlers.NewHealthHandler(repos.Provider)
	contextHandler := handlers.NewContextHandler(repos)
	mailboxHandler := handlers.NewMailboxHandler(repos)
	folderHandler := handlers.NewFolderHandler(repos)
	messageHandler := handlers.NewMessageHandler(handlers.MessageHandlerConfig{
		Repositories: repos,
		Recordings:   cfg.Recordings,
		Notifier:     cfg.Notifier,
		Security:     cfg.Security,
		Logger:       log,
	})

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	if cfg.Hub != nil {
		wsHandler := handlers.NewWebSocketHandler(cfg.Hub,
			websocket.NewSecureUpgrader(cfg.AllowedOrigins, cfg.Security), log)
		e.GET("/ws/mwi", wsHandler.MWI, middleware.APIKeyAuth(cfg.APIKey, cfg.Security, log))
	}

	api := e.Group("/api")
	api.Use(middleware.APIKeyAuth(cfg.APIKey, cfg.Security, log))

	// Context routes
	contexts := api.Group("/contexts")
	contexts.POST("", contextHandler.Create)
	contexts.GET("", contextHandler.List)
	contexts.GET("/:domain", contextHandler.Get)
	contexts.DELETE("/:domain", contextHandler.Delete)
	contexts.GET("/:domain/config", contextHandler.ListConfig)
	contexts.GET("/:domain/config/:key", contextHandler.GetConfig)
	contexts.PUT("/:domain/config/:key", contextHandler.PutConfig)
	contexts.DELETE("/:domain/config/:key", contextHandler.DeleteConfig)

	// Mailbox routes (nested under contexts)
	mailboxes := contexts.Group("/:domain/mailboxes")
	mailboxes.POST("", mailboxHandler.Create)
	mailboxes.GET("", mailboxHandler.List)
	mailboxes.GET("/:number", mailboxHandler.Get)
	mailboxes.PUT("/:number", mailboxHandler.Update)
	mailboxes.DELETE("/:number", mailboxHandler.Delete)
	mailboxes.GET("/:number/counts", mailboxHandler.Counts)
	mailboxes.GET("/:number/config", mailboxHandler.ListConfig)
	mailboxes.GET("/:number/config/:key", mailboxHandler.GetConfig)
	mailboxes.PUT("/:number/config/:key", mailboxHandler.PutConfig)
	mailboxes.DELETE("/:number/config/:key", mailboxHandler.DeleteConfig)

	// Message listings (nested under mailbox folders)
	mailboxes.GET("/:number/folders/:dtmf/messages", messageHandler.List)
	mailboxes.GET("/:number/folders/:dtmf/count", messageHandler.Count)

	// Folder routes
	folders := api.Group("/folders")
	folders.POST("", folderHandler.Create)
	folders.GET("", folderHandler.List)
	folders.GET("/:dtmf", folderHandler.Get)
	folders.DELETE("/:dtmf", folderHandler.Delete)

	// Message routes (standalone)
	messages := api.Group("/messages")
	messages.GET("/:id", messageHandler.Get)
	messages.GET("/:id/recording", messageHandler.Recording)
	messages.PATCH("/:id/read", messageHandler.MarkAsRead)
	messages.PATCH("/:id/folder", messageHandler.ChangeFolder)
	messages.DELETE("/:id", messageHandler.Delete)

	return e
}
