package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/welldanyogia/voicemail-store/internal/api"
	"github.com/welldanyogia/voicemail-store/internal/api/middleware"
	"github.com/welldanyogia/voicemail-store/internal/config"
	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/logger"
	"github.com/welldanyogia/voicemail-store/internal/mwi"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	smtpserver "github.com/welldanyogia/voicemail-store/internal/smtp"
	"github.com/welldanyogia/voicemail-store/internal/storage"
	"github.com/welldanyogia/voicemail-store/internal/websocket"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)
	security := logger.NewSecurityLogger()

	log.Info("starting voicemail store")
	cfg.LogConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	order, err := repository.ParseMessageOrder(cfg.MessageOrder)
	if err != nil {
		return err
	}

	factory := repository.NewFactory(database.NewRegistry(log),
		repository.WithLogger(log),
		repository.WithMessageOptions(repository.MessageOptions{
			BatchSize: cfg.MessageBatchSize,
			Order:     order,
		}),
	)
	defer func() {
		if err := factory.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()

	repos, err := factory.Get(database.Config{
		Provider:         cfg.DatabaseProvider,
		ConnectionString: cfg.DatabaseURL,
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		BusyTimeout:      cfg.DBBusyTimeout,
		Logger:           log,
	})
	if err != nil {
		return err
	}
	log.Info("database connected", "provider", repos.Provider.Name())

	if err := repos.CreateSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := ensureInbox(ctx, repos.Folder, cfg.InboxDTMF, log); err != nil {
		return err
	}

	recordings, err := storage.NewLocalStorage(cfg.RecordingStoragePath)
	if err != nil {
		return fmt.Errorf("failed to initialize recording storage: %w", err)
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)
	notifier := mwi.NewNotifier(hub, log)

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)
	limiter.StartCleanup(ctx, middleware.DefaultCleanupInterval)

	router := api.NewRouter(&api.RouterConfig{
		Repositories:   repos,
		Recordings:     recordings,
		Notifier:       notifier,
		Hub:            hub,
		Security:       security,
		Logger:         log,
		APIKey:         cfg.APIKey,
		AllowedOrigins: cfg.Origins(),
		Production:     cfg.AppEnv == "production",
		RateLimiter:    limiter,
	})
	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	smtpCfg := smtpserver.LoadServerConfigFromEnv()
	smtpCfg.Addr = ":" + strconv.Itoa(cfg.SMTPPort)
	smtpCfg.Domain = cfg.SMTPDomain
	smtpSrv := smtpserver.NewSecureServer(smtpserver.NewBackend(&smtpserver.BackendConfig{
		Repositories: repos,
		Recordings:   recordings,
		Notifier:     notifier,
		InboxDTMF:    cfg.InboxDTMF,
		Security:     security,
		Logger:       log,
	}), smtpCfg)

	errCh := make(chan error, 2)
	go func() {
		log.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("smtp server listening", "addr", smtpSrv.Addr, "domain", smtpSrv.Domain)
		if err := smtpSrv.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			errCh <- fmt.Errorf("smtp server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("server error, shutting down", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		log.Error("http shutdown failed", "error", serr)
	}
	if serr := smtpSrv.Shutdown(shutdownCtx); serr != nil {
		log.Error("smtp shutdown failed", "error", serr)
	}
	stop()

	log.Info("server stopped")
	return err
}

// ensureInbox creates the deposit folder when the database has none at dtmf.
func ensureInbox(ctx context.Context, folders repository.FolderRepository, dtmf int, log *slog.Logger) error {
	inbox, err := folders.Get(ctx, dtmf)
	if err != nil {
		return fmt.Errorf("failed to look up inbox folder: %w", err)
	}
	if inbox != nil {
		return nil
	}

	if _, err := folders.Save(ctx, folders.Create("INBOX", "vm-INBOX", dtmf)); err != nil {
		return fmt.Errorf("failed to create inbox folder: %w", err)
	}
	log.Info("created inbox folder", "dtmf", dtmf)
	return nil
}
