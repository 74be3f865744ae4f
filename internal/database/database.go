package database

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/welldanyogia/voicemail-store/internal/logger"
	"gorm.io/gorm"
)

// Provider names
const (
	ProviderPostgres = "postgres"
	ProviderSQLite   = "sqlite"
)

// Connection pool configuration
const (
	DefaultMaxIdleConns    = 10
	DefaultMaxOpenConns    = 100
	DefaultConnMaxLifetime = time.Hour
	DefaultConnMaxIdleTime = 10 * time.Minute
	DefaultBusyTimeout     = 5 * time.Second
)

// Config selects and tunes a storage provider.
type Config struct {
	// Provider is "postgres" or "sqlite". Empty means infer from ConnectionString.
	Provider         string
	ConnectionString string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// BusyTimeout bounds how long SQLite waits for the database write lock.
	BusyTimeout time.Duration

	Logger *slog.Logger
}

// ProviderName returns the configured provider, inferring it from the
// connection string when unset.
func (c Config) ProviderName() string {
	if c.Provider != "" {
		return strings.ToLower(c.Provider)
	}
	return InferProvider(c.ConnectionString)
}

// InferProvider guesses the engine from a connection string. Postgres URLs and
// keyword/value DSNs select postgres; anything else is treated as a SQLite path.
func InferProvider(connectionString string) string {
	cs := strings.TrimSpace(connectionString)
	switch {
	case strings.HasPrefix(cs, "postgres://"), strings.HasPrefix(cs, "postgresql://"):
		return ProviderPostgres
	case strings.Contains(cs, "host=") && strings.Contains(cs, "dbname="):
		return ProviderPostgres
	default:
		return ProviderSQLite
	}
}

func (c Config) withDefaults() Config {
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = DefaultMaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = DefaultConnMaxIdleTime
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = DefaultBusyTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Open connects to the engine named by cfg and returns its provider.
func Open(cfg Config) (Provider, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.ConnectionString) == "" {
		return nil, fmt.Errorf("connection string is required")
	}

	switch name := cfg.ProviderName(); name {
	case ProviderPostgres:
		p, err := OpenPostgres(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderSQLite, "sqlite3":
		p, err := OpenSQLite(cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported database provider %q", name)
	}
}

// gormConfig is shared by every provider. Transactions are always managed by
// the provider, so GORM's implicit write transactions are disabled.
func gormConfig(cfg Config) *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.NewGormLogger(cfg.Logger),
		SkipDefaultTransaction: true,
	}
}

// validateSSLMode ensures SSL is enabled in production
func validateSSLMode(databaseURL string) error {
	// Check if sslmode is explicitly disabled
	if strings.Contains(databaseURL, "sslmode=disable") {
		return fmt.Errorf("SSL mode cannot be disabled in production")
	}

	// If no sslmode specified, it's okay (defaults to prefer/require depending on server)
	return nil
}

// configureConnectionPool sets up connection pool limits
func configureConnectionPool(db *gorm.DB, cfg Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return nil
}

func isProduction() bool {
	return os.Getenv("APP_ENV") == "production"
}

// closeDB closes the connection pool behind a GORM handle
func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}
