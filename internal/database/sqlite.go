package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteProvider runs on a single database file. SQLite allows one writer at a
// time, so exclusive transactions take the database write lock with
// BEGIN IMMEDIATE instead of locking rows.
type SQLiteProvider struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the SQLite database named by the
// connection string.
func OpenSQLite(cfg Config) (*SQLiteProvider, error) {
	cfg = cfg.withDefaults()

	path := strings.TrimPrefix(strings.TrimPrefix(cfg.ConnectionString, "sqlite3://"), "sqlite://")
	memory := isMemoryDSN(path)

	if !memory {
		dir := filepath.Dir(strings.TrimPrefix(dsnPath(path), "file:"))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(sqliteDSN(path, cfg.BusyTimeout, memory)), gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if memory {
		// Every connection to ":memory:" is a separate database.
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
		cfg.ConnMaxIdleTime = 0
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else if err := configureConnectionPool(db, cfg); err != nil {
		return nil, err
	}

	cfg.Logger.Info("opened sqlite database", slog.String("path", dsnPath(path)), slog.Bool("memory", memory))
	return &SQLiteProvider{
		db:     db,
		logger: cfg.Logger.With(slog.String("provider", ProviderSQLite)),
	}, nil
}

func isMemoryDSN(path string) bool {
	return strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory")
}

func dsnPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

// sqliteDSN appends the pragmas every connection needs unless the caller set them.
func sqliteDSN(path string, busyTimeout time.Duration, memory bool) string {
	params := []struct{ key, value string }{
		{"_foreign_keys", "1"},
		{"_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10)},
	}
	if !memory {
		params = append(params, struct{ key, value string }{"_journal_mode", "WAL"})
	}

	dsn := path
	for _, p := range params {
		if strings.Contains(dsn, p.key+"=") {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.key + "=" + p.value
	}
	return dsn
}

// Name implements Provider
func (p *SQLiteProvider) Name() string {
	return ProviderSQLite
}

// DB implements Provider
func (p *SQLiteProvider) DB() *gorm.DB {
	return p.db
}

// RunQuery implements Provider
func (p *SQLiteProvider) RunQuery(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.Transaction(ctx, false, fn)
}

// Begin implements Provider. The transaction is pinned to one connection so
// that BEGIN, the statements and COMMIT all reach the same SQLite handle.
func (p *SQLiteProvider) Begin(ctx context.Context, exclusive bool) (*Tx, error) {
	sqlDB, err := p.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	begin := "BEGIN DEFERRED"
	if exclusive {
		begin = "BEGIN IMMEDIATE"
	}
	if _, err := conn.ExecContext(ctx, begin); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	db := p.db.WithContext(ctx)
	db.Statement.ConnPool = conn

	// COMMIT and ROLLBACK must run even if ctx is cancelled mid-transaction.
	endCtx := context.WithoutCancel(ctx)
	return &Tx{
		db: db,
		commit: func() error {
			_, err := conn.ExecContext(endCtx, "COMMIT")
			return err
		},
		rollback: func() error {
			_, err := conn.ExecContext(endCtx, "ROLLBACK")
			return err
		},
		release: func() {
			if err := conn.Close(); err != nil {
				p.logger.Warn("failed to release connection", slog.Any("error", err))
			}
		},
	}, nil
}

// Transaction implements Provider
func (p *SQLiteProvider) Transaction(ctx context.Context, exclusive bool, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, p.logger, func() (*Tx, error) { return p.Begin(ctx, exclusive) }, fn)
}

// ForUpdate implements Provider. SQLite has no row locks; callers rely on the
// write lock taken by an exclusive transaction.
func (p *SQLiteProvider) ForUpdate(db *gorm.DB) *gorm.DB {
	return db
}

// AutoIncrement implements Provider
func (p *SQLiteProvider) AutoIncrement(createStatement string) string {
	if strings.Contains(createStatement, "AUTOINCREMENT") {
		return createStatement
	}
	return strings.Replace(createStatement, "INTEGER PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT", 1)
}

// ColumnType implements Provider
func (p *SQLiteProvider) ColumnType(kind ColumnKind) string {
	switch kind {
	case KindString:
		return "TEXT"
	case KindBool:
		return "BOOLEAN"
	default:
		return "INTEGER"
	}
}

// ConvertDateForStorage stores dates as UTC epoch seconds.
func (p *SQLiteProvider) ConvertDateForStorage(t time.Time) any {
	return t.UTC().Unix()
}

// ConvertDateFromStorage decodes epoch seconds back to a UTC time.
func (p *SQLiteProvider) ConvertDateFromStorage(v any) (time.Time, error) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, nil
	case int64:
		return time.Unix(val, 0).UTC(), nil
	case float64:
		return time.Unix(int64(val), 0).UTC(), nil
	case time.Time:
		return val.UTC().Truncate(time.Second), nil
	case []byte:
		return parseEpoch(string(val))
	case string:
		return parseEpoch(val)
	default:
		return time.Time{}, fmt.Errorf("unsupported sqlite date value %T", v)
	}
}

func parseEpoch(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch date %q: %w", s, err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// Ping implements Provider
func (p *SQLiteProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Provider
func (p *SQLiteProvider) Close() error {
	return closeDB(p.db)
}
