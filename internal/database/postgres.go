package database

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postgresTimestampLayout is the text form of TIMESTAMP WITHOUT TIME ZONE.
const postgresTimestampLayout = "2006-01-02 15:04:05"

// PostgresProvider runs on a pooled PostgreSQL server. Concurrent writers are
// serialized per row with SELECT ... FOR UPDATE.
type PostgresProvider struct {
	db     *gorm.DB
	logger *slog.Logger
}

// OpenPostgres connects to PostgreSQL and configures the connection pool.
func OpenPostgres(cfg Config) (*PostgresProvider, error) {
	cfg = cfg.withDefaults()

	// Validate SSL mode in production
	if isProduction() {
		if err := validateSSLMode(cfg.ConnectionString); err != nil {
			return nil, err
		}
	}

	p, err := NewPostgresWithDialector(postgres.Open(cfg.ConnectionString), cfg)
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(p.db, cfg); err != nil {
		return nil, err
	}

	cfg.Logger.Info("connected to postgres")
	return p, nil
}

// NewPostgresWithDialector builds the provider on an existing dialector. Tests
// use it to run against sqlmock.
func NewPostgresWithDialector(dialector gorm.Dialector, cfg Config) (*PostgresProvider, error) {
	cfg = cfg.withDefaults()

	db, err := gorm.Open(dialector, gormConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgresProvider{
		db:     db,
		logger: cfg.Logger.With(slog.String("provider", ProviderPostgres)),
	}, nil
}

// Name implements Provider
func (p *PostgresProvider) Name() string {
	return ProviderPostgres
}

// DB implements Provider
func (p *PostgresProvider) DB() *gorm.DB {
	return p.db
}

// RunQuery implements Provider
func (p *PostgresProvider) RunQuery(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return p.Transaction(ctx, false, fn)
}

// Begin implements Provider. Row level locks make an up-front exclusive lock
// unnecessary, so exclusive is ignored.
func (p *PostgresProvider) Begin(ctx context.Context, _ bool) (*Tx, error) {
	tx := p.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	return &Tx{
		db:       tx,
		commit:   func() error { return tx.Commit().Error },
		rollback: func() error { return tx.Rollback().Error },
		release:  func() {},
	}, nil
}

// Transaction implements Provider
func (p *PostgresProvider) Transaction(ctx context.Context, exclusive bool, fn func(tx *gorm.DB) error) error {
	return runInTx(ctx, p.logger, func() (*Tx, error) { return p.Begin(ctx, exclusive) }, fn)
}

// ForUpdate implements Provider
func (p *PostgresProvider) ForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// AutoIncrement implements Provider
func (p *PostgresProvider) AutoIncrement(createStatement string) string {
	return strings.Replace(createStatement, "INTEGER PRIMARY KEY", "SERIAL PRIMARY KEY", 1)
}

// ColumnType implements Provider
func (p *PostgresProvider) ColumnType(kind ColumnKind) string {
	switch kind {
	case KindString:
		return "VARCHAR(255)"
	case KindBool:
		return "BOOLEAN"
	case KindDate:
		return "TIMESTAMP"
	default:
		return "INTEGER"
	}
}

// ConvertDateForStorage stores the UTC wall clock at second precision.
func (p *PostgresProvider) ConvertDateForStorage(t time.Time) any {
	return t.UTC().Truncate(time.Second)
}

// ConvertDateFromStorage normalizes a TIMESTAMP value to UTC at second precision.
func (p *PostgresProvider) ConvertDateFromStorage(v any) (time.Time, error) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return val.UTC().Truncate(time.Second), nil
	case []byte:
		return parsePostgresTimestamp(string(val))
	case string:
		return parsePostgresTimestamp(val)
	default:
		return time.Time{}, fmt.Errorf("unsupported postgres date value %T", v)
	}
}

func parsePostgresTimestamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(postgresTimestampLayout, s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid postgres timestamp %q", s)
}

// Ping implements Provider
func (p *PostgresProvider) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close implements Provider
func (p *PostgresProvider) Close() error {
	return closeDB(p.db)
}
