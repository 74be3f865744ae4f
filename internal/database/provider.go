package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

// ErrTxDone is returned when a transaction is used after commit or rollback.
var ErrTxDone = errors.New("transaction has already been committed or rolled back")

// ColumnKind is the logical type of a table column. Providers map it to DDL.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInteger
	KindBool
	KindDate
	KindReference
)

// Provider hides the engine-specific parts of query execution: transaction
// lifecycle, row locking syntax, DDL types and date encoding.
type Provider interface {
	// Name returns the provider name, "postgres" or "sqlite".
	Name() string

	// DB returns the GORM handle used to build statements.
	DB() *gorm.DB

	// RunQuery runs fn inside an implicit transaction. An error from fn rolls
	// the transaction back and is returned unchanged.
	RunQuery(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Begin opens an explicit transaction. exclusive asks for the write lock
	// up front on engines that otherwise lock lazily.
	Begin(ctx context.Context, exclusive bool) (*Tx, error)

	// Transaction runs fn between Begin and Commit, rolling back when fn
	// returns an error or panics.
	Transaction(ctx context.Context, exclusive bool, fn func(tx *gorm.DB) error) error

	// ForUpdate adds a row locking clause to a read where the engine supports it.
	ForUpdate(db *gorm.DB) *gorm.DB

	// AutoIncrement rewrites the generic "INTEGER PRIMARY KEY" declaration
	// into the engine's auto-increment syntax.
	AutoIncrement(createStatement string) string

	// ColumnType returns the DDL type for a logical column kind.
	ColumnType(kind ColumnKind) string

	ConvertDateForStorage(t time.Time) any
	ConvertDateFromStorage(v any) (time.Time, error)

	Ping(ctx context.Context) error
	Close() error
}

// Tx is an explicit transaction scope. Statements built from DB() run inside it.
// The underlying connection is released after Commit or Rollback.
type Tx struct {
	db       *gorm.DB
	commit   func() error
	rollback func() error
	release  func()
	done     bool
}

// DB returns the GORM handle bound to the transaction.
func (t *Tx) DB() *gorm.DB {
	return t.db
}

// Commit commits the transaction. When the commit fails the transaction is
// rolled back before the connection is released.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.release()

	if err := t.commit(); err != nil {
		_ = t.rollback()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.release()

	if err := t.rollback(); err != nil {
		return fmt.Errorf("failed to roll back transaction: %w", err)
	}
	return nil
}

// runInTx is the shared begin/run/commit skeleton. A failing rollback is
// logged and the original error wins.
func runInTx(ctx context.Context, logger *slog.Logger, begin func() (*Tx, error), fn func(tx *gorm.DB) error) error {
	tx, err := begin()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx.DB()); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.WarnContext(ctx, "rollback failed", slog.Any("error", rbErr), slog.Any("cause", err))
		}
		return err
	}

	return tx.Commit()
}
