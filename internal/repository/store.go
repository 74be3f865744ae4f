package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/welldanyogia/voicemail-store/internal/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// store implements the CRUD primitives shared by every repository on top of a
// Table mapping. Methods taking a *gorm.DB run inside the caller's
// transaction; the others open their own.
type store[T any] struct {
	provider database.Provider
	table    *Table[T]
	logger   *slog.Logger
}

func newStore[T any](provider database.Provider, table *Table[T], logger *slog.Logger) *store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &store[T]{
		provider: provider,
		table:    table,
		logger:   logger.With(slog.String("table", table.Name)),
	}
}

func (s *store[T]) quote(name string) string {
	return s.provider.DB().Statement.Quote(name)
}

// createTableSQL renders the CREATE TABLE statement for the engine.
func (s *store[T]) createTableSQL() string {
	defs := []string{"id INTEGER PRIMARY KEY"}
	for _, c := range s.table.Columns {
		def := s.quote(c.Name) + " " + s.provider.ColumnType(c.Kind)
		if !c.Nullable {
			def += " NOT NULL"
		}
		if c.References != "" {
			def += fmt.Sprintf(" REFERENCES %s(id) ON DELETE CASCADE", s.quote(c.References))
		}
		defs = append(defs, def)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.quote(s.table.Name), strings.Join(defs, ", "))
	return s.provider.AutoIncrement(stmt)
}

func (s *store[T]) createTable(ctx context.Context) error {
	err := s.provider.RunQuery(ctx, func(tx *gorm.DB) error {
		return tx.Exec(s.createTableSQL()).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table.Name, err)
	}
	return nil
}

// createIndexes does not skip existing indexes; callers that re-run schema
// setup check the error with IsAlreadyExists. Every index is attempted and the
// failures are joined.
func (s *store[T]) createIndexes(ctx context.Context) error {
	var errs []error
	for _, idx := range s.table.Indexes {
		cols := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			cols[i] = s.quote(c)
		}
		kind := "INDEX"
		if idx.Unique {
			kind = "UNIQUE INDEX"
		}
		stmt := fmt.Sprintf("CREATE %s %s ON %s (%s)", kind, s.quote(idx.Name), s.quote(s.table.Name), strings.Join(cols, ", "))

		err := s.provider.RunQuery(ctx, func(tx *gorm.DB) error {
			return tx.Exec(stmt).Error
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to create index %s: %w", idx.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *store[T]) build(tx *gorm.DB, q Query) *gorm.DB {
	db := tx.Table(s.table.Name)
	for _, cond := range q.Where {
		db = db.Where(cond)
	}
	for _, o := range q.OrderBy {
		db = db.Order(o)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}
	if q.ForUpdate {
		db = s.provider.ForUpdate(db)
	}
	return db
}

// selectColumns builds a quoted select list. db.Select leaves names bare when
// the statement has no model, which breaks on reserved words like read.
func selectColumns(names ...string) clause.Select {
	cols := make([]clause.Column, len(names))
	for i, name := range names {
		cols[i] = clause.Column{Name: name}
	}
	return clause.Select{Columns: cols}
}

func (s *store[T]) findTx(tx *gorm.DB, q Query) ([]*T, error) {
	rows, err := s.build(tx, q).Clauses(selectColumns(s.table.columnNames()...)).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	n := len(s.table.Columns) + 1
	var out []*T
	for rows.Next() {
		raw := make([]any, n)
		dest := make([]any, n)
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		e, err := s.decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *store[T]) decode(raw []any) (*T, error) {
	e := new(T)
	id, err := s.value(raw[0]).ID()
	if err != nil {
		return nil, fmt.Errorf("column id: %w", err)
	}
	s.table.SetID(e, id)

	for i, c := range s.table.Columns {
		if err := c.Set(e, s.value(raw[i+1])); err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
	}
	return e, nil
}

func (s *store[T]) value(raw any) Value {
	return Value{raw: raw, date: s.provider.ConvertDateFromStorage}
}

func (s *store[T]) getTx(tx *gorm.DB, q Query) (*T, error) {
	q.Limit = 1
	found, err := s.findTx(tx, q)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// get returns nil, nil when no row matches.
func (s *store[T]) get(ctx context.Context, q Query) (*T, error) {
	var e *T
	err := s.provider.RunQuery(ctx, func(tx *gorm.DB) error {
		var err error
		e, err = s.getTx(tx, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.table.Name, err)
	}
	return e, nil
}

func (s *store[T]) find(ctx context.Context, q Query) ([]*T, error) {
	var out []*T
	err := s.provider.RunQuery(ctx, func(tx *gorm.DB) error {
		var err error
		out, err = s.findTx(tx, q)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.table.Name, err)
	}
	return out, nil
}

func (s *store[T]) count(ctx context.Context, q Query) (int64, error) {
	var n int64
	err := s.provider.RunQuery(ctx, func(tx *gorm.DB) error {
		return s.build(tx, Query{Where: q.Where}).Count(&n).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.table.Name, err)
	}
	return n, nil
}

// columnValue returns the value written for column c of e.
func (s *store[T]) columnValue(c Column[T], e *T) any {
	v := c.Get(e)
	if t, ok := v.(time.Time); ok && c.Kind == database.KindDate {
		return s.provider.ConvertDateForStorage(t)
	}
	return v
}

func (s *store[T]) saveTx(tx *gorm.DB, e *T) error {
	if id := s.table.ID(e); id != 0 {
		values := make(map[string]any, len(s.table.Columns))
		for _, c := range s.table.Columns {
			if c.CreateOnly {
				continue
			}
			values[c.Name] = s.columnValue(c, e)
		}
		return tx.Table(s.table.Name).Where(Eq("id", id)).Updates(values).Error
	}

	cols := make([]string, 0, len(s.table.Columns))
	marks := make([]string, 0, len(s.table.Columns))
	args := make([]any, 0, len(s.table.Columns))
	for _, c := range s.table.Columns {
		cols = append(cols, s.quote(c.Name))
		marks = append(marks, "?")
		args = append(args, s.columnValue(c, e))
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		s.quote(s.table.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))

	var id int64
	if err := tx.Raw(stmt, args...).Scan(&id).Error; err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("insert into %s returned no id", s.table.Name)
	}
	s.table.SetID(e, uint(id))
	return nil
}

// save inserts e when it has no identifier and updates it by identifier
// otherwise. Updates write every column except CreateOnly ones.
func (s *store[T]) save(ctx context.Context, e *T) error {
	inserting := s.table.ID(e) == 0
	err := s.provider.RunQuery(ctx, func(tx *gorm.DB) error {
		return s.saveTx(tx, e)
	})
	if err != nil {
		if inserting {
			// Keep the entity transient if the insert was rolled back.
			s.table.SetID(e, 0)
		}
		if isDuplicateKeyError(err) {
			return fmt.Errorf("failed to save %s: %w: %w", s.table.Name, ErrDuplicateEntry, err)
		}
		return fmt.Errorf("failed to save %s: %w", s.table.Name, err)
	}
	return nil
}

func (s *store[T]) removeTx(tx *gorm.DB, id uint) error {
	return tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.quote(s.table.Name)), id).Error
}

// remove deletes e by identifier. A row that is already gone is not an error.
func (s *store[T]) remove(ctx context.Context, e *T) error {
	id := s.table.ID(e)
	if id == 0 {
		return fmt.Errorf("failed to remove %s: %w", s.table.Name, ErrNotPersisted)
	}
	err := s.provider.RunQuery(ctx, func(tx *gorm.DB) error {
		return s.removeTx(tx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", s.table.Name, err)
	}
	return nil
}
