package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/welldanyogia/voicemail-store/internal/database"
	"gorm.io/gorm/clause"
)

// Table maps an entity type onto a database table. The mapping is explicit:
// every column names the entity field it reads and writes.
type Table[T any] struct {
	Name    string
	Columns []Column[T]
	Indexes []Index

	ID    func(*T) uint
	SetID func(*T, uint)
}

// Column maps one table column to an entity field.
type Column[T any] struct {
	Name     string
	Kind     database.ColumnKind
	Nullable bool

	// References is the parent table of a foreign key column.
	References string

	// CreateOnly columns are written on insert and never by update.
	CreateOnly bool

	Get func(*T) any
	Set func(*T, Value) error
}

// Index is a secondary index on a table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

func (t *Table[T]) columnNames() []string {
	names := make([]string, 0, len(t.Columns)+1)
	names = append(names, "id")
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Value is a raw column value as returned by the driver. Accessors accept every
// representation the SQLite and Postgres drivers produce.
type Value struct {
	raw  any
	date func(any) (time.Time, error)
}

// IsNull reports whether the column was NULL.
func (v Value) IsNull() bool {
	return v.raw == nil
}

// String returns the value as text. NULL is the empty string.
func (v Value) String() string {
	switch val := v.raw.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// NullString returns nil for NULL.
func (v Value) NullString() *string {
	if v.IsNull() {
		return nil
	}
	s := v.String()
	return &s
}

// Int returns the value as an int. NULL is zero.
func (v Value) Int() (int, error) {
	switch val := v.raw.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(val), nil
	case int32:
		return int(val), nil
	case int:
		return val, nil
	case float64:
		return int(val), nil
	case bool:
		if val {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return strconv.Atoi(strings.TrimSpace(string(val)))
	case string:
		return strconv.Atoi(strings.TrimSpace(val))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v.raw)
	}
}

// NullInt returns nil for NULL.
func (v Value) NullInt() (*int, error) {
	if v.IsNull() {
		return nil, nil
	}
	n, err := v.Int()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ID returns the value as an identifier.
func (v Value) ID() (uint, error) {
	n, err := v.Int()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative identifier %d", n)
	}
	return uint(n), nil
}

// Bool returns the value as a boolean. NULL is false.
func (v Value) Bool() (bool, error) {
	switch val := v.raw.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case int64:
		return val != 0, nil
	case []byte:
		return strconv.ParseBool(string(val))
	case string:
		return strconv.ParseBool(val)
	default:
		n, err := v.Int()
		return n != 0, err
	}
}

// Time decodes a date column with the provider's storage format.
func (v Value) Time() (time.Time, error) {
	if v.date == nil {
		return time.Time{}, fmt.Errorf("no date converter for value %T", v.raw)
	}
	return v.date(v.raw)
}

// Query selects rows of a table.
type Query struct {
	Where     []clause.Expression
	OrderBy   []clause.OrderByColumn
	Limit     int
	Offset    int
	ForUpdate bool
}

// Eq matches rows whose column equals value.
func Eq(column string, value any) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: column}, Value: value}
}

// Gt matches rows whose column is greater than value.
func Gt(column string, value any) clause.Expression {
	return clause.Gt{Column: clause.Column{Name: column}, Value: value}
}

// Asc orders by column ascending.
func Asc(column string) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: column}}
}

// Desc orders by column descending.
func Desc(column string) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: true}
}

// Where builds a query from conditions.
func Where(conds ...clause.Expression) Query {
	return Query{Where: conds}
}

// ==================== Column builders ====================

func stringColumn[T any](name string, field func(*T) *string) Column[T] {
	return Column[T]{
		Name: name,
		Kind: database.KindString,
		Get:  func(e *T) any { return *field(e) },
		Set: func(e *T, v Value) error {
			*field(e) = v.String()
			return nil
		},
	}
}

func nullStringColumn[T any](name string, field func(*T) **string) Column[T] {
	return Column[T]{
		Name:     name,
		Kind:     database.KindString,
		Nullable: true,
		Get: func(e *T) any {
			if p := *field(e); p != nil {
				return *p
			}
			return nil
		},
		Set: func(e *T, v Value) error {
			*field(e) = v.NullString()
			return nil
		},
	}
}

func intColumn[T any](name string, field func(*T) *int) Column[T] {
	return Column[T]{
		Name: name,
		Kind: database.KindInteger,
		Get:  func(e *T) any { return *field(e) },
		Set: func(e *T, v Value) error {
			n, err := v.Int()
			if err != nil {
				return err
			}
			*field(e) = n
			return nil
		},
	}
}

func nullIntColumn[T any](name string, field func(*T) **int) Column[T] {
	return Column[T]{
		Name:     name,
		Kind:     database.KindInteger,
		Nullable: true,
		Get: func(e *T) any {
			if p := *field(e); p != nil {
				return *p
			}
			return nil
		},
		Set: func(e *T, v Value) error {
			n, err := v.NullInt()
			if err != nil {
				return err
			}
			*field(e) = n
			return nil
		},
	}
}

func boolColumn[T any](name string, field func(*T) *bool) Column[T] {
	return Column[T]{
		Name: name,
		Kind: database.KindBool,
		Get:  func(e *T) any { return *field(e) },
		Set: func(e *T, v Value) error {
			b, err := v.Bool()
			if err != nil {
				return err
			}
			*field(e) = b
			return nil
		},
	}
}

// dateColumn values pass through Provider.ConvertDateForStorage on write.
func dateColumn[T any](name string, field func(*T) *time.Time) Column[T] {
	return Column[T]{
		Name: name,
		Kind: database.KindDate,
		Get:  func(e *T) any { return *field(e) },
		Set: func(e *T, v Value) error {
			t, err := v.Time()
			if err != nil {
				return err
			}
			*field(e) = t
			return nil
		},
	}
}

func referenceColumn[T any](name, parent string, field func(*T) *uint) Column[T] {
	return Column[T]{
		Name:       name,
		Kind:       database.KindReference,
		References: parent,
		Get:        func(e *T) any { return *field(e) },
		Set: func(e *T, v Value) error {
			id, err := v.ID()
			if err != nil {
				return err
			}
			*field(e) = id
			return nil
		},
	}
}

func createOnly[T any](c Column[T]) Column[T] {
	c.CreateOnly = true
	return c
}
