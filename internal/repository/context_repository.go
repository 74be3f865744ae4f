package repository

import (
	"context"
	"log/slog"

	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"gorm.io/gorm/clause"
)

// ContextRepository defines the interface for voicemail context data access
type ContextRepository interface {
	CreateTable(ctx context.Context) error
	CreateIndexes(ctx context.Context) error
	Create(domain string) *models.Context
	Get(ctx context.Context, domain string) (*models.Context, error)
	GetByID(ctx context.Context, id uint) (*models.Context, error)
	All(ctx context.Context) ([]*models.Context, error)
	Save(ctx context.Context, c *models.Context) (*models.Context, error)
	Remove(ctx context.Context, c *models.Context) error
}

var contextTable = &Table[models.Context]{
	Name: "context",
	Columns: []Column[models.Context]{
		stringColumn("domain", func(c *models.Context) *string { return &c.Domain }),
	},
	Indexes: []Index{
		{Name: "context_domain_idx", Columns: []string{"domain"}, Unique: true},
	},
	ID:    func(c *models.Context) uint { return c.ID },
	SetID: func(c *models.Context, id uint) { c.ID = id },
}

// contextRepository implements ContextRepository on a storage provider
type contextRepository struct {
	store *store[models.Context]
}

// NewContextRepository creates a new ContextRepository instance
func NewContextRepository(provider database.Provider, logger *slog.Logger) ContextRepository {
	return &contextRepository{store: newStore(provider, contextTable, logger)}
}

func (r *contextRepository) CreateTable(ctx context.Context) error {
	return r.store.createTable(ctx)
}

func (r *contextRepository) CreateIndexes(ctx context.Context) error {
	return r.store.createIndexes(ctx)
}

// Create returns a transient context. Nothing is written until Save.
func (r *contextRepository) Create(domain string) *models.Context {
	return &models.Context{Domain: domain}
}

// Get looks a context up by domain. It returns nil when there is none.
func (r *contextRepository) Get(ctx context.Context, domain string) (*models.Context, error) {
	return r.store.get(ctx, Where(Eq("domain", domain)))
}

func (r *contextRepository) GetByID(ctx context.Context, id uint) (*models.Context, error) {
	return r.store.get(ctx, Where(Eq("id", id)))
}

// All lists contexts ordered by domain.
func (r *contextRepository) All(ctx context.Context) ([]*models.Context, error) {
	return r.store.find(ctx, Query{OrderBy: []clause.OrderByColumn{Asc("domain")}})
}

func (r *contextRepository) Save(ctx context.Context, c *models.Context) (*models.Context, error) {
	if err := r.store.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *contextRepository) Remove(ctx context.Context, c *models.Context) error {
	return r.store.remove(ctx, c)
}
