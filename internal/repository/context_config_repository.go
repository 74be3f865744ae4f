package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"gorm.io/gorm/clause"
)

// ContextConfigRepository defines the interface for per-context settings
type ContextConfigRepository interface {
	CreateTable(ctx context.Context) error
	CreateIndexes(ctx context.Context) error
	Create(owner *models.Context, key, value string) *models.ContextConfig
	All(ctx context.Context, owner *models.Context) ([]*models.ContextConfig, error)
	Get(ctx context.Context, owner *models.Context, key string) (*models.ContextConfig, error)
	Save(ctx context.Context, c *models.ContextConfig) (*models.ContextConfig, error)
	Remove(ctx context.Context, c *models.ContextConfig) error
}

var contextConfigTable = &Table[models.ContextConfig]{
	Name: "context_config",
	Columns: []Column[models.ContextConfig]{
		referenceColumn("context_id", "context", func(c *models.ContextConfig) *uint { return &c.ContextID }),
		stringColumn("key", func(c *models.ContextConfig) *string { return &c.Key }),
		stringColumn("value", func(c *models.ContextConfig) *string { return &c.Value }),
	},
	Indexes: []Index{
		{Name: "context_config_context_idx", Columns: []string{"context_id"}},
	},
	ID:    func(c *models.ContextConfig) uint { return c.ID },
	SetID: func(c *models.ContextConfig, id uint) { c.ID = id },
}

type contextConfigRepository struct {
	store *store[models.ContextConfig]
}

// NewContextConfigRepository creates a new ContextConfigRepository instance
func NewContextConfigRepository(provider database.Provider, logger *slog.Logger) ContextConfigRepository {
	return &contextConfigRepository{store: newStore(provider, contextConfigTable, logger)}
}

func (r *contextConfigRepository) CreateTable(ctx context.Context) error {
	return r.store.createTable(ctx)
}

func (r *contextConfigRepository) CreateIndexes(ctx context.Context) error {
	return r.store.createIndexes(ctx)
}

// Create returns a transient setting owned by owner.
func (r *contextConfigRepository) Create(owner *models.Context, key, value string) *models.ContextConfig {
	c := &models.ContextConfig{Key: key, Value: value}
	if owner != nil {
		c.ContextID = owner.ID
	}
	return c
}

func (r *contextConfigRepository) All(ctx context.Context, owner *models.Context) ([]*models.ContextConfig, error) {
	if !owner.IsPersisted() {
		return nil, fmt.Errorf("failed to list context config: %w", ErrNotPersisted)
	}
	return r.store.find(ctx, Query{
		Where:   []clause.Expression{Eq("context_id", owner.ID)},
		OrderBy: []clause.OrderByColumn{Asc("key"), Asc("id")},
	})
}

// Get returns the setting named key, or nil.
func (r *contextConfigRepository) Get(ctx context.Context, owner *models.Context, key string) (*models.ContextConfig, error) {
	if !owner.IsPersisted() {
		return nil, fmt.Errorf("failed to get context config: %w", ErrNotPersisted)
	}
	return r.store.get(ctx, Where(Eq("context_id", owner.ID), Eq("key", key)))
}

func (r *contextConfigRepository) Save(ctx context.Context, c *models.ContextConfig) (*models.ContextConfig, error) {
	if err := r.store.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *contextConfigRepository) Remove(ctx context.Context, c *models.ContextConfig) error {
	return r.store.remove(ctx, c)
}
