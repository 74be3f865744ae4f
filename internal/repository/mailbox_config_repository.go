package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"gorm.io/gorm/clause"
)

// MailboxConfigRepository defines the interface for per-mailbox settings
type MailboxConfigRepository interface {
	CreateTable(ctx context.Context) error
	CreateIndexes(ctx context.Context) error
	Create(owner *models.Mailbox, key, value string) *models.MailboxConfig
	All(ctx context.Context, owner *models.Mailbox) ([]*models.MailboxConfig, error)
	Get(ctx context.Context, owner *models.Mailbox, key string) (*models.MailboxConfig, error)
	Save(ctx context.Context, c *models.MailboxConfig) (*models.MailboxConfig, error)
	Remove(ctx context.Context, c *models.MailboxConfig) error
}

var mailboxConfigTable = &Table[models.MailboxConfig]{
	Name: "mailbox_config",
	Columns: []Column[models.MailboxConfig]{
		referenceColumn("mailbox_id", "mailbox", func(c *models.MailboxConfig) *uint { return &c.MailboxID }),
		stringColumn("key", func(c *models.MailboxConfig) *string { return &c.Key }),
		stringColumn("value", func(c *models.MailboxConfig) *string { return &c.Value }),
	},
	Indexes: []Index{
		{Name: "mailbox_config_mailbox_idx", Columns: []string{"mailbox_id"}},
	},
	ID:    func(c *models.MailboxConfig) uint { return c.ID },
	SetID: func(c *models.MailboxConfig, id uint) { c.ID = id },
}

type mailboxConfigRepository struct {
	store *store[models.MailboxConfig]
}

// NewMailboxConfigRepository creates a new MailboxConfigRepository instance
func NewMailboxConfigRepository(provider database.Provider, logger *slog.Logger) MailboxConfigRepository {
	return &mailboxConfigRepository{store: newStore(provider, mailboxConfigTable, logger)}
}

func (r *mailboxConfigRepository) CreateTable(ctx context.Context) error {
	return r.store.createTable(ctx)
}

func (r *mailboxConfigRepository) CreateIndexes(ctx context.Context) error {
	return r.store.createIndexes(ctx)
}

// Create returns a transient setting owned by owner.
func (r *mailboxConfigRepository) Create(owner *models.Mailbox, key, value string) *models.MailboxConfig {
	c := &models.MailboxConfig{Key: key, Value: value}
	if owner != nil {
		c.MailboxID = owner.ID
	}
	return c
}

func (r *mailboxConfigRepository) All(ctx context.Context, owner *models.Mailbox) ([]*models.MailboxConfig, error) {
	if !owner.IsPersisted() {
		return nil, fmt.Errorf("failed to list mailbox config: %w", ErrNotPersisted)
	}
	return r.store.find(ctx, Query{
		Where:   []clause.Expression{Eq("mailbox_id", owner.ID)},
		OrderBy: []clause.OrderByColumn{Asc("key"), Asc("id")},
	})
}

// Get returns the setting named key, or nil.
func (r *mailboxConfigRepository) Get(ctx context.Context, owner *models.Mailbox, key string) (*models.MailboxConfig, error) {
	if !owner.IsPersisted() {
		return nil, fmt.Errorf("failed to get mailbox config: %w", ErrNotPersisted)
	}
	return r.store.get(ctx, Where(Eq("mailbox_id", owner.ID), Eq("key", key)))
}

func (r *mailboxConfigRepository) Save(ctx context.Context, c *models.MailboxConfig) (*models.MailboxConfig, error) {
	if err := r.store.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *mailboxConfigRepository) Remove(ctx context.Context, c *models.MailboxConfig) error {
	return r.store.remove(ctx, c)
}
