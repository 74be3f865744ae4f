package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"gorm.io/gorm/clause"
)

// MailboxRepository defines the interface for mailbox data access
type MailboxRepository interface {
	CreateTable(ctx context.Context) error
	CreateIndexes(ctx context.Context) error
	Create(owner *models.Context, mailboxNumber string) *models.Mailbox
	Get(ctx context.Context, mailboxNumber string, owner *models.Context) (*models.Mailbox, error)
	GetByID(ctx context.Context, id uint) (*models.Mailbox, error)
	FindByContext(ctx context.Context, owner *models.Context) ([]*models.Mailbox, error)
	Save(ctx context.Context, m *models.Mailbox) (*models.Mailbox, error)
	Remove(ctx context.Context, m *models.Mailbox) error

	// Counter operations. See mailbox_counters.go.
	NewMessage(ctx context.Context, m *models.Mailbox, notify NotifyFunc) (models.Counts, error)
	ReadMessage(ctx context.Context, m *models.Mailbox, notify NotifyFunc) (models.Counts, error)
	DeletedMessage(ctx context.Context, m *models.Mailbox, messageRead bool, notify NotifyFunc) (models.Counts, error)
}

var mailboxTable = &Table[models.Mailbox]{
	Name: "mailbox",
	Columns: []Column[models.Mailbox]{
		stringColumn("mailbox_number", func(m *models.Mailbox) *string { return &m.MailboxNumber }),
		referenceColumn("context_id", "context", func(m *models.Mailbox) *uint { return &m.ContextID }),
		stringColumn("mailbox_name", func(m *models.Mailbox) *string { return &m.MailboxName }),
		stringColumn("password", func(m *models.Mailbox) *string { return &m.Password }),
		stringColumn("name", func(m *models.Mailbox) *string { return &m.Name }),
		stringColumn("email", func(m *models.Mailbox) *string { return &m.Email }),
		stringColumn("greeting_busy", func(m *models.Mailbox) *string { return &m.GreetingBusy }),
		stringColumn("greeting_away", func(m *models.Mailbox) *string { return &m.GreetingAway }),
		stringColumn("greeting_name", func(m *models.Mailbox) *string { return &m.GreetingName }),
		// Counters change only through the counter operations once stored.
		createOnly(nullIntColumn("read", func(m *models.Mailbox) **int { return &m.Read })),
		createOnly(nullIntColumn("unread", func(m *models.Mailbox) **int { return &m.Unread })),
	},
	Indexes: []Index{
		{Name: "mailbox_number_context_idx", Columns: []string{"mailbox_number", "context_id"}, Unique: true},
	},
	ID:    func(m *models.Mailbox) uint { return m.ID },
	SetID: func(m *models.Mailbox, id uint) { m.ID = id },
}

// mailboxRepository implements MailboxRepository on a storage provider
type mailboxRepository struct {
	store  *store[models.Mailbox]
	logger *slog.Logger
}

// NewMailboxRepository creates a new MailboxRepository instance
func NewMailboxRepository(provider database.Provider, logger *slog.Logger) MailboxRepository {
	s := newStore(provider, mailboxTable, logger)
	return &mailboxRepository{store: s, logger: s.logger}
}

func (r *mailboxRepository) CreateTable(ctx context.Context) error {
	return r.store.createTable(ctx)
}

func (r *mailboxRepository) CreateIndexes(ctx context.Context) error {
	return r.store.createIndexes(ctx)
}

// Create returns a transient mailbox in owner. The counters stay nil until set
// by the caller or by the first counter operation.
func (r *mailboxRepository) Create(owner *models.Context, mailboxNumber string) *models.Mailbox {
	m := &models.Mailbox{MailboxNumber: mailboxNumber}
	if owner != nil {
		m.ContextID = owner.ID
	}
	return m
}

// Get looks a mailbox up by number within owner. It returns nil when there is none.
func (r *mailboxRepository) Get(ctx context.Context, mailboxNumber string, owner *models.Context) (*models.Mailbox, error) {
	if !owner.IsPersisted() {
		return nil, fmt.Errorf("failed to get mailbox: %w", ErrNotPersisted)
	}
	return r.store.get(ctx, Where(Eq("mailbox_number", mailboxNumber), Eq("context_id", owner.ID)))
}

func (r *mailboxRepository) GetByID(ctx context.Context, id uint) (*models.Mailbox, error) {
	return r.store.get(ctx, Where(Eq("id", id)))
}

// FindByContext lists the mailboxes of owner ordered by number.
func (r *mailboxRepository) FindByContext(ctx context.Context, owner *models.Context) ([]*models.Mailbox, error) {
	if !owner.IsPersisted() {
		return nil, fmt.Errorf("failed to list mailboxes: %w", ErrNotPersisted)
	}
	return r.store.find(ctx, Query{
		Where:   []clause.Expression{Eq("context_id", owner.ID)},
		OrderBy: []clause.OrderByColumn{Asc("mailbox_number")},
	})
}

// Save inserts or updates m. Updates leave the stored read and unread counters
// untouched whatever their in-memory values.
func (r *mailboxRepository) Save(ctx context.Context, m *models.Mailbox) (*models.Mailbox, error) {
	if err := r.store.save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *mailboxRepository) Remove(ctx context.Context, m *models.Mailbox) error {
	return r.store.remove(ctx, m)
}
