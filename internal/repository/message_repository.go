package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Message listing defaults
const (
	DefaultBatchSize    = 50
	DefaultBatchWorkers = 4
)

// MessageOrder selects how message listings are sorted.
type MessageOrder int

const (
	// OrderByDate lists oldest first.
	OrderByDate MessageOrder = iota
	// OrderByUnreadFirst lists unread messages first, newest first within each group.
	OrderByUnreadFirst
)

// ParseMessageOrder maps a configuration value to a MessageOrder.
func ParseMessageOrder(s string) (MessageOrder, error) {
	switch s {
	case "", "date":
		return OrderByDate, nil
	case "unread_first":
		return OrderByUnreadFirst, nil
	default:
		return OrderByDate, fmt.Errorf("unknown message order %q: %w", s, ErrInvalidInput)
	}
}

func (o MessageOrder) columns() []clause.OrderByColumn {
	if o == OrderByUnreadFirst {
		return []clause.OrderByColumn{Asc("read"), Desc("date"), Desc("id")}
	}
	return []clause.OrderByColumn{Asc("date"), Asc("id")}
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	CreateTable(ctx context.Context) error
	CreateIndexes(ctx context.Context) error
	Create(mailbox *models.Mailbox, folder *models.Folder, date time.Time) *models.Message
	Get(ctx context.Context, id uint) (*models.Message, error)
	All(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) ([]*models.Message, error)
	Latest(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder, after time.Time) ([]*models.Message, error)
	Count(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) (int64, error)
	Collection(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) (*models.MessageCollection, error)
	Save(ctx context.Context, m *models.Message) (*models.Message, error)
	MarkAsRead(ctx context.Context, m *models.Message) (bool, error)
	ChangeFolder(m *models.Message, folder *models.Folder) *models.Message
	Remove(ctx context.Context, m *models.Message) (*models.Message, error)
}

var messageTable = &Table[models.Message]{
	Name: "message",
	Columns: []Column[models.Message]{
		referenceColumn("mailbox_id", "mailbox", func(m *models.Message) *uint { return &m.MailboxID }),
		referenceColumn("folder_id", "folder", func(m *models.Message) *uint { return &m.FolderID }),
		dateColumn("date", func(m *models.Message) *time.Time { return &m.Date }),
		boolColumn("read", func(m *models.Message) *bool { return &m.Read }),
		nullIntColumn("original_mailbox", func(m *models.Message) **int { return &m.OriginalMailbox }),
		nullStringColumn("caller_id", func(m *models.Message) **string { return &m.CallerID }),
		stringColumn("duration", func(m *models.Message) *string { return &m.Duration }),
		stringColumn("recording", func(m *models.Message) *string { return &m.Recording }),
	},
	Indexes: []Index{
		{Name: "message_mailbox_folder_idx", Columns: []string{"mailbox_id", "folder_id"}},
		{Name: "message_date_idx", Columns: []string{"date"}},
	},
	ID:    func(m *models.Message) uint { return m.ID },
	SetID: func(m *models.Message, id uint) { m.ID = id },
}

// MessageOptions tunes message listings.
type MessageOptions struct {
	// BatchSize is the page size used to fetch listings. Zero means DefaultBatchSize.
	BatchSize int
	// Workers bounds the number of pages fetched at once. Zero means DefaultBatchWorkers.
	Workers int
	Order   MessageOrder
}

type messageRepository struct {
	store  *store[models.Message]
	opts   MessageOptions
	logger *slog.Logger
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(provider database.Provider, logger *slog.Logger, opts MessageOptions) MessageRepository {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultBatchWorkers
	}
	s := newStore(provider, messageTable, logger)
	return &messageRepository{store: s, opts: opts, logger: s.logger}
}

func (r *messageRepository) CreateTable(ctx context.Context) error {
	return r.store.createTable(ctx)
}

func (r *messageRepository) CreateIndexes(ctx context.Context) error {
	return r.store.createIndexes(ctx)
}

// Create returns a transient unread message in folder of mailbox.
func (r *messageRepository) Create(mailbox *models.Mailbox, folder *models.Folder, date time.Time) *models.Message {
	m := &models.Message{Date: date}
	if mailbox != nil {
		m.MailboxID = mailbox.ID
	}
	if folder != nil {
		m.FolderID = folder.ID
	}
	return m
}

// Get returns the message with id, or nil.
func (r *messageRepository) Get(ctx context.Context, id uint) (*models.Message, error) {
	return r.store.get(ctx, Where(Eq("id", id)))
}

func ownerConditions(mailbox *models.Mailbox, folder *models.Folder) ([]clause.Expression, error) {
	if !mailbox.IsPersisted() || !folder.IsPersisted() {
		return nil, ErrNotPersisted
	}
	return []clause.Expression{Eq("mailbox_id", mailbox.ID), Eq("folder_id", folder.ID)}, nil
}

// All lists every message of mailbox in folder.
func (r *messageRepository) All(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) ([]*models.Message, error) {
	conds, err := ownerConditions(mailbox, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return r.paginate(ctx, conds)
}

// Latest lists the messages of mailbox in folder dated strictly after after.
func (r *messageRepository) Latest(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder, after time.Time) ([]*models.Message, error) {
	conds, err := ownerConditions(mailbox, folder)
	if err != nil {
		return nil, fmt.Errorf("failed to list latest messages: %w", err)
	}
	conds = append(conds, Gt("date", r.store.provider.ConvertDateForStorage(after)))
	return r.paginate(ctx, conds)
}

func (r *messageRepository) Count(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) (int64, error) {
	conds, err := ownerConditions(mailbox, folder)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return r.store.count(ctx, Query{Where: conds})
}

// paginate counts the matching rows, then fetches them in fixed-size pages
// concurrently and concatenates the pages in order.
func (r *messageRepository) paginate(ctx context.Context, conds []clause.Expression) ([]*models.Message, error) {
	total, err := r.store.count(ctx, Query{Where: conds})
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []*models.Message{}, nil
	}

	size := r.opts.BatchSize
	pages := make([][]*models.Message, (int(total)+size-1)/size)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i := range pages {
		g.Go(func() error {
			page, err := r.store.find(gctx, Query{
				Where:   conds,
				OrderBy: r.opts.Order.columns(),
				Limit:   size,
				Offset:  i * size,
			})
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*models.Message, 0, total)
	for _, page := range pages {
		out = append(out, page...)
	}

	r.logger.DebugContext(ctx, "messages listed",
		slog.Int64("count", total),
		slog.Int("batches", len(pages)),
	)
	return out, nil
}

// Collection loads the messages of mailbox in folder for sequential playback.
func (r *messageRepository) Collection(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) (*models.MessageCollection, error) {
	messages, err := r.All(ctx, mailbox, folder)
	if err != nil {
		return nil, err
	}
	return models.NewMessageCollection(messages), nil
}

func (r *messageRepository) Save(ctx context.Context, m *models.Message) (*models.Message, error) {
	if err := r.store.save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// MarkAsRead marks m read. It reports whether this call made the change; a
// message that was already read, or has been deleted, yields false. Transient
// messages are only marked in memory.
func (r *messageRepository) MarkAsRead(ctx context.Context, m *models.Message) (bool, error) {
	if !m.IsPersisted() {
		return m.MarkAsRead(), nil
	}

	changed := false
	err := r.store.provider.Transaction(ctx, true, func(tx *gorm.DB) error {
		current, err := r.store.getTx(tx, Query{
			Where:     []clause.Expression{Eq("id", m.ID)},
			ForUpdate: true,
		})
		if err != nil {
			return err
		}
		if current == nil || current.Read {
			return nil
		}

		if err := tx.Table(messageTable.Name).Where(Eq("id", m.ID)).Update("read", true).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark message as read: %w", err)
	}

	if changed {
		m.Read = true
	}
	return changed, nil
}

// ChangeFolder returns a copy of m placed in folder. The copy must be saved to
// take effect.
func (r *messageRepository) ChangeFolder(m *models.Message, folder *models.Folder) *models.Message {
	return m.WithFolder(folder)
}

// Remove deletes m and returns its state just before deletion. When another
// caller removed it first the result is nil with no error.
func (r *messageRepository) Remove(ctx context.Context, m *models.Message) (*models.Message, error) {
	if !m.IsPersisted() {
		return nil, fmt.Errorf("failed to remove message: %w", ErrNotPersisted)
	}

	var snapshot *models.Message
	err := r.store.provider.Transaction(ctx, true, func(tx *gorm.DB) error {
		current, err := r.store.getTx(tx, Query{
			Where:     []clause.Expression{Eq("id", m.ID)},
			ForUpdate: true,
		})
		if err != nil || current == nil {
			return err
		}

		if err := r.store.removeTx(tx, m.ID); err != nil {
			return err
		}
		snapshot = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove message: %w", err)
	}
	return snapshot, nil
}
