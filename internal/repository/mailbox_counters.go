package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/voicemail-store/internal/models"
	"gorm.io/gorm"
)

// NotifyFunc receives the new counters of a mailbox while its counter row is
// still locked. Returning an error aborts the change.
type NotifyFunc func(ctx context.Context, read, unread int) error

// counterOp computes new counters from the locked values. Either may be nil.
type counterOp func(read, unread *int) (int, int)

func newMessageCounts(read, unread *int) (int, int) {
	return deref(read, 0), deref(unread, 0) + 1
}

// readMessageCounts treats an unset unread counter as one pending message.
func readMessageCounts(read, unread *int) (int, int) {
	return deref(read, 0) + 1, floor(deref(unread, 1) - 1)
}

func deletedMessageCounts(messageRead bool) counterOp {
	return func(read, unread *int) (int, int) {
		r, u := deref(read, 0), deref(unread, 0)
		if messageRead {
			return floor(r - 1), u
		}
		return r, floor(u - 1)
	}
}

// NewMessage records the arrival of a message in m.
func (r *mailboxRepository) NewMessage(ctx context.Context, m *models.Mailbox, notify NotifyFunc) (models.Counts, error) {
	return r.updateCounters(ctx, m, "new", newMessageCounts, notify)
}

// ReadMessage records that an unread message in m has been read.
func (r *mailboxRepository) ReadMessage(ctx context.Context, m *models.Mailbox, notify NotifyFunc) (models.Counts, error) {
	return r.updateCounters(ctx, m, "read", readMessageCounts, notify)
}

// DeletedMessage records the removal of a message from m. messageRead tells
// which counter the message was accounted in.
func (r *mailboxRepository) DeletedMessage(ctx context.Context, m *models.Mailbox, messageRead bool, notify NotifyFunc) (models.Counts, error) {
	return r.updateCounters(ctx, m, "deleted", deletedMessageCounts(messageRead), notify)
}

// updateCounters runs read-modify-write on the counter row under an exclusive
// lock. notify is called before the write and a failure rolls everything back,
// so the stored counters only change when the notification went out.
func (r *mailboxRepository) updateCounters(ctx context.Context, m *models.Mailbox, op string, apply counterOp, notify NotifyFunc) (models.Counts, error) {
	if m == nil || m.MailboxNumber == "" || m.ContextID == 0 {
		return models.Counts{}, fmt.Errorf("failed to update %s counters: %w", op, ErrInvalidInput)
	}

	var counts models.Counts
	key := Where(Eq("mailbox_number", m.MailboxNumber), Eq("context_id", m.ContextID))

	err := r.store.provider.Transaction(ctx, true, func(tx *gorm.DB) error {
		read, unread, err := r.lockCounters(tx, key)
		if err != nil {
			return err
		}

		counts.Read, counts.Unread = apply(read, unread)

		if notify != nil {
			if err := notify(ctx, counts.Read, counts.Unread); err != nil {
				return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
			}
		}

		return r.store.build(tx, key).Updates(map[string]any{
			"read":   counts.Read,
			"unread": counts.Unread,
		}).Error
	})
	if err != nil {
		return models.Counts{}, fmt.Errorf("failed to update %s counters: %w", op, err)
	}

	read, unread := counts.Read, counts.Unread
	m.Read, m.Unread = &read, &unread

	r.logger.DebugContext(ctx, "mailbox counters updated",
		slog.String("op", op),
		slog.String("mailbox_number", m.MailboxNumber),
		slog.Uint64("context_id", uint64(m.ContextID)),
		slog.Int("read", counts.Read),
		slog.Int("unread", counts.Unread),
	)
	return counts, nil
}

func (r *mailboxRepository) lockCounters(tx *gorm.DB, key Query) (read, unread *int, err error) {
	key.ForUpdate = true
	key.Limit = 1

	rows, err := r.store.build(tx, key).Clauses(selectColumns("read", "unread")).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrNotFound
	}

	var rawRead, rawUnread any
	if err := rows.Scan(&rawRead, &rawUnread); err != nil {
		return nil, nil, err
	}
	if read, err = r.store.value(rawRead).NullInt(); err != nil {
		return nil, nil, fmt.Errorf("column read: %w", err)
	}
	if unread, err = r.store.value(rawUnread).NullInt(); err != nil {
		return nil, nil, fmt.Errorf("column unread: %w", err)
	}
	return read, unread, nil
}

func deref(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
