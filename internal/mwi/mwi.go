// Package mwi builds the message-waiting notifications handed to the mailbox
// counter operations.
package mwi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/websocket"
)

// Log returns a notifier that records the new state of mailbox.
func Log(logger *slog.Logger, mailbox *models.Mailbox) repository.NotifyFunc {
	return func(ctx context.Context, read, unread int) error {
		logger.InfoContext(ctx, "mwi update",
			slog.Uint64("mailbox_id", uint64(mailbox.ID)),
			slog.String("mailbox_number", mailbox.MailboxNumber),
			slog.Int("read", read),
			slog.Int("unread", unread),
			slog.Bool("waiting", unread > 0),
		)
		return nil
	}
}

// Hub returns a notifier that pushes the new state to websocket subscribers
// of mailboxID.
func Hub(hub *websocket.Hub, mailboxID uint) repository.NotifyFunc {
	return func(ctx context.Context, read, unread int) error {
		if err := hub.PublishMWI(mailboxID, websocket.NewMWIPayload(read, unread)); err != nil {
			return fmt.Errorf("failed to publish mwi for mailbox %d: %w", mailboxID, err)
		}
		return nil
	}
}

// Chain runs notifiers in order and stops at the first error. Nil entries are
// skipped.
func Chain(notifiers ...repository.NotifyFunc) repository.NotifyFunc {
	return func(ctx context.Context, read, unread int) error {
		for _, notify := range notifiers {
			if notify == nil {
				continue
			}
			if err := notify(ctx, read, unread); err != nil {
				return err
			}
		}
		return nil
	}
}

// Notifier builds the notification chain for a mailbox.
type Notifier struct {
	hub    *websocket.Hub
	logger *slog.Logger
}

// NewNotifier creates a Notifier. hub may be nil, in which case updates are
// only logged.
func NewNotifier(hub *websocket.Hub, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{hub: hub, logger: logger}
}

// For returns the notifier to pass to the counter operations of mailbox.
func (n *Notifier) For(mailbox *models.Mailbox) repository.NotifyFunc {
	if n.hub == nil {
		return Log(n.logger, mailbox)
	}
	return Chain(Log(n.logger, mailbox), Hub(n.hub, mailbox.ID))
}
