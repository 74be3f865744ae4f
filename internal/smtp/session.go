package smtp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/emersion/go-smtp"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/storage"
	"github.com/welldanyogia/voicemail-store/internal/validator"
)

var (
	errMailboxNotFound = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 1},
		Message:      "Mailbox not found",
	}
	errTemporary = &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 3, 0},
		Message:      "Temporary error",
	}
)

// recipient is an accepted RCPT with its resolved mailbox
type recipient struct {
	address string
	mailbox *models.Mailbox
}

// Session implements the go-smtp Session interface
type Session struct {
	backend    *Backend
	remoteAddr string
	from       string
	recipients []recipient
}

// NewSession creates a new SMTP session
func NewSession(backend *Backend, remoteAddr string) *Session {
	return &Session{
		backend:    backend,
		remoteAddr: remoteAddr,
	}
}

// Mail handles the MAIL FROM command
func (s *Session) Mail(from string, opts *smtp.MailOptions) error {
	s.from = from
	s.backend.logger.Debug("MAIL FROM", slog.String("from", from))
	return nil
}

// Rcpt accepts number@domain when the domain names a context holding that
// mailbox.
func (s *Session) Rcpt(to string, opts *smtp.RcptOptions) error {
	number, domain, err := validator.ParseRecipient(to)
	if err != nil {
		s.backend.security.RejectedDeposit(s.remoteAddr, to, err.Error())
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 3},
			Message:      "Invalid recipient address",
		}
	}

	ctx := context.Background()
	owner, err := s.backend.contexts.Get(ctx, domain)
	if err != nil {
		s.backend.logger.Error("failed to look up context", slog.String("domain", domain), slog.Any("error", err))
		return errTemporary
	}
	if owner == nil {
		s.backend.security.RejectedDeposit(s.remoteAddr, to, "unknown context")
		return errMailboxNotFound
	}

	mailbox, err := s.backend.mailboxes.Get(ctx, number, owner)
	if err != nil {
		s.backend.logger.Error("failed to look up mailbox", slog.String("recipient", to), slog.Any("error", err))
		return errTemporary
	}
	if mailbox == nil {
		s.backend.security.RejectedDeposit(s.remoteAddr, to, "unknown mailbox")
		return errMailboxNotFound
	}

	s.recipients = append(s.recipients, recipient{address: to, mailbox: mailbox})
	s.backend.logger.Debug("RCPT TO", slog.String("to", to), slog.String("mailbox_number", number))
	return nil
}

// Data parses the deposit and delivers it to every accepted recipient.
func (s *Session) Data(r io.Reader) error {
	if len(s.recipients) == 0 {
		return &smtp.SMTPError{
			Code:         503,
			EnhancedCode: smtp.EnhancedCode{5, 5, 1},
			Message:      "No recipients specified",
		}
	}

	vm, err := ParseVoicemail(r, s.backend.now())
	if err != nil {
		s.backend.logger.Warn("failed to parse deposit", slog.Any("error", err))
		message := "Failed to parse voicemail"
		if errors.Is(err, ErrNoRecording) {
			message = "Voicemail has no audio recording"
		}
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      message,
		}
	}

	if err := storage.ValidateRecording(vm.Recording.Filename, vm.Recording.Size()); err != nil {
		s.backend.security.RejectedRecording(s.remoteAddr, vm.Recording.Filename, err.Error())
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 1},
			Message:      "Recording rejected",
		}
	}

	if vm.SenderEmail == "" {
		vm.SenderEmail = s.from
	}

	ctx := context.Background()
	delivered := 0
	for _, rcpt := range s.recipients {
		msg, err := s.deliver(ctx, rcpt.mailbox, vm)
		if err != nil {
			s.backend.logger.Error("failed to deliver voicemail",
				slog.String("recipient", rcpt.address),
				slog.Any("error", err))
			continue
		}
		delivered++
		s.backend.logger.Info("voicemail deposited",
			slog.String("sender", vm.SenderEmail),
			slog.String("recipient", rcpt.address),
			slog.Uint64("message_id", uint64(msg.ID)),
			slog.String("recording", msg.Recording))
	}

	if delivered == 0 {
		return errTemporary
	}
	return nil
}

// deliver stores the recording, saves the message in the inbox and bumps
// the mailbox counters. A failed counter update undoes the first two steps.
func (s *Session) deliver(ctx context.Context, mailbox *models.Mailbox, vm *ParsedVoicemail) (*models.Message, error) {
	inbox, err := s.backend.folders.Get(ctx, s.backend.inboxDTMF)
	if err != nil {
		return nil, fmt.Errorf("failed to get inbox folder: %w", err)
	}
	if inbox == nil {
		return nil, fmt.Errorf("inbox folder %d does not exist", s.backend.inboxDTMF)
	}

	path, err := s.backend.recordings.Save(vm.Recording.Filename, bytes.NewReader(vm.Recording.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to store recording: %w", err)
	}

	msg := s.backend.messages.Create(mailbox, inbox, vm.Date)
	msg.CallerID = vm.CallerID
	msg.Duration = vm.Duration
	msg.OriginalMailbox = vm.OriginalMailbox
	msg.Recording = path

	if _, err := s.backend.messages.Save(ctx, msg); err != nil {
		s.discardRecording(path)
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if _, err := s.backend.mailboxes.NewMessage(ctx, mailbox, s.backend.notify(mailbox)); err != nil {
		if _, rmErr := s.backend.messages.Remove(ctx, msg); rmErr != nil {
			s.backend.logger.Error("failed to remove undelivered message",
				slog.Uint64("message_id", uint64(msg.ID)),
				slog.Any("error", rmErr))
		}
		s.discardRecording(path)
		return nil, fmt.Errorf("failed to update mailbox counters: %w", err)
	}

	return msg, nil
}

func (s *Session) discardRecording(path string) {
	if err := s.backend.recordings.Delete(path); err != nil {
		s.backend.logger.Warn("failed to delete recording", slog.String("path", path), slog.Any("error", err))
	}
}

// Reset resets the session state
func (s *Session) Reset() {
	s.from = ""
	s.recipients = nil
}

// Logout handles the end of the session
func (s *Session) Logout() error {
	return nil
}
