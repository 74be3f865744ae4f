package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/api/response"
	apperrors "github.com/welldanyogia/voicemail-store/internal/errors"
	"github.com/welldanyogia/voicemail-store/internal/logger"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/storage"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	resolver
	folders    repository.FolderRepository
	messages   repository.MessageRepository
	recordings storage.RecordingStorage
	notifier   Notifier
	security   *logger.SecurityLogger
	logger     *slog.Logger
}

// MessageHandlerConfig holds the dependencies of a MessageHandler
type MessageHandlerConfig struct {
	Repositories *repository.Repositories
	Recordings   storage.RecordingStorage
	Notifier     Notifier
	Security     *logger.SecurityLogger
	Logger       *slog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(cfg MessageHandlerConfig) *MessageHandler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	security := cfg.Security
	if security == nil {
		security = logger.NewSecurityLoggerWithHandler(log.Handler())
	}
	repos := cfg.Repositories
	return &MessageHandler{
		resolver:   resolver{contexts: repos.Context, mailboxes: repos.Mailbox},
		folders:    repos.Folder,
		messages:   repos.Message,
		recordings: cfg.Recordings,
		notifier:   cfg.Notifier,
		security:   security,
		logger:     log,
	}
}

// MessageStateResponse is returned by operations that move the counters
type MessageStateResponse struct {
	Message *models.Message `json:"message,omitempty"`
	Counts  models.Counts   `json:"counts"`
}

// ChangeFolderRequest represents the request body for moving a message
type ChangeFolderRequest struct {
	DTMF *int `json:"dtmf"`
}

// List handles GET /api/contexts/:domain/mailboxes/:number/folders/:dtmf/messages.
// ?after=RFC3339 limits the listing to newer messages; ?sort=unread puts
// unread messages first.
func (h *MessageHandler) List(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	folder, err := h.folder(c)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	var messages []*models.Message
	switch {
	case c.QueryParam("after") != "":
		after, perr := time.Parse(time.RFC3339, c.QueryParam("after"))
		if perr != nil {
			return response.BadRequest(c, "after must be an RFC 3339 timestamp")
		}
		messages, err = h.messages.Latest(ctx, mailbox, folder, after)
	case c.QueryParam("sort") == "unread":
		var coll *models.MessageCollection
		coll, err = h.messages.Collection(ctx, mailbox, folder)
		if err == nil {
			coll.Sort()
			messages = coll.Messages()
		}
	default:
		messages, err = h.messages.All(ctx, mailbox, folder)
	}
	if err != nil {
		return writeError(c, err)
	}
	return response.List(c, messages)
}

// Count handles GET /api/contexts/:domain/mailboxes/:number/folders/:dtmf/count
func (h *MessageHandler) Count(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	folder, err := h.folder(c)
	if err != nil {
		return writeError(c, err)
	}

	total, err := h.messages.Count(c.Request().Context(), mailbox, folder)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, map[string]int64{"total": total})
}

// Get handles GET /api/messages/:id
func (h *MessageHandler) Get(c echo.Context) error {
	msg, err := h.message(c)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, msg)
}

// MarkAsRead handles PATCH /api/messages/:id/read. The mailbox counters move
// only when this request is the one that flipped the flag.
func (h *MessageHandler) MarkAsRead(c echo.Context) error {
	msg, err := h.message(c)
	if err != nil {
		return writeError(c, err)
	}
	mailbox, err := h.owner(c, msg)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	changed, err := h.messages.MarkAsRead(ctx, msg)
	if err != nil {
		return writeError(c, err)
	}

	counts := mailbox.Counts()
	if changed {
		counts, err = h.mailboxes.ReadMessage(ctx, mailbox, h.notify(mailbox))
		if err != nil {
			h.logger.Error("counter update failed after read",
				"message_id", msg.ID,
				"mailbox_id", mailbox.ID,
				"error", err,
			)
			h.revertRead(ctx, msg)
			return writeError(c, err)
		}
	}
	return response.Success(c, MessageStateResponse{Message: msg, Counts: counts})
}

// revertRead clears the read flag again so a retry moves the counters.
func (h *MessageHandler) revertRead(ctx context.Context, msg *models.Message) {
	msg.Read = false
	if _, err := h.messages.Save(ctx, msg); err != nil {
		h.logger.Error("failed to revert read flag",
			"message_id", msg.ID,
			"error", err,
		)
	}
}

// ChangeFolder handles PATCH /api/messages/:id/folder
func (h *MessageHandler) ChangeFolder(c echo.Context) error {
	msg, err := h.message(c)
	if err != nil {
		return writeError(c, err)
	}

	var req ChangeFolderRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.DTMF == nil {
		return response.BadRequest(c, "dtmf is required")
	}

	ctx := c.Request().Context()
	folder, err := h.folders.Get(ctx, *req.DTMF)
	if err != nil {
		return writeError(c, err)
	}
	if folder == nil {
		return writeError(c, apperrors.ErrFolderNotFound)
	}

	moved, err := h.messages.Save(ctx, h.messages.ChangeFolder(msg, folder))
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, moved)
}

// Delete handles DELETE /api/messages/:id. The counters are adjusted from the
// state the message had when it was removed.
func (h *MessageHandler) Delete(c echo.Context) error {
	msg, err := h.message(c)
	if err != nil {
		return writeError(c, err)
	}
	mailbox, err := h.owner(c, msg)
	if err != nil {
		return writeError(c, err)
	}

	ctx := c.Request().Context()
	removed, err := h.messages.Remove(ctx, msg)
	if err != nil {
		return writeError(c, err)
	}
	if removed == nil {
		return writeError(c, apperrors.ErrMessageNotFound)
	}

	h.discardRecording(c, removed)

	counts, err := h.mailboxes.DeletedMessage(ctx, mailbox, removed.Read, h.notify(mailbox))
	if err != nil {
		h.logger.Error("counter update failed after delete",
			"message_id", removed.ID,
			"mailbox_id", mailbox.ID,
			"error", err,
		)
		return writeError(c, err)
	}
	return response.Success(c, MessageStateResponse{Counts: counts})
}

// Recording handles GET /api/messages/:id/recording
func (h *MessageHandler) Recording(c echo.Context) error {
	msg, err := h.message(c)
	if err != nil {
		return writeError(c, err)
	}
	if msg.Recording == "" || h.recordings == nil {
		return response.NotFound(c, "recording not found")
	}

	file, err := h.recordings.Open(msg.Recording)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return response.NotFound(c, "recording not found")
		}
		if errors.Is(err, storage.ErrPathTraversal) {
			h.security.PathTraversalAttempt(c.RealIP(), c.Path(), msg.Recording)
			return response.NotFound(c, "recording not found")
		}
		h.logger.Error("failed to open recording", "path", msg.Recording, "error", err)
		return response.InternalError(c, "failed to retrieve recording")
	}
	defer file.Close()

	contentType := mime.TypeByExtension(path.Ext(msg.Recording))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, path.Base(msg.Recording)))
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().WriteHeader(http.StatusOK)

	if _, err := io.Copy(c.Response().Writer, file); err != nil {
		h.logger.Warn("recording transfer interrupted", "path", msg.Recording, "error", err)
	}
	return nil
}

func (h *MessageHandler) message(c echo.Context) (*models.Message, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return nil, err
	}
	msg, err := h.messages.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperrors.ErrMessageNotFound
	}
	return msg, nil
}

func (h *MessageHandler) owner(c echo.Context, msg *models.Message) (*models.Mailbox, error) {
	mailbox, err := h.mailboxes.GetByID(c.Request().Context(), msg.MailboxID)
	if err != nil {
		return nil, err
	}
	if mailbox == nil {
		return nil, apperrors.ErrMailboxNotFound
	}
	return mailbox, nil
}

func (h *MessageHandler) folder(c echo.Context) (*models.Folder, error) {
	dtmf, err := paramDTMF(c)
	if err != nil {
		return nil, err
	}
	folder, err := h.folders.Get(c.Request().Context(), dtmf)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, apperrors.ErrFolderNotFound
	}
	return folder, nil
}

func (h *MessageHandler) notify(mailbox *models.Mailbox) repository.NotifyFunc {
	if h.notifier == nil {
		return nil
	}
	return h.notifier.For(mailbox)
}

func (h *MessageHandler) discardRecording(c echo.Context, msg *models.Message) {
	if msg.Recording == "" || h.recordings == nil {
		return
	}
	if err := h.recordings.Delete(msg.Recording); err != nil {
		if errors.Is(err, storage.ErrPathTraversal) {
			h.security.PathTraversalAttempt(c.RealIP(), c.Path(), msg.Recording)
			return
		}
		h.logger.Warn("failed to delete recording",
			"message_id", msg.ID,
			"path", msg.Recording,
			"error", err,
		)
	}
}
