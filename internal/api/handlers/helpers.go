package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/api/response"
	apperrors "github.com/welldanyogia/voicemail-store/internal/errors"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/validator"
)

// Notifier supplies the message-waiting notification for a mailbox.
type Notifier interface {
	For(mailbox *models.Mailbox) repository.NotifyFunc
}

// writeError maps repository and engine errors onto the API envelope.
// Engine messages are replaced for conflicts.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrDuplicateEntry):
		err = apperrors.NewAppError(err, "resource already exists", apperrors.CodeDuplicateEntry)
	case repository.IsConstraintViolation(err):
		err = apperrors.NewAppError(err, "constraint violation", apperrors.CodeConstraintViolation)
	}
	return response.Error(c, err)
}

// resolver loads the context and mailbox named by the route.
type resolver struct {
	contexts  repository.ContextRepository
	mailboxes repository.MailboxRepository
}

// context loads the context named by :domain.
func (r resolver) context(c echo.Context) (*models.Context, error) {
	domain := strings.ToLower(c.Param("domain"))
	if err := validator.ValidateDomain(domain); err != nil {
		return nil, apperrors.NewAppError(err, "invalid domain", apperrors.CodeInvalidInput)
	}

	owner, err := r.contexts.Get(c.Request().Context(), domain)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, apperrors.ErrContextNotFound
	}
	return owner, nil
}

// mailbox loads the mailbox named by :domain and :number.
func (r resolver) mailbox(c echo.Context) (*models.Mailbox, error) {
	owner, err := r.context(c)
	if err != nil {
		return nil, err
	}

	number := c.Param("number")
	if err := validator.ValidateMailboxNumber(number); err != nil {
		return nil, apperrors.NewAppError(err, "invalid mailbox number", apperrors.CodeInvalidInput)
	}

	mailbox, err := r.mailboxes.Get(c.Request().Context(), number, owner)
	if err != nil {
		return nil, err
	}
	if mailbox == nil {
		return nil, apperrors.ErrMailboxNotFound
	}
	return mailbox, nil
}

// paramID parses a numeric route parameter.
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NewAppError(apperrors.ErrInvalidInput, "invalid "+name, apperrors.CodeInvalidInput)
	}
	return uint(id), nil
}

// paramDTMF parses the :dtmf route parameter.
func paramDTMF(c echo.Context) (int, error) {
	d, err := validator.ParseDTMF(c.Param("dtmf"))
	if err != nil {
		return 0, apperrors.NewAppError(err, err.Error(), apperrors.CodeInvalidInput)
	}
	return d, nil
}
