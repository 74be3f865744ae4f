package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/api/response"
	apperrors "github.com/welldanyogia/voicemail-store/internal/errors"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/validator"
)

// MailboxHandler handles mailbox-related HTTP requests
type MailboxHandler struct {
	resolver
	configs repository.MailboxConfigRepository
}

// NewMailboxHandler creates a new MailboxHandler
func NewMailboxHandler(repos *repository.Repositories) *MailboxHandler {
	return &MailboxHandler{
		resolver: resolver{contexts: repos.Context, mailboxes: repos.Mailbox},
		configs:  repos.MailboxConfig,
	}
}

// MailboxRequest carries the writable mailbox fields. Absent fields are left
// unchanged on update. Counters are not writable.
type MailboxRequest struct {
	MailboxNumber string  `json:"mailbox_number"`
	MailboxName   *string `json:"mailbox_name"`
	Password      *string `json:"password"`
	Name          *string `json:"name"`
	Email         *string `json:"email"`
	GreetingBusy  *string `json:"greeting_busy"`
	GreetingAway  *string `json:"greeting_away"`
	GreetingName  *string `json:"greeting_name"`
}

// apply copies the present fields onto m.
func (r *MailboxRequest) apply(m *models.Mailbox) error {
	fields := []struct {
		src *string
		dst *string
	}{
		{r.MailboxName, &m.MailboxName},
		{r.Password, &m.Password},
		{r.Name, &m.Name},
		{r.Email, &m.Email},
		{r.GreetingBusy, &m.GreetingBusy},
		{r.GreetingAway, &m.GreetingAway},
		{r.GreetingName, &m.GreetingName},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if len(*f.src) > validator.MaxFieldLength {
			return validator.ErrInputTooLong
		}
		*f.dst = *f.src
	}
	return nil
}

// Create handles POST /api/contexts/:domain/mailboxes
func (h *MailboxHandler) Create(c echo.Context) error {
	owner, err := h.context(c)
	if err != nil {
		return writeError(c, err)
	}

	var req MailboxRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validator.ValidateMailboxNumber(req.MailboxNumber); err != nil {
		return response.BadRequest(c, err.Error())
	}

	mailbox := h.mailboxes.Create(owner, req.MailboxNumber)
	if err := req.apply(mailbox); err != nil {
		return response.BadRequest(c, err.Error())
	}

	saved, err := h.mailboxes.Save(c.Request().Context(), mailbox)
	if err != nil {
		return writeError(c, err)
	}
	return response.Created(c, saved)
}

// List handles GET /api/contexts/:domain/mailboxes
func (h *MailboxHandler) List(c echo.Context) error {
	owner, err := h.context(c)
	if err != nil {
		return writeError(c, err)
	}
	mailboxes, err := h.mailboxes.FindByContext(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, err)
	}
	return response.List(c, mailboxes)
}

// Get handles GET /api/contexts/:domain/mailboxes/:number
func (h *MailboxHandler) Get(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, mailbox)
}

// Update handles PUT /api/contexts/:domain/mailboxes/:number
func (h *MailboxHandler) Update(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}

	var req MailboxRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := req.apply(mailbox); err != nil {
		return response.BadRequest(c, err.Error())
	}

	saved, err := h.mailboxes.Save(c.Request().Context(), mailbox)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, saved)
}

// Delete handles DELETE /api/contexts/:domain/mailboxes/:number
func (h *MailboxHandler) Delete(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.mailboxes.Remove(c.Request().Context(), mailbox); err != nil {
		return writeError(c, err)
	}
	return response.NoContent(c)
}

// Counts handles GET /api/contexts/:domain/mailboxes/:number/counts
func (h *MailboxHandler) Counts(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, mailbox.Counts())
}

// ListConfig handles GET /api/contexts/:domain/mailboxes/:number/config
func (h *MailboxHandler) ListConfig(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	configs, err := h.configs.All(c.Request().Context(), mailbox)
	if err != nil {
		return writeError(c, err)
	}
	return response.List(c, configs)
}

// GetConfig handles GET /api/contexts/:domain/mailboxes/:number/config/:key
func (h *MailboxHandler) GetConfig(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	key := c.Param("key")
	if err := validator.ValidateConfigKey(key); err != nil {
		return response.BadRequest(c, err.Error())
	}

	setting, err := h.configs.Get(c.Request().Context(), mailbox, key)
	if err != nil {
		return writeError(c, err)
	}
	if setting == nil {
		return response.NotFound(c, "config key not found")
	}
	return response.Success(c, setting)
}

// PutConfig handles PUT /api/contexts/:domain/mailboxes/:number/config/:key
func (h *MailboxHandler) PutConfig(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	key := c.Param("key")
	if err := validator.ValidateConfigKey(key); err != nil {
		return response.BadRequest(c, err.Error())
	}

	var req ConfigValueRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if len(req.Value) > validator.MaxFieldLength {
		return response.BadRequest(c, validator.ErrInputTooLong.Error())
	}

	ctx := c.Request().Context()
	setting, err := h.configs.Get(ctx, mailbox, key)
	if err != nil {
		return writeError(c, err)
	}
	if setting == nil {
		setting = h.configs.Create(mailbox, key, req.Value)
	} else {
		setting.Value = req.Value
	}

	saved, err := h.configs.Save(ctx, setting)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, saved)
}

// DeleteConfig handles DELETE /api/contexts/:domain/mailboxes/:number/config/:key
func (h *MailboxHandler) DeleteConfig(c echo.Context) error {
	mailbox, err := h.mailbox(c)
	if err != nil {
		return writeError(c, err)
	}
	setting, err := h.configs.Get(c.Request().Context(), mailbox, c.Param("key"))
	if err != nil {
		return writeError(c, err)
	}
	if setting == nil {
		return writeError(c, apperrors.ErrNotFound)
	}
	if err := h.configs.Remove(c.Request().Context(), setting); err != nil {
		return writeError(c, err)
	}
	return response.NoContent(c)
}
