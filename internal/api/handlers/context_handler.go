package handlers

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/api/response"
	apperrors "github.com/welldanyogia/voicemail-store/internal/errors"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/validator"
)

// ContextHandler handles voicemail context HTTP requests
type ContextHandler struct {
	resolver
	configs repository.ContextConfigRepository
}

// NewContextHandler creates a new ContextHandler
func NewContextHandler(repos *repository.Repositories) *ContextHandler {
	return &ContextHandler{
		resolver: resolver{contexts: repos.Context, mailboxes: repos.Mailbox},
		configs:  repos.ContextConfig,
	}
}

// CreateContextRequest represents the request body for creating a context
type CreateContextRequest struct {
	Domain string `json:"domain"`
}

// ConfigValueRequest represents the request body for setting a config value
type ConfigValueRequest struct {
	Value string `json:"value"`
}

// Create handles POST /api/contexts
func (h *ContextHandler) Create(c echo.Context) error {
	var req CreateContextRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	domain := strings.ToLower(strings.TrimSpace(req.Domain))
	if err := validator.ValidateDomain(domain); err != nil {
		return response.BadRequest(c, err.Error())
	}

	saved, err := h.contexts.Save(c.Request().Context(), h.contexts.Create(domain))
	if err != nil {
		return writeError(c, err)
	}
	return response.Created(c, saved)
}

// List handles GET /api/contexts
func (h *ContextHandler) List(c echo.Context) error {
	contexts, err := h.contexts.All(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return response.List(c, contexts)
}

// Get handles GET /api/contexts/:domain
func (h *ContextHandler) Get(c echo.Context) error {
	owner, err := h.context(c)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, owner)
}

// Delete handles DELETE /api/contexts/:domain
func (h *ContextHandler) Delete(c echo.Context) error {
	owner, err := h.context(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.contexts.Remove(c.Request().Context(), owner); err != nil {
		return writeError(c, err)
	}
	return response.NoContent(c)
}

// ListConfig handles GET /api/contexts/:domain/config
func (h *ContextHandler) ListConfig(c echo.Context) error {
	owner, err := h.context(c)
	if err != nil {
		return writeError(c, err)
	}
	configs, err := h.configs.All(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, err)
	}
	return response.List(c, configs)
}

// GetConfig handles GET /api/contexts/:domain/config/:key
func (h *ContextHandler) GetConfig(c echo.Context) error {
	owner, err := h.context(c)
	if err != nil {
		return writeError(c, err)
	}
	key := c.Param("key")
	if err := validator.ValidateConfigKey(key); err != nil {
		return response.BadRequest(c, err.Error())
	}

	setting, err := h.configs.Get(c.Request().Context(), owner, key)
	if err != nil {
		return writeError(c, err)
	}
	if setting == nil {
		return response.NotFound(c, "config key not found")
	}
	return response.Success(c, setting)
}

// PutConfig handles PUT /api/contexts/:domain/config/:key. A missing key is
// created.
func (h *ContextHandler) PutConfig(c echo.Context) error {
	owner, err := h.context(c)
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
	setting, err := h.configs.Get(ctx, owner, key)
	if err != nil {
		return writeError(c, err)
	}
	if setting == nil {
		setting = h.configs.Create(owner, key, req.Value)
	} else {
		setting.Value = req.Value
	}

	saved, err := h.configs.Save(ctx, setting)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, saved)
}

// DeleteConfig handles DELETE /api/contexts/:domain/config/:key
func (h *ContextHandler) DeleteConfig(c echo.Context) error {
	owner, err := h.context(c)
	if err != nil {
		return writeError(c, err)
	}
	setting, err := h.configs.Get(c.Request().Context(), owner, c.Param("key"))
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
