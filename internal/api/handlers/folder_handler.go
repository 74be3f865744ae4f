package handlers

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/voicemail-store/internal/api/response"
	apperrors "github.com/welldanyogia/voicemail-store/internal/errors"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/validator"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folders repository.FolderRepository
}

// NewFolderHandler creates a new FolderHandler
func NewFolderHandler(repos *repository.Repositories) *FolderHandler {
	return &FolderHandler{folders: repos.Folder}
}

// CreateFolderRequest represents the request body for creating a folder
type CreateFolderRequest struct {
	Name      string `json:"name"`
	Recording string `json:"recording"`
	DTMF      *int   `json:"dtmf"`
}

// Create handles POST /api/folders
func (h *FolderHandler) Create(c echo.Context) error {
	var req CreateFolderRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return response.BadRequest(c, "name is required")
	}
	if len(name) > validator.MaxFieldLength || len(req.Recording) > validator.MaxFieldLength {
		return response.BadRequest(c, validator.ErrInputTooLong.Error())
	}
	if req.DTMF == nil {
		return response.BadRequest(c, "dtmf is required")
	}
	if err := validator.ValidateDTMF(*req.DTMF); err != nil {
		return response.BadRequest(c, err.Error())
	}

	saved, err := h.folders.Save(c.Request().Context(), h.folders.Create(name, req.Recording, *req.DTMF))
	if err != nil {
		return writeError(c, err)
	}
	return response.Created(c, saved)
}

// List handles GET /api/folders
func (h *FolderHandler) List(c echo.Context) error {
	folders, err := h.folders.All(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return response.List(c, folders)
}

// Get handles GET /api/folders/:dtmf
func (h *FolderHandler) Get(c echo.Context) error {
	folder, err := h.folder(c)
	if err != nil {
		return writeError(c, err)
	}
	return response.Success(c, folder)
}

// Delete handles DELETE /api/folders/:dtmf. Messages filed in the folder keep
// the folder from being removed.
func (h *FolderHandler) Delete(c echo.Context) error {
	folder, err := h.folder(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := h.folders.Remove(c.Request().Context(), folder); err != nil {
		return writeError(c, err)
	}
	return response.NoContent(c)
}

func (h *FolderHandler) folder(c echo.Context) (*models.Folder, error) {
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
