package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/voicemail-store/internal/models"
)

// FolderHandlerTestSuite is the test suite for FolderHandler
type FolderHandlerTestSuite struct {
	handlerSuite
	handler *FolderHandler
}

func (s *FolderHandlerTestSuite) SetupTest() {
	s.handlerSuite.SetupTest()
	s.handler = NewFolderHandler(s.repos)
}

func TestFolderHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(FolderHandlerTestSuite))
}

func (s *FolderHandlerTestSuite) TestCreate_ValidInput() {
	s.mockFolderRepo.On("Save", mock.Anything, mock.MatchedBy(func(f *models.Folder) bool {
		return f.Name == "INBOX" && f.DTMF == 0 && f.Recording == "vm-INBOX"
	})).Return(&models.Folder{ID: 1, Name: "INBOX", Recording: "vm-INBOX", DTMF: 0}, nil)

	c, rec := s.createContext(http.MethodPost, "/api/folders", `{"name":"INBOX","recording":"vm-INBOX","dtmf":0}`)

	s.Require().NoError(s.handler.Create(c))
	s.Equal(http.StatusCreated, rec.Code)
}

func (s *FolderHandlerTestSuite) TestCreate_MissingDTMF() {
	c, rec := s.createContext(http.MethodPost, "/api/folders", `{"name":"INBOX"}`)

	s.Require().NoError(s.handler.Create(c))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "dtmf is required")
}

func (s *FolderHandlerTestSuite) TestCreate_DTMFOutOfRange() {
	c, rec := s.createContext(http.MethodPost, "/api/folders", `{"name":"Extra","dtmf":12}`)

	s.Require().NoError(s.handler.Create(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *FolderHandlerTestSuite) TestGet_ByDTMF() {
	s.mockFolderRepo.On("Get", mock.Anything, 1).Return(&models.Folder{ID: 2, Name: "Old", DTMF: 1}, nil)

	c, rec := s.createContext(http.MethodGet, "/", "", "dtmf", "1")

	s.Require().NoError(s.handler.Get(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"name":"Old"`)
}

func (s *FolderHandlerTestSuite) TestGet_InvalidDTMF() {
	c, rec := s.createContext(http.MethodGet, "/", "", "dtmf", "x")

	s.Require().NoError(s.handler.Get(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *FolderHandlerTestSuite) TestGet_NotFound() {
	s.mockFolderRepo.On("Get", mock.Anything, 9).Return(nil, nil)

	c, rec := s.createContext(http.MethodGet, "/", "", "dtmf", "9")

	s.Require().NoError(s.handler.Get(c))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *FolderHandlerTestSuite) TestDelete_InUse() {
	folder := &models.Folder{ID: 2, Name: "Old", DTMF: 1}
	s.mockFolderRepo.On("Get", mock.Anything, 1).Return(folder, nil)
	s.mockFolderRepo.On("Remove", mock.Anything, folder).
		Return(fmt.Errorf("failed to remove folder: %w", errors.New("FOREIGN KEY constraint failed")))

	c, rec := s.createContext(http.MethodDelete, "/", "", "dtmf", "1")

	s.Require().NoError(s.handler.Delete(c))
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), "CONSTRAINT_VIOLATION")
}

func (s *FolderHandlerTestSuite) TestList() {
	s.mockFolderRepo.On("All", mock.Anything).Return([]*models.Folder{
		{ID: 1, Name: "INBOX", DTMF: 0},
		{ID: 2, Name: "Old", DTMF: 1},
	}, nil)

	c, rec := s.createContext(http.MethodGet, "/api/folders", "")

	s.Require().NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"total":2`)
}
