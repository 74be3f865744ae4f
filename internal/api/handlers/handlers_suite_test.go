package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/voicemail-store/internal/api/response"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/tests/mocks"
)

// handlerSuite carries the repository mocks shared by the handler suites
type handlerSuite struct {
	suite.Suite
	echo              *echo.Echo
	mockContextRepo   *mocks.MockContextRepository
	mockCtxConfigRepo *mocks.MockContextConfigRepository
	mockMailboxRepo   *mocks.MockMailboxRepository
	mockMbConfigRepo  *mocks.MockMailboxConfigRepository
	mockFolderRepo    *mocks.MockFolderRepository
	mockMessageRepo   *mocks.MockMessageRepository
	repos             *repository.Repositories
}

// SetupTest runs before each test
func (s *handlerSuite) SetupTest() {
	s.echo = echo.New()
	s.mockContextRepo = new(mocks.MockContextRepository)
	s.mockCtxConfigRepo = new(mocks.MockContextConfigRepository)
	s.mockMailboxRepo = new(mocks.MockMailboxRepository)
	s.mockMbConfigRepo = new(mocks.MockMailboxConfigRepository)
	s.mockFolderRepo = new(mocks.MockFolderRepository)
	s.mockMessageRepo = new(mocks.MockMessageRepository)
	s.repos = &repository.Repositories{
		Context:       s.mockContextRepo,
		ContextConfig: s.mockCtxConfigRepo,
		Mailbox:       s.mockMailboxRepo,
		MailboxConfig: s.mockMbConfigRepo,
		Folder:        s.mockFolderRepo,
		Message:       s.mockMessageRepo,
	}
}

// TearDownTest runs after each test
func (s *handlerSuite) TearDownTest() {
	s.mockContextRepo.AssertExpectations(s.T())
	s.mockCtxConfigRepo.AssertExpectations(s.T())
	s.mockMailboxRepo.AssertExpectations(s.T())
	s.mockMbConfigRepo.AssertExpectations(s.T())
	s.mockFolderRepo.AssertExpectations(s.T())
	s.mockMessageRepo.AssertExpectations(s.T())
}

// createContext builds a request context. params alternates names and values.
func (s *handlerSuite) createContext(method, path, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func (s *handlerSuite) decode(rec *httptest.ResponseRecorder) response.APIResponse {
	var resp response.APIResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *handlerSuite) decodeError(rec *httptest.ResponseRecorder) response.ErrorResponse {
	var resp response.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// expectContext makes the context repository return a context for domain
func (s *handlerSuite) expectContext(domain string) *models.Context {
	owner := &models.Context{ID: 1, Domain: domain}
	s.mockContextRepo.On("Get", mock.Anything, domain).Return(owner, nil)
	return owner
}

// expectMailbox makes the repositories resolve domain and number
func (s *handlerSuite) expectMailbox(domain, number string) *models.Mailbox {
	owner := s.expectContext(domain)
	read, unread := 2, 1
	mailbox := &models.Mailbox{ID: 7, ContextID: owner.ID, MailboxNumber: number, Read: &read, Unread: &unread}
	s.mockMailboxRepo.On("Get", mock.Anything, number, owner).Return(mailbox, nil)
	return mailbox
}
