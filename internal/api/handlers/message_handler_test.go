package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	apperrors "github.com/welldanyogia/voicemail-store/internal/errors"
	"github.com/welldanyogia/voicemail-store/internal/logger"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
	"github.com/welldanyogia/voicemail-store/internal/storage"
	"github.com/welldanyogia/voicemail-store/tests/mocks"
)

// MessageHandlerTestSuite is the test suite for MessageHandler
type MessageHandlerTestSuite struct {
	handlerSuite
	handler        *MessageHandler
	mockRecordings *mocks.MockRecordingStorage
	mockNotifier   *mocks.MockNotifier
	securityLog    *bytes.Buffer
}

func (s *MessageHandlerTestSuite) SetupTest() {
	s.handlerSuite.SetupTest()
	s.mockRecordings = new(mocks.MockRecordingStorage)
	s.mockNotifier = new(mocks.MockNotifier)
	s.securityLog = &bytes.Buffer{}
	s.handler = NewMessageHandler(MessageHandlerConfig{
		Repositories: s.repos,
		Recordings:   s.mockRecordings,
		Notifier:     s.mockNotifier,
		Security:     logger.NewSecurityLoggerWithHandler(slog.NewJSONHandler(s.securityLog, nil)),
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (s *MessageHandlerTestSuite) TearDownTest() {
	s.handlerSuite.TearDownTest()
	s.mockRecordings.AssertExpectations(s.T())
	s.mockNotifier.AssertExpectations(s.T())
}

func TestMessageHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MessageHandlerTestSuite))
}

func (s *MessageHandlerTestSuite) testMessage(read bool) *models.Message {
	return &models.Message{
		ID:        11,
		MailboxID: 7,
		FolderID:  1,
		Date:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Read:      read,
		Duration:  "12",
		Recording: "ab/abcdef.wav",
	}
}

// expectOwner makes the message owner lookup return a mailbox
func (s *MessageHandlerTestSuite) expectOwner() *models.Mailbox {
	read, unread := 0, 1
	mailbox := &models.Mailbox{ID: 7, ContextID: 1, MailboxNumber: "1001", Read: &read, Unread: &unread}
	s.mockMailboxRepo.On("GetByID", mock.Anything, uint(7)).Return(mailbox, nil)
	return mailbox
}

// runNotify makes a counter operation invoke its NotifyFunc with counts
func runNotify(counts models.Counts) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		notify := args.Get(len(args) - 1).(repository.NotifyFunc)
		if notify != nil {
			_ = notify(context.Background(), counts.Read, counts.Unread)
		}
	}
}

func (s *MessageHandlerTestSuite) TestList_All() {
	mailbox := s.expectMailbox("pbx.example.com", "1001")
	inbox := &models.Folder{ID: 1, Name: "INBOX", DTMF: 0}
	s.mockFolderRepo.On("Get", mock.Anything, 0).Return(inbox, nil)
	s.mockMessageRepo.On("All", mock.Anything, mailbox, inbox).Return([]*models.Message{s.testMessage(false)}, nil)

	c, rec := s.createContext(http.MethodGet, "/", "", "domain", "pbx.example.com", "number", "1001", "dtmf", "0")

	s.Require().NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"total":1`)
}

func (s *MessageHandlerTestSuite) TestList_After() {
	mailbox := s.expectMailbox("pbx.example.com", "1001")
	inbox := &models.Folder{ID: 1, Name: "INBOX", DTMF: 0}
	after := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	s.mockFolderRepo.On("Get", mock.Anything, 0).Return(inbox, nil)
	s.mockMessageRepo.On("Latest", mock.Anything, mailbox, inbox, after).Return([]*models.Message{}, nil)

	c, rec := s.createContext(http.MethodGet, "/?after=2024-02-01T00:00:00Z", "",
		"domain", "pbx.example.com", "number", "1001", "dtmf", "0")

	s.Require().NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)
}

func (s *MessageHandlerTestSuite) TestList_BadAfter() {
	s.expectMailbox("pbx.example.com", "1001")
	s.mockFolderRepo.On("Get", mock.Anything, 0).Return(&models.Folder{ID: 1, DTMF: 0}, nil)

	c, rec := s.createContext(http.MethodGet, "/?after=yesterday", "",
		"domain", "pbx.example.com", "number", "1001", "dtmf", "0")

	s.Require().NoError(s.handler.List(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *MessageHandlerTestSuite) TestList_UnreadFirst() {
	mailbox := s.expectMailbox("pbx.example.com", "1001")
	inbox := &models.Folder{ID: 1, Name: "INBOX", DTMF: 0}
	s.mockFolderRepo.On("Get", mock.Anything, 0).Return(inbox, nil)

	read := s.testMessage(true)
	read.ID = 1
	unread := s.testMessage(false)
	unread.ID = 2
	unread.Date = read.Date.Add(-time.Hour)
	s.mockMessageRepo.On("Collection", mock.Anything, mailbox, inbox).
		Return(models.NewMessageCollection([]*models.Message{read, unread}), nil)

	c, rec := s.createContext(http.MethodGet, "/?sort=unread", "",
		"domain", "pbx.example.com", "number", "1001", "dtmf", "0")

	s.Require().NoError(s.handler.List(c))
	s.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	s.Less(strings.Index(body, `"id":2`), strings.Index(body, `"id":1`))
}

func (s *MessageHandlerTestSuite) TestCount() {
	mailbox := s.expectMailbox("pbx.example.com", "1001")
	inbox := &models.Folder{ID: 1, Name: "INBOX", DTMF: 0}
	s.mockFolderRepo.On("Get", mock.Anything, 0).Return(inbox, nil)
	s.mockMessageRepo.On("Count", mock.Anything, mailbox, inbox).Return(int64(4), nil)

	c, rec := s.createContext(http.MethodGet, "/", "", "domain", "pbx.example.com", "number", "1001", "dtmf", "0")

	s.Require().NoError(s.handler.Count(c))
	s.JSONEq(`{"success":true,"data":{"total":4}}`, rec.Body.String())
}

func (s *MessageHandlerTestSuite) TestGet_InvalidID() {
	c, rec := s.createContext(http.MethodGet, "/", "", "id", "abc")

	s.Require().NoError(s.handler.Get(c))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *MessageHandlerTestSuite) TestGet_NotFound() {
	s.mockMessageRepo.On("Get", mock.Anything, uint(99)).Return(nil, nil)

	c, rec := s.createContext(http.MethodGet, "/", "", "id", "99")

	s.Require().NoError(s.handler.Get(c))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(rec.Body.String(), "message not found")
}

func (s *MessageHandlerTestSuite) TestMarkAsRead_MovesCounters() {
	msg := s.testMessage(false)
	mailbox := s.expectOwner()
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockMessageRepo.On("MarkAsRead", mock.Anything, msg).Return(true, nil)
	s.mockMailboxRepo.On("ReadMessage", mock.Anything, mailbox, mock.Anything).
		Run(runNotify(models.Counts{Read: 1, Unread: 0})).
		Return(models.Counts{Read: 1, Unread: 0}, nil)
	s.mockNotifier.On("For", uint(7), 1, 0).Return(nil)

	c, rec := s.createContext(http.MethodPatch, "/", "", "id", "11")

	s.Require().NoError(s.handler.MarkAsRead(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"counts":{"read":1,"unread":0}`)
}

func (s *MessageHandlerTestSuite) TestMarkAsRead_AlreadyReadLeavesCounters() {
	msg := s.testMessage(true)
	s.expectOwner()
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockMessageRepo.On("MarkAsRead", mock.Anything, msg).Return(false, nil)

	c, rec := s.createContext(http.MethodPatch, "/", "", "id", "11")

	s.Require().NoError(s.handler.MarkAsRead(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"counts":{"read":0,"unread":1}`)
	s.mockMailboxRepo.AssertNotCalled(s.T(), "ReadMessage", mock.Anything, mock.Anything, mock.Anything)
}

func (s *MessageHandlerTestSuite) TestMarkAsRead_NotificationFailure() {
	msg := s.testMessage(false)
	mailbox := s.expectOwner()
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockMessageRepo.On("MarkAsRead", mock.Anything, msg).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Message).Read = true }).
		Return(true, nil)
	notifyErr := fmt.Errorf("failed to update read counters: %w: %w", repository.ErrNotificationFailed, errors.New("hub busy"))
	s.mockMailboxRepo.On("ReadMessage", mock.Anything, mailbox, mock.Anything).Return(models.Counts{}, notifyErr)
	unread := mock.MatchedBy(func(m *models.Message) bool { return m.ID == 11 && !m.Read })
	s.mockMessageRepo.On("Save", mock.Anything, unread).Return(msg, nil)

	c, rec := s.createContext(http.MethodPatch, "/", "", "id", "11")

	s.Require().NoError(s.handler.MarkAsRead(c))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal(apperrors.CodeNotificationFailed, s.decodeError(rec).Code)
	// The flag is cleared again so the next attempt moves the counters.
	s.mockMessageRepo.AssertCalled(s.T(), "Save", mock.Anything, unread)
	s.False(msg.Read)
}

func (s *MessageHandlerTestSuite) TestChangeFolder() {
	msg := s.testMessage(false)
	old := &models.Folder{ID: 2, Name: "Old", DTMF: 1}
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockFolderRepo.On("Get", mock.Anything, 1).Return(old, nil)
	s.mockMessageRepo.On("Save", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
		return m.ID == msg.ID && m.FolderID == old.ID
	})).Return(msg.WithFolder(old), nil)

	c, rec := s.createContext(http.MethodPatch, "/", `{"dtmf":1}`, "id", "11")

	s.Require().NoError(s.handler.ChangeFolder(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"folder_id":2`)
	s.Equal(uint(1), msg.FolderID)
}

func (s *MessageHandlerTestSuite) TestChangeFolder_UnknownFolder() {
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(s.testMessage(false), nil)
	s.mockFolderRepo.On("Get", mock.Anything, 5).Return(nil, nil)

	c, rec := s.createContext(http.MethodPatch, "/", `{"dtmf":5}`, "id", "11")

	s.Require().NoError(s.handler.ChangeFolder(c))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *MessageHandlerTestSuite) TestDelete_UsesRemovedState() {
	msg := s.testMessage(false)
	mailbox := s.expectOwner()
	removed := s.testMessage(true)
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockMessageRepo.On("Remove", mock.Anything, msg).Return(removed, nil)
	s.mockRecordings.On("Delete", "ab/abcdef.wav").Return(nil)
	s.mockMailboxRepo.On("DeletedMessage", mock.Anything, mailbox, true, mock.Anything).
		Return(models.Counts{Read: 0, Unread: 1}, nil)

	c, rec := s.createContext(http.MethodDelete, "/", "", "id", "11")

	s.Require().NoError(s.handler.Delete(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"counts":{"read":0,"unread":1}`)
}

func (s *MessageHandlerTestSuite) TestDelete_ReportsRecordingOutsideStorage() {
	msg := s.testMessage(false)
	mailbox := s.expectOwner()
	removed := s.testMessage(false)
	removed.Recording = "../outside.wav"
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockMessageRepo.On("Remove", mock.Anything, msg).Return(removed, nil)
	s.mockRecordings.On("Delete", "../outside.wav").Return(storage.ErrPathTraversal)
	s.mockMailboxRepo.On("DeletedMessage", mock.Anything, mailbox, false, mock.Anything).
		Return(models.Counts{Read: 0, Unread: 0}, nil)

	c, rec := s.createContext(http.MethodDelete, "/", "", "id", "11")

	s.Require().NoError(s.handler.Delete(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(s.securityLog.String(), `"attempted_path":"../outside.wav"`)
}

func (s *MessageHandlerTestSuite) TestDelete_AlreadyGone() {
	msg := s.testMessage(false)
	s.expectOwner()
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockMessageRepo.On("Remove", mock.Anything, msg).Return(nil, nil)

	c, rec := s.createContext(http.MethodDelete, "/", "", "id", "11")

	s.Require().NoError(s.handler.Delete(c))
	s.Equal(http.StatusNotFound, rec.Code)
	s.mockMailboxRepo.AssertNotCalled(s.T(), "DeletedMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *MessageHandlerTestSuite) TestRecording_Streams() {
	msg := s.testMessage(false)
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockRecordings.On("Open", "ab/abcdef.wav").Return(io.NopCloser(strings.NewReader("RIFF")), nil)

	c, rec := s.createContext(http.MethodGet, "/", "", "id", "11")

	s.Require().NoError(s.handler.Recording(c))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("RIFF", rec.Body.String())
	s.Contains(rec.Header().Get("Content-Disposition"), "abcdef.wav")
}

func (s *MessageHandlerTestSuite) TestRecording_MissingFile() {
	msg := s.testMessage(false)
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockRecordings.On("Open", "ab/abcdef.wav").Return(nil, storage.ErrFileNotFound)

	c, rec := s.createContext(http.MethodGet, "/", "", "id", "11")

	s.Require().NoError(s.handler.Recording(c))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *MessageHandlerTestSuite) TestRecording_PathOutsideStorageIsReported() {
	msg := s.testMessage(false)
	msg.Recording = "../../etc/passwd"
	s.mockMessageRepo.On("Get", mock.Anything, uint(11)).Return(msg, nil)
	s.mockRecordings.On("Open", "../../etc/passwd").Return(nil, storage.ErrPathTraversal)

	c, rec := s.createContext(http.MethodGet, "/", "", "id", "11")

	s.Require().NoError(s.handler.Recording(c))
	s.Equal(http.StatusNotFound, rec.Code)
	s.Contains(s.securityLog.String(), `"event_type":"path_traversal"`)
	s.Contains(s.securityLog.String(), `"attempted_path":"../../etc/passwd"`)
}
