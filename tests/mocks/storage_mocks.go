package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
)

// MockRecordingStorage implements storage.RecordingStorage
type MockRecordingStorage struct {
	mock.Mock
}

// Save stores a recording and returns the relative path
func (m *MockRecordingStorage) Save(filename string, content io.Reader) (string, error) {
	args := m.Called(filename, content)
	return args.String(0), args.Error(1)
}

// Open retrieves a recording by its path
func (m *MockRecordingStorage) Open(filePath string) (io.ReadCloser, error) {
	args := m.Called(filePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// Delete removes a recording by its path
func (m *MockRecordingStorage) Delete(filePath string) error {
	return m.Called(filePath).Error(0)
}

// MockNotifier hands out a notification function that records each call
type MockNotifier struct {
	mock.Mock
}

// For returns a NotifyFunc bound to mailbox. Each invocation is recorded as
// a call to For with the mailbox id and the new counters.
func (m *MockNotifier) For(mailbox *models.Mailbox) repository.NotifyFunc {
	return func(ctx context.Context, read, unread int) error {
		return m.MethodCalled("For", mailbox.ID, read, unread).Error(0)
	}
}
