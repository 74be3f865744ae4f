package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/welldanyogia/voicemail-store/internal/models"
	"github.com/welldanyogia/voicemail-store/internal/repository"
)

// MockContextRepository implements repository.ContextRepository
type MockContextRepository struct {
	mock.Mock
}

func (m *MockContextRepository) CreateTable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockContextRepository) CreateIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Create builds an unsaved context
func (m *MockContextRepository) Create(domain string) *models.Context {
	return &models.Context{Domain: domain}
}

// Get retrieves a context by its domain
func (m *MockContextRepository) Get(ctx context.Context, domain string) (*models.Context, error) {
	args := m.Called(ctx, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Context), args.Error(1)
}

// GetByID retrieves a context by its ID
func (m *MockContextRepository) GetByID(ctx context.Context, id uint) (*models.Context, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Context), args.Error(1)
}

// All lists every context
func (m *MockContextRepository) All(ctx context.Context) ([]*models.Context, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Context), args.Error(1)
}

// Save stores a context
func (m *MockContextRepository) Save(ctx context.Context, c *models.Context) (*models.Context, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Context), args.Error(1)
}

// Remove deletes a context
func (m *MockContextRepository) Remove(ctx context.Context, c *models.Context) error {
	return m.Called(ctx, c).Error(0)
}

// MockContextConfigRepository implements repository.ContextConfigRepository
type MockContextConfigRepository struct {
	mock.Mock
}

func (m *MockContextConfigRepository) CreateTable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockContextConfigRepository) CreateIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Create builds an unsaved setting
func (m *MockContextConfigRepository) Create(owner *models.Context, key, value string) *models.ContextConfig {
	return &models.ContextConfig{ContextID: owner.ID, Key: key, Value: value}
}

func (m *MockContextConfigRepository) All(ctx context.Context, owner *models.Context) ([]*models.ContextConfig, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ContextConfig), args.Error(1)
}

func (m *MockContextConfigRepository) Get(ctx context.Context, owner *models.Context, key string) (*models.ContextConfig, error) {
	args := m.Called(ctx, owner, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContextConfig), args.Error(1)
}

func (m *MockContextConfigRepository) Save(ctx context.Context, c *models.ContextConfig) (*models.ContextConfig, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContextConfig), args.Error(1)
}

func (m *MockContextConfigRepository) Remove(ctx context.Context, c *models.ContextConfig) error {
	return m.Called(ctx, c).Error(0)
}

// MockMailboxRepository implements repository.MailboxRepository
type MockMailboxRepository struct {
	mock.Mock
}

func (m *MockMailboxRepository) CreateTable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMailboxRepository) CreateIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Create builds an unsaved mailbox
func (m *MockMailboxRepository) Create(owner *models.Context, mailboxNumber string) *models.Mailbox {
	return &models.Mailbox{ContextID: owner.ID, MailboxNumber: mailboxNumber}
}

// Get retrieves a mailbox by number within a context
func (m *MockMailboxRepository) Get(ctx context.Context, mailboxNumber string, owner *models.Context) (*models.Mailbox, error) {
	args := m.Called(ctx, mailboxNumber, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// GetByID retrieves a mailbox by its ID
func (m *MockMailboxRepository) GetByID(ctx context.Context, id uint) (*models.Mailbox, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// FindByContext lists the mailboxes of a context
func (m *MockMailboxRepository) FindByContext(ctx context.Context, owner *models.Context) ([]*models.Mailbox, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Mailbox), args.Error(1)
}

// Save stores a mailbox
func (m *MockMailboxRepository) Save(ctx context.Context, mb *models.Mailbox) (*models.Mailbox, error) {
	args := m.Called(ctx, mb)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mailbox), args.Error(1)
}

// Remove deletes a mailbox
func (m *MockMailboxRepository) Remove(ctx context.Context, mb *models.Mailbox) error {
	return m.Called(ctx, mb).Error(0)
}

// NewMessage records a deposited message
func (m *MockMailboxRepository) NewMessage(ctx context.Context, mb *models.Mailbox, notify repository.NotifyFunc) (models.Counts, error) {
	args := m.Called(ctx, mb, notify)
	return args.Get(0).(models.Counts), args.Error(1)
}

// ReadMessage records a message moving from unread to read
func (m *MockMailboxRepository) ReadMessage(ctx context.Context, mb *models.Mailbox, notify repository.NotifyFunc) (models.Counts, error) {
	args := m.Called(ctx, mb, notify)
	return args.Get(0).(models.Counts), args.Error(1)
}

// DeletedMessage records a removed message
func (m *MockMailboxRepository) DeletedMessage(ctx context.Context, mb *models.Mailbox, messageRead bool, notify repository.NotifyFunc) (models.Counts, error) {
	args := m.Called(ctx, mb, messageRead, notify)
	return args.Get(0).(models.Counts), args.Error(1)
}

// MockMailboxConfigRepository implements repository.MailboxConfigRepository
type MockMailboxConfigRepository struct {
	mock.Mock
}

func (m *MockMailboxConfigRepository) CreateTable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMailboxConfigRepository) CreateIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Create builds an unsaved setting
func (m *MockMailboxConfigRepository) Create(owner *models.Mailbox, key, value string) *models.MailboxConfig {
	return &models.MailboxConfig{MailboxID: owner.ID, Key: key, Value: value}
}

func (m *MockMailboxConfigRepository) All(ctx context.Context, owner *models.Mailbox) ([]*models.MailboxConfig, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MailboxConfig), args.Error(1)
}

func (m *MockMailboxConfigRepository) Get(ctx context.Context, owner *models.Mailbox, key string) (*models.MailboxConfig, error) {
	args := m.Called(ctx, owner, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MailboxConfig), args.Error(1)
}

func (m *MockMailboxConfigRepository) Save(ctx context.Context, c *models.MailboxConfig) (*models.MailboxConfig, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MailboxConfig), args.Error(1)
}

func (m *MockMailboxConfigRepository) Remove(ctx context.Context, c *models.MailboxConfig) error {
	return m.Called(ctx, c).Error(0)
}

// MockFolderRepository implements repository.FolderRepository
type MockFolderRepository struct {
	mock.Mock
}

func (m *MockFolderRepository) CreateTable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockFolderRepository) CreateIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Create builds an unsaved folder
func (m *MockFolderRepository) Create(name, recording string, dtmf int) *models.Folder {
	return &models.Folder{Name: name, Recording: recording, DTMF: dtmf}
}

// Get retrieves a folder by its DTMF digit
func (m *MockFolderRepository) Get(ctx context.Context, dtmf int) (*models.Folder, error) {
	args := m.Called(ctx, dtmf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Folder), args.Error(1)
}

// GetByName retrieves a folder by its name
func (m *MockFolderRepository) GetByName(ctx context.Context, name string) (*models.Folder, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Folder), args.Error(1)
}

// All lists every folder
func (m *MockFolderRepository) All(ctx context.Context) ([]*models.Folder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Folder), args.Error(1)
}

// Save stores a folder
func (m *MockFolderRepository) Save(ctx context.Context, f *models.Folder) (*models.Folder, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Folder), args.Error(1)
}

// Remove deletes a folder
func (m *MockFolderRepository) Remove(ctx context.Context, f *models.Folder) error {
	return m.Called(ctx, f).Error(0)
}

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateTable(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockMessageRepository) CreateIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Create builds an unsaved message
func (m *MockMessageRepository) Create(mailbox *models.Mailbox, folder *models.Folder, date time.Time) *models.Message {
	return &models.Message{MailboxID: mailbox.ID, FolderID: folder.ID, Date: date}
}

// Get retrieves a message by its ID
func (m *MockMessageRepository) Get(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// All lists the messages of a mailbox folder
func (m *MockMessageRepository) All(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) ([]*models.Message, error) {
	args := m.Called(ctx, mailbox, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

// Latest lists the messages of a mailbox folder newer than after
func (m *MockMessageRepository) Latest(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder, after time.Time) ([]*models.Message, error) {
	args := m.Called(ctx, mailbox, folder, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

// Count counts the messages of a mailbox folder
func (m *MockMessageRepository) Count(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) (int64, error) {
	args := m.Called(ctx, mailbox, folder)
	return args.Get(0).(int64), args.Error(1)
}

// Collection loads the messages of a mailbox folder as a collection
func (m *MockMessageRepository) Collection(ctx context.Context, mailbox *models.Mailbox, folder *models.Folder) (*models.MessageCollection, error) {
	args := m.Called(ctx, mailbox, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MessageCollection), args.Error(1)
}

// Save stores a message
func (m *MockMessageRepository) Save(ctx context.Context, msg *models.Message) (*models.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// MarkAsRead flags a message as read
func (m *MockMessageRepository) MarkAsRead(ctx context.Context, msg *models.Message) (bool, error) {
	args := m.Called(ctx, msg)
	return args.Bool(0), args.Error(1)
}

// ChangeFolder returns a copy of msg filed under folder
func (m *MockMessageRepository) ChangeFolder(msg *models.Message, folder *models.Folder) *models.Message {
	return msg.WithFolder(folder)
}

// Remove deletes a message and returns its last stored state
func (m *MockMessageRepository) Remove(ctx context.Context, msg *models.Message) (*models.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

var (
	_ repository.ContextRepository       = (*MockContextRepository)(nil)
	_ repository.ContextConfigRepository = (*MockContextConfigRepository)(nil)
	_ repository.MailboxRepository       = (*MockMailboxRepository)(nil)
	_ repository.MailboxConfigRepository = (*MockMailboxConfigRepository)(nil)
	_ repository.FolderRepository        = (*MockFolderRepository)(nil)
	_ repository.MessageRepository       = (*MockMessageRepository)(nil)
)
