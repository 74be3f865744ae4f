package repository

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/welldanyogia/voicemail-store/internal/database"
	"github.com/welldanyogia/voicemail-store/internal/models"
)

// repositorySuite opens a fresh SQLite file per suite with the full schema.
// A file database is used instead of :memory: so that concurrent tests get
// separate connections and real database locking.
type repositorySuite struct {
	suite.Suite
	ctx         context.Context
	provider    database.Provider
	repos       *Repositories
	messageOpts MessageOptions
}

func (s *repositorySuite) SetupSuite() {
	s.ctx = context.Background()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider, err := database.OpenSQLite(database.Config{
		ConnectionString: filepath.Join(s.T().TempDir(), "voicemail.db"),
		Logger:           quiet,
	})
	require.NoError(s.T(), err)

	s.provider = provider
	s.repos = NewRepositories(provider, quiet, s.messageOpts)
	require.NoError(s.T(), s.repos.CreateSchema(s.ctx))
}

func (s *repositorySuite) TearDownSuite() {
	if s.provider != nil {
		s.provider.Close()
	}
}

// SetupTest runs before each test - clean up data
func (s *repositorySuite) SetupTest() {
	db := s.provider.DB()
	db.Exec("DELETE FROM message")
	db.Exec("DELETE FROM folder")
	db.Exec("DELETE FROM mailbox_config")
	db.Exec("DELETE FROM mailbox")
	db.Exec("DELETE FROM context_config")
	db.Exec("DELETE FROM context")
}

func (s *repositorySuite) saveContext(domain string) *models.Context {
	c, err := s.repos.Context.Save(s.ctx, s.repos.Context.Create(domain))
	require.NoError(s.T(), err)
	return c
}

func (s *repositorySuite) saveMailbox(owner *models.Context, number string, read, unread *int) *models.Mailbox {
	m := s.repos.Mailbox.Create(owner, number)
	m.Name = "Mailbox " + number
	m.Read, m.Unread = read, unread
	m, err := s.repos.Mailbox.Save(s.ctx, m)
	require.NoError(s.T(), err)
	return m
}

func (s *repositorySuite) saveFolder(name string, dtmf int) *models.Folder {
	f, err := s.repos.Folder.Save(s.ctx, s.repos.Folder.Create(name, name+".wav", dtmf))
	require.NoError(s.T(), err)
	return f
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
