package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/welldanyogia/voicemail-store/internal/database"
)

// Repositories bundles the repositories of one database.
type Repositories struct {
	Provider      database.Provider
	Context       ContextRepository
	ContextConfig ContextConfigRepository
	Mailbox       MailboxRepository
	MailboxConfig MailboxConfigRepository
	Folder        FolderRepository
	Message       MessageRepository
}

// NewRepositories builds every repository on provider.
func NewRepositories(provider database.Provider, logger *slog.Logger, opts MessageOptions) *Repositories {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repositories{
		Provider:      provider,
		Context:       NewContextRepository(provider, logger),
		ContextConfig: NewContextConfigRepository(provider, logger),
		Mailbox:       NewMailboxRepository(provider, logger),
		MailboxConfig: NewMailboxConfigRepository(provider, logger),
		Folder:        NewFolderRepository(provider, logger),
		Message:       NewMessageRepository(provider, logger, opts),
	}
}

type schemaObject interface {
	CreateTable(ctx context.Context) error
	CreateIndexes(ctx context.Context) error
}

// CreateSchema creates every table, parents before children, then the
// indexes. Objects that already exist are skipped.
func (r *Repositories) CreateSchema(ctx context.Context) error {
	objects := []schemaObject{r.Context, r.ContextConfig, r.Mailbox, r.MailboxConfig, r.Folder, r.Message}

	for _, o := range objects {
		if err := o.CreateTable(ctx); err != nil && !IsAlreadyExists(err) {
			return err
		}
	}
	for _, o := range objects {
		if err := o.CreateIndexes(ctx); err != nil && !IsAlreadyExists(err) {
			return err
		}
	}
	return nil
}

// Option configures a Factory.
type Option func(*Factory)

// WithMessageOptions sets the listing options of every MessageRepository.
func WithMessageOptions(opts MessageOptions) Option {
	return func(f *Factory) {
		f.messageOpts = opts
	}
}

// WithLogger sets the logger handed to repositories.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// Factory hands out one Repositories per connection string. Providers come
// from the registry so repositories and anything else using the same database
// share a pool.
type Factory struct {
	mu          sync.Mutex
	providers   *database.Registry
	repos       map[string]*Repositories
	messageOpts MessageOptions
	logger      *slog.Logger
}

// NewFactory creates a factory backed by providers.
func NewFactory(providers *database.Registry, opts ...Option) *Factory {
	f := &Factory{
		providers: providers,
		repos:     make(map[string]*Repositories),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the repositories for cfg.ConnectionString, creating them on
// first use.
func (f *Factory) Get(cfg database.Config) (*Repositories, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if repos, ok := f.repos[cfg.ConnectionString]; ok {
		return repos, nil
	}

	provider, err := f.providers.Get(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get repositories: %w", err)
	}

	repos := NewRepositories(provider, f.logger, f.messageOpts)
	f.repos[cfg.ConnectionString] = repos
	return repos, nil
}

// Close drops every cached Repositories and closes the underlying providers.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	clear(f.repos)
	return f.providers.Close()
}
