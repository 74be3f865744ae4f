package database

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// OpenFunc opens a provider. Registry uses Open unless told otherwise.
type OpenFunc func(cfg Config) (Provider, error)

// Registry caches one Provider per connection string so that every caller
// pointed at the same database shares a single connection pool.
type Registry struct {
	mu        sync.Mutex
	open      OpenFunc
	providers map[string]Provider
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		open:      Open,
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// WithOpener replaces the function used to open new providers.
func (r *Registry) WithOpener(open OpenFunc) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = open
	return r
}

// Get returns the provider for cfg.ConnectionString, opening it on first use.
func (r *Registry) Get(cfg Config) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[cfg.ConnectionString]; ok {
		return p, nil
	}

	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}
	p, err := r.open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s provider: %w", cfg.ProviderName(), err)
	}

	r.providers[cfg.ConnectionString] = p
	r.logger.Info("database provider registered", slog.String("provider", p.Name()))
	return p, nil
}

// Len returns the number of cached providers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.providers)
}

// Close closes every cached provider and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for cs, p := range r.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s provider: %w", p.Name(), err))
		}
		delete(r.providers, cs)
	}
	return errors.Join(errs...)
}
