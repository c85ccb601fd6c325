// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/archivist/internal/bootstrap"
	"github.com/JakeFAU/archivist/internal/clock/system"
	"github.com/JakeFAU/archivist/internal/config"
	"github.com/JakeFAU/archivist/internal/fetch"
	collyfetcher "github.com/JakeFAU/archivist/internal/fetch/colly"
	"github.com/JakeFAU/archivist/internal/id/uuid"
	"github.com/JakeFAU/archivist/internal/storage"
)

// App holds the shared services a pipeline run needs: configuration, logger,
// fetcher, blob store, clock and run ID generator.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	store   storage.BlobStore
	fetcher fetch.Fetcher
	clock   *system.Clock
	ids     *uuid.Generator
}

// Option overrides a service NewApp would otherwise build from configuration.
type Option func(*App)

// WithStore injects a blob store.
func WithStore(store storage.BlobStore) Option {
	return func(a *App) { a.store = store }
}

// WithFetcher injects the single-attempt fetcher.
func WithFetcher(fetcher fetch.Fetcher) Option {
	return func(a *App) { a.fetcher = fetcher }
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetStorage exposes the configured blob store.
func (a *App) GetStorage() storage.BlobStore {
	return a.store
}

// NewBootstrap builds a pipeline runner over the App's services. Each
// Bootstrap runs once.
func (a *App) NewBootstrap() *bootstrap.Bootstrap {
	return bootstrap.New(a.cfg, a.fetcher, a.clock, a.ids, a.logger)
}

// NewApp creates the App from cfg. It fails fast when a service cannot be built.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		clock:  system.New(),
		ids:    uuid.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	logger.Info("Initializing application services...")

	if a.store == nil {
		store, err := storage.New(ctx, cfg.Sink)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.store = store
		logger.Info("Using blob store", zap.String("kind", cfg.Sink.Kind))
	}

	if a.fetcher == nil {
		a.fetcher = collyfetcher.New(collyfetcher.Config{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   cfg.Fetch.Timeout(),
		})
	}

	logger.Info("Application services initialized successfully.")
	return a, nil
}

// Close releases the blob store and flushes the logger.
func (a *App) Close() {
	a.logger.Info("Shutting down application services...")
	if closer, ok := a.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("Error closing blob store", zap.Error(err))
		}
	}
	// Sync fails on stderr/stdout for some platforms; nothing else to do with the error.
	_ = a.logger.Sync()
}
