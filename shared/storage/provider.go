package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vidcatalog/shared/config"
	"vidcatalog/shared/observability"
	"vidcatalog/shared/storage/types"
)

// healthKey is probed to verify a storage is reachable
const healthKey = ".health-check"

// Provider owns the storages of the service: the local store for the
// catalog document and media files, and the optional archive mirror.
type Provider struct {
	local       types.LocalObjectStorage
	archive     types.ObjectStorage
	logger      observability.Logger
	metrics     observability.Metrics
	mu          sync.RWMutex
	initialized bool
}

var (
	instance *Provider
	once     sync.Once
)

// GetProvider returns the singleton storage provider instance
func GetProvider() *Provider {
	once.Do(func() {
		instance = &Provider{}
	})
	return instance
}

// Initialize creates the configured storages and verifies they respond.
// This should be called once at application startup
func (p *Provider) Initialize(ctx context.Context, cfg *config.Config, logger observability.Logger, metrics observability.Metrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	local, err := createLocalStorage(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create local storage: %w", err)
	}

	archive, err := createArchiveStorage(ctx, cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create archive storage: %w", err)
	}

	if archive != nil {
		if err := testConnection(ctx, archive); err != nil {
			return fmt.Errorf("failed to verify archive connection: %w", err)
		}
	}

	logger.Info(ctx, "storage initialized", observability.Fields{
		"data_dir": cfg.Storage.DataDir,
		"archive":  cfg.Archive.Provider,
	})

	p.local = local
	p.archive = archive
	p.logger = logger
	p.metrics = metrics
	p.initialized = true

	return nil
}

// MustInitialize initializes the storage provider and panics on error
func (p *Provider) MustInitialize(ctx context.Context, cfg *config.Config, logger observability.Logger, metrics observability.Metrics) {
	if err := p.Initialize(ctx, cfg, logger, metrics); err != nil {
		panic(fmt.Sprintf("failed to initialize storage: %v", err))
	}
}

// Local returns the local storage
func (p *Provider) Local() (types.LocalObjectStorage, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized || p.local == nil {
		return nil, fmt.Errorf("storage not initialized; call Initialize() first")
	}

	return p.local, nil
}

// MustLocal returns the local storage or panics if not initialized
func (p *Provider) MustLocal() types.LocalObjectStorage {
	local, err := p.Local()
	if err != nil {
		panic(fmt.Sprintf("failed to get storage: %v", err))
	}
	return local
}

// Archive returns the archive mirror, or nil when none is configured
func (p *Provider) Archive() types.ObjectStorage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.archive
}

// Ping verifies every configured storage responds
func (p *Provider) Ping(ctx context.Context) error {
	p.mu.RLock()
	local, archive := p.local, p.archive
	p.mu.RUnlock()

	if local == nil {
		return fmt.Errorf("storage not initialized")
	}
	if err := testConnection(ctx, local); err != nil {
		return fmt.Errorf("local storage: %w", err)
	}
	if archive != nil {
		if err := testConnection(ctx, archive); err != nil {
			return fmt.Errorf("archive storage: %w", err)
		}
	}
	return nil
}

// IsInitialized returns whether storage has been initialized
func (p *Provider) IsInitialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}

// Close releases the storages
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Neither adapter holds resources needing explicit cleanup
	p.local = nil
	p.archive = nil
	p.initialized = false

	return nil
}

// Reset resets the provider (useful for testing)
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.local = nil
	p.archive = nil
	p.logger = nil
	p.metrics = nil
	p.initialized = false
}

// testConnection probes a key that normally does not exist
func testConnection(ctx context.Context, storage types.ObjectStorage) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := storage.Exists(ctx, "", healthKey); err != nil && !errors.Is(err, types.ErrObjectNotFound) {
		return err
	}
	return nil
}
