package storage

import (
	"context"

	"vidcatalog/shared/config"
	"vidcatalog/shared/observability"
	"vidcatalog/shared/storage/adapters/fs"
	"vidcatalog/shared/storage/adapters/s3"
	"vidcatalog/shared/storage/types"
)

// createLocalStorage creates the filesystem storage holding the catalog and media.
// This function is only called by the provider's internal factory
func createLocalStorage(cfg *config.Config, logger observability.Logger, metrics observability.Metrics) (*fs.Storage, error) {
	return fs.NewStorage(cfg.Storage.DataDir, logger, metrics)
}

// createArchiveStorage creates the optional media mirror; nil when disabled
func createArchiveStorage(ctx context.Context, cfg *config.Config, logger observability.Logger, metrics observability.Metrics) (types.ObjectStorage, error) {
	switch cfg.Archive.Provider {
	case "":
		return nil, nil
	case "fs":
		return fs.NewStorage(cfg.Archive.Path, logger, metrics)
	case "s3":
		return s3.NewClient(ctx, &cfg.Archive, logger, metrics)
	default:
		return nil, &UnsupportedProviderError{Provider: cfg.Archive.Provider}
	}
}

// UnsupportedProviderError is returned for an unknown archive provider
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return "unsupported storage provider: " + e.Provider
}
