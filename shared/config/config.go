package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validate validates the entire configuration
func (c *Config) Validate() error {
	var errors []string

	// Core validations
	if c.ServiceName == "" {
		errors = append(errors, "SERVICE_NAME is required")
	}
	if c.HTTP.Addr == "" {
		errors = append(errors, "HTTP_ADDR is required")
	}

	// Range validations
	if c.HTTP.ReadTimeout <= 0 {
		errors = append(errors, "HTTP_READ_TIMEOUT must be positive")
	}
	if c.HTTP.WriteTimeout <= 0 {
		errors = append(errors, "HTTP_WRITE_TIMEOUT must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		errors = append(errors, "RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if c.Retry.InitialBackoff < 0 {
		errors = append(errors, "RETRY_INITIAL_BACKOFF cannot be negative")
	}
	if c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		errors = append(errors, "RETRY_MAX_BACKOFF must be >= RETRY_INITIAL_BACKOFF")
	}
	if c.Retry.BackoffMultiplier < 1.0 {
		errors = append(errors, "RETRY_BACKOFF_MULTIPLIER must be >= 1.0")
	}
	if c.Extractor.ResolveTimeout <= 0 {
		errors = append(errors, "EXTRACTOR_RESOLVE_TIMEOUT must be positive")
	}
	if len(c.Extractor.AllowedHosts) == 0 {
		errors = append(errors, "ALLOWED_HOSTS cannot be empty")
	}

	// Storage layout
	if c.Storage.CatalogFile == "" {
		errors = append(errors, "CATALOG_FILE is required")
	}
	if c.Storage.MediaDir == "" {
		errors = append(errors, "MEDIA_DIR is required")
	}
	if filepath.IsAbs(c.Storage.CatalogFile) || filepath.IsAbs(c.Storage.MediaDir) {
		errors = append(errors, "CATALOG_FILE and MEDIA_DIR must be relative to DATA_DIR")
	}

	// Archive mirror
	switch c.Archive.Provider {
	case "":
	case "fs":
		if c.Archive.Path == "" {
			errors = append(errors, "ARCHIVE_PATH is required for the fs archive")
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			errors = append(errors, "S3_BUCKET is required for the s3 archive")
		}
	default:
		errors = append(errors, fmt.Sprintf("unsupported ARCHIVE_PROVIDER: %s", c.Archive.Provider))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// applyDefaults applies environment-specific defaults
func (c *Config) applyDefaults() {
	c.Archive.Provider = strings.ToLower(strings.TrimSpace(c.Archive.Provider))
	if c.Archive.Provider == "none" {
		c.Archive.Provider = ""
	}

	if c.Storage.MediaExt != "" && !strings.HasPrefix(c.Storage.MediaExt, ".") {
		c.Storage.MediaExt = "." + c.Storage.MediaExt
	}

	for i, host := range c.Extractor.AllowedHosts {
		c.Extractor.AllowedHosts[i] = strings.ToLower(strings.TrimSpace(host))
	}

	if c.IsProduction() {
		// Metrics are always exported in production
		c.Handler.EnableMetrics = true
		if c.HTTP.ShutdownTimeout < 30*time.Second {
			c.HTTP.ShutdownTimeout = 30 * time.Second
		}
	}

	if c.IsLocal() && c.LogLevel == "" {
		c.LogLevel = "debug"
	}
}

// CatalogPath is the absolute-or-relative filesystem path of the catalog document
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.CatalogFile)
}

// MediaPath is the filesystem directory holding downloaded media
func (c *Config) MediaPath() string {
	return filepath.Join(c.Storage.DataDir, c.Storage.MediaDir)
}

// Environment detection methods

// IsLocal returns true if running in local/development environment
func (c *Config) IsLocal() bool {
	env := strings.ToLower(c.Environment)
	return env == "local" || env == "development" || env == "dev"
}

// IsStaging returns true if running in staging environment
func (c *Config) IsStaging() bool {
	env := strings.ToLower(c.Environment)
	return env == "staging" || env == "stage"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

// IsTest returns true if running in test environment
func (c *Config) IsTest() bool {
	env := strings.ToLower(c.Environment)
	return env == "test" || env == "testing"
}
