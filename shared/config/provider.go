package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Provider manages configuration lifecycle and ensures singleton behavior
type Provider struct {
	config *Config
	mu     sync.RWMutex
	loaded bool
}

var (
	instance *Provider
	once     sync.Once
)

// GetProvider returns the singleton configuration provider instance
func GetProvider() *Provider {
	once.Do(func() {
		instance = &Provider{}
	})
	return instance
}

// Load loads configuration from environment variables and .env files
// This should be called once at application startup
func (p *Provider) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return nil
	}

	if err := p.loadEnvFiles(); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}

	cfg, err := p.parseConfig()
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	p.config = cfg
	p.loaded = true
	return nil
}

// MustLoad loads configuration and panics on error
// Use this for application initialization where errors are fatal
func (p *Provider) MustLoad() {
	if err := p.Load(); err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
}

// Get returns the current configuration
// Returns error if configuration hasn't been loaded
func (p *Provider) Get() (*Config, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.loaded || p.config == nil {
		return nil, fmt.Errorf("configuration not loaded; call Load() first")
	}

	return p.config, nil
}

// MustGet returns the configuration or panics if not loaded
func (p *Provider) MustGet() *Config {
	cfg, err := p.Get()
	if err != nil {
		panic(fmt.Sprintf("failed to get configuration: %v", err))
	}
	return cfg
}

// Reload reloads configuration from environment
// Useful for configuration updates without restart (use with caution)
func (p *Provider) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, err := p.parseConfig()
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	p.config = cfg
	p.loaded = true
	return nil
}

// Reset clears the loaded configuration (useful for testing)
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.config = nil
	p.loaded = false
}

// IsLoaded returns whether configuration has been loaded
func (p *Provider) IsLoaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// loadEnvFiles loads .env files in order of precedence
func (p *Provider) loadEnvFiles() error {
	// Base .env never overrides the real environment
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env != "" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Overload(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	// .env.local has the highest precedence
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("failed to load .env.local: %w", err)
		}
	}

	return nil
}

// parseConfig parses configuration from environment variables
func (p *Provider) parseConfig() (*Config, error) {
	d := DefaultConfig()

	cfg := &Config{
		// Core
		Environment: getEnv("ENVIRONMENT", "local"),
		ServiceName: getEnv("SERVICE_NAME", d.ServiceName),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		Version:     getEnv("SERVICE_VERSION", d.Version),

		// HTTP server
		HTTP: HTTPConfig{
			Addr:            getEnv("HTTP_ADDR", d.HTTP.Addr),
			ReadTimeout:     getDuration("HTTP_READ_TIMEOUT", d.HTTP.ReadTimeout),
			WriteTimeout:    getDuration("HTTP_WRITE_TIMEOUT", d.HTTP.WriteTimeout),
			ShutdownTimeout: getDuration("HTTP_SHUTDOWN_TIMEOUT", d.HTTP.ShutdownTimeout),
		},

		// Handler
		Handler: HandlerConfig{
			EnableHealth:  getBool("HANDLER_ENABLE_HEALTH", d.Handler.EnableHealth),
			EnableMetrics: getBool("HANDLER_ENABLE_METRICS", d.Handler.EnableMetrics),
			MetricsPath:   getEnv("HANDLER_METRICS_PATH", d.Handler.MetricsPath),
		},

		// Retry
		Retry: RetryConfig{
			MaxAttempts:       getInt("RETRY_MAX_ATTEMPTS", d.Retry.MaxAttempts),
			InitialBackoff:    getDuration("RETRY_INITIAL_BACKOFF", d.Retry.InitialBackoff),
			MaxBackoff:        getDuration("RETRY_MAX_BACKOFF", d.Retry.MaxBackoff),
			BackoffMultiplier: getFloat64("RETRY_BACKOFF_MULTIPLIER", d.Retry.BackoffMultiplier),
		},

		// Storage
		Storage: StorageConfig{
			DataDir:     getEnv("DATA_DIR", d.Storage.DataDir),
			CatalogFile: getEnv("CATALOG_FILE", d.Storage.CatalogFile),
			MediaDir:    getEnv("MEDIA_DIR", d.Storage.MediaDir),
			MediaExt:    getEnv("MEDIA_EXT", d.Storage.MediaExt),
		},

		// Archive
		Archive: ArchiveConfig{
			Provider:   getEnv("ARCHIVE_PROVIDER", ""),
			Path:       getEnv("ARCHIVE_PATH", ""),
			MaxRetries: getInt("STORAGE_MAX_RETRIES", d.Archive.MaxRetries),
			Timeout:    getDuration("STORAGE_TIMEOUT", d.Archive.Timeout),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", d.Archive.S3.Region),
				Bucket:          getEnv("S3_BUCKET", ""),
				Prefix:          getEnv("S3_PREFIX", d.Archive.S3.Prefix),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
			},
		},

		// Extractor
		Extractor: ExtractorConfig{
			Binary:           getEnv("YTDLP_BINARY", ""),
			AutoInstall:      getBool("YTDLP_AUTO_INSTALL", false),
			Format:           getEnv("YTDLP_FORMAT", d.Extractor.Format),
			ResolveTimeout:   getDuration("EXTRACTOR_RESOLVE_TIMEOUT", d.Extractor.ResolveTimeout),
			ProgressInterval: getDuration("EXTRACTOR_PROGRESS_INTERVAL", d.Extractor.ProgressInterval),
			AllowedHosts:     getList("ALLOWED_HOSTS", d.Extractor.AllowedHosts),
		},

		Observability: ObservabilityConfig{
			MetricsNamespace: getEnv("METRICS_NAMESPACE", d.Observability.MetricsNamespace),
			LogFile:          getEnv("LOG_FILE", ""),
		},
	}

	cfg.applyDefaults()
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}

	return cfg, nil
}
