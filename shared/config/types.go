package config

import "time"

// Config holds all application configuration
type Config struct {
	// Core settings
	Environment string
	ServiceName string
	LogLevel    string
	Version     string

	// Component configurations
	HTTP          HTTPConfig
	Handler       HandlerConfig
	Retry         RetryConfig
	Storage       StorageConfig
	Archive       ArchiveConfig
	Extractor     ExtractorConfig
	Observability ObservabilityConfig
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// HandlerConfig holds handler configuration
type HandlerConfig struct {
	EnableHealth  bool
	EnableMetrics bool
	MetricsPath   string
}

// RetryConfig holds retry policy configuration
type RetryConfig struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// StorageConfig describes where the catalog document and media files live
type StorageConfig struct {
	DataDir     string
	CatalogFile string
	MediaDir    string
	MediaExt    string
}

// ArchiveConfig configures the optional mirror of completed media.
// Provider is empty when no mirror is wanted.
type ArchiveConfig struct {
	Provider   string // "", "fs" or "s3"
	Path       string
	MaxRetries int
	Timeout    time.Duration
	S3         S3Config
}

// S3Config holds S3-specific configuration
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Custom endpoint (MinIO, LocalStack)
}

// ExtractorConfig configures the yt-dlp gateway
type ExtractorConfig struct {
	Binary           string
	AutoInstall      bool
	Format           string
	ResolveTimeout   time.Duration
	ProgressInterval time.Duration
	AllowedHosts     []string
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	MetricsNamespace string
	LogFile          string // empty means stdout
}
