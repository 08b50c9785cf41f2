package config

import "time"

// DefaultAllowedHosts are the video hosts accepted for download
var DefaultAllowedHosts = []string{"www.youtube.com", "youtube.com", "m.youtube.com", "youtu.be"}

// DefaultHTTPConfig returns sensible defaults for the HTTP server
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Addr:            ":8000",
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultHandlerConfig returns sensible defaults for handler configuration
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		EnableHealth:  true,
		EnableMetrics: true,
		MetricsPath:   "/metrics",
	}
}

// DefaultRetryConfig returns the download retry policy: three attempts,
// exponential backoff starting at 4s and capped at 10s
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    4 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DefaultStorageConfig returns the on-disk layout: ./videos.json and ./downloads/<id>.mp4
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir:     ".",
		CatalogFile: "videos.json",
		MediaDir:    "downloads",
		MediaExt:    ".mp4",
	}
}

// DefaultArchiveConfig returns a disabled archive with S3 defaults filled in
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		MaxRetries: 3,
		Timeout:    10 * time.Minute,
		S3:         DefaultS3Config(),
	}
}

// DefaultS3Config returns sensible defaults for S3 configuration
func DefaultS3Config() S3Config {
	return S3Config{
		Region: "us-east-2",
		Prefix: "videos",
	}
}

// DefaultExtractorConfig returns sensible defaults for the yt-dlp gateway
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Format:           "best",
		ResolveTimeout:   30 * time.Second,
		ProgressInterval: 500 * time.Millisecond,
		AllowedHosts:     append([]string(nil), DefaultAllowedHosts...),
	}
}

// DefaultConfig returns a complete configuration with sensible defaults
// This is useful for testing or when you want to start with defaults and override specific parts
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		ServiceName: "vidcatalog",
		LogLevel:    "info",
		Version:     "1.0.0",

		HTTP:      DefaultHTTPConfig(),
		Handler:   DefaultHandlerConfig(),
		Retry:     DefaultRetryConfig(),
		Storage:   DefaultStorageConfig(),
		Archive:   DefaultArchiveConfig(),
		Extractor: DefaultExtractorConfig(),
		Observability: ObservabilityConfig{
			MetricsNamespace: "vidcatalog",
		},
	}
}
