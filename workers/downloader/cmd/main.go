package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"vidcatalog/shared/config"
	"vidcatalog/shared/observability"
	"vidcatalog/shared/retry"
	"vidcatalog/shared/storage"
	httpadapter "vidcatalog/workers/downloader/internal/adapters/http"
	"vidcatalog/workers/downloader/internal/catalog"
	"vidcatalog/workers/downloader/internal/extractor/ytdlp"
	"vidcatalog/workers/downloader/internal/registry"
	"vidcatalog/workers/downloader/internal/service"
	"vidcatalog/workers/downloader/internal/usecase"
)

func main() {
	cfg := loadConfiguration()

	deps := initializeDependencies(cfg)
	defer deps.close()

	app := buildApplication(cfg, deps)

	startApplication(cfg, app)
}

// Dependencies holds all initialized infrastructure components
type Dependencies struct {
	observability *observability.DefaultProvider
	registry      *prometheus.Registry
	storage       *storage.Provider
	logger        observability.Logger
}

// Application holds the complete application stack
type Application struct {
	orchestrator *service.Orchestrator
	server       *httpadapter.Adapter
	logger       observability.Logger
	metrics      observability.Metrics
}

// loadConfiguration loads and validates the application configuration
func loadConfiguration() *config.Config {
	cfgProvider := config.GetProvider()
	cfgProvider.MustLoad()
	return cfgProvider.MustGet()
}

// initializeDependencies sets up all infrastructure dependencies
func initializeDependencies(cfg *config.Config) *Dependencies {
	provider, registry := initializeObservability(cfg)
	logger := provider.Logger("main")

	logStartup(cfg, logger)

	storageProvider := initializeStorage(cfg, provider)

	if cfg.Extractor.AutoInstall {
		if err := ytdlp.Install(context.Background(), logger); err != nil {
			logger.Error(context.Background(), "Failed to install yt-dlp", err, nil)
			log.Fatalf("Failed to install yt-dlp: %v", err)
		}
	}

	return &Dependencies{
		observability: provider,
		registry:      registry,
		storage:       storageProvider,
		logger:        logger,
	}
}

// initializeObservability sets up logging and metrics infrastructure
func initializeObservability(cfg *config.Config) (*observability.DefaultProvider, *prometheus.Registry) {
	var output io.Writer = os.Stdout
	if cfg.Observability.LogFile != "" {
		f, err := os.OpenFile(cfg.Observability.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		output = f
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	provider := observability.NewProvider(&observability.Config{
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
		LogLevel:         cfg.LogLevel,
		LogOutput:        output,
		MetricsNamespace: cfg.Observability.MetricsNamespace,
		Registerer:       registry,
		AdditionalFields: observability.Fields{
			"version": cfg.Version,
		},
	})

	return provider, registry
}

// logStartup logs application startup information
func logStartup(cfg *config.Config, logger observability.Logger) {
	logger.Info(context.Background(), "Starting application", observability.Fields{
		"service":     cfg.ServiceName,
		"version":     cfg.Version,
		"environment": cfg.Environment,
		"data_dir":    cfg.Storage.DataDir,
		"archive":     cfg.Archive.Provider,
	})
}

// initializeStorage sets up the storage provider and the media directory
func initializeStorage(cfg *config.Config, provider *observability.DefaultProvider) *storage.Provider {
	logger := provider.Logger("storage")
	metrics := provider.Metrics("storage")
	ctx := context.Background()

	storageProvider := storage.GetProvider()
	if err := storageProvider.Initialize(ctx, cfg, logger, metrics); err != nil {
		logger.Error(ctx, "Failed to initialize storage", err, nil)
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	if err := os.MkdirAll(cfg.MediaPath(), 0o755); err != nil {
		logger.Error(ctx, "Failed to create media directory", err, observability.Fields{
			"path": cfg.MediaPath(),
		})
		log.Fatalf("Failed to create media directory: %v", err)
	}

	logger.Info(ctx, "Storage initialized successfully", nil)
	return storageProvider
}

// buildApplication assembles the application layers
func buildApplication(cfg *config.Config, deps *Dependencies) *Application {
	provider := deps.observability
	local := deps.storage.MustLocal()

	gateway := ytdlp.New(cfg.Extractor, provider.Logger("extractor"), provider.Metrics("extractor"))

	store := catalog.NewStore(local, catalog.Options{
		CatalogKey: cfg.Storage.CatalogFile,
		MediaDir:   cfg.Storage.MediaDir,
		MediaExt:   cfg.Storage.MediaExt,
	}, provider.Logger("catalog"), provider.Metrics("catalog"))

	orchestrator := service.NewOrchestrator(service.Dependencies{
		Validator: usecase.NewURLValidator(cfg.Extractor.AllowedHosts),
		Gateway:   gateway,
		Registry:  registry.New(),
		Catalog:   store,
		Media:     local,
		Archive:   deps.storage.Archive(),
		Logger:    provider.Logger("orchestrator"),
		Metrics:   provider.Metrics("orchestrator"),
	}, service.Options{
		MediaDir:       cfg.Storage.MediaDir,
		MediaExt:       cfg.Storage.MediaExt,
		ResolveTimeout: cfg.Extractor.ResolveTimeout,
		Retry:          retry.FromConfig(cfg.Retry),
	})

	server := httpadapter.NewAdapter(orchestrator, &cfg.HTTP, httpadapter.Options{
		MediaRoot: cfg.MediaPath(),
		Handler:   cfg.Handler,
		Gatherer:  deps.registry,
	}, provider)

	return &Application{
		orchestrator: orchestrator,
		server:       server,
		logger:       provider.Logger("main"),
		metrics:      provider.Metrics("main"),
	}
}

// startApplication serves HTTP until a termination signal, then shuts down
// gracefully and waits for running downloads within the shutdown timeout
func startApplication(cfg *config.Config, app *Application) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.metrics.RecordSuccess("start")

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			app.logger.Error(context.Background(), "HTTP server failed", err, nil)
			app.metrics.RecordError("start", "server")
			log.Fatalf("Failed to start: %v", err)
		}
		return
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "Shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.server.Stop(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "HTTP server shutdown failed", err, nil)
	}

	if err := app.orchestrator.Drain(shutdownCtx); err != nil {
		app.logger.Warn(shutdownCtx, "Downloads still running at shutdown", observability.Fields{
			"jobs":  fmt.Sprint(app.orchestrator.Jobs()),
			"error": err.Error(),
		})
	}

	app.logger.Info(context.Background(), "Shutdown complete", nil)
}

// close releases the storage and the log output
func (d *Dependencies) close() {
	if err := d.storage.Close(); err != nil {
		d.logger.Warn(context.Background(), "Failed to close storage", observability.Fields{"error": err.Error()})
	}
	if err := d.observability.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		log.Printf("failed to close log output: %v", err)
	}
}
