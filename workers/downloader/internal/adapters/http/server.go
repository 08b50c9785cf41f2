// Package http exposes the downloader over HTTP: the catalog page, the
// download/progress/delete JSON endpoints, the downloaded media, health
// and metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vidcatalog/shared/config"
	"vidcatalog/shared/handler"
	"vidcatalog/shared/observability"
	"vidcatalog/workers/downloader/internal/domain"
	"vidcatalog/workers/downloader/internal/service"
)

// Service is the part of the orchestrator the routes use
type Service interface {
	Submit(ctx context.Context, url string) (service.SubmitResult, error)
	QueryStatus(id string) domain.JobStatus
	DeleteRecord(ctx context.Context, id string) error
	ListCatalog(ctx context.Context) ([]domain.VideoRecord, error)
	Health(ctx context.Context) error
	Jobs() map[domain.JobState]int
}

// Options configure the optional routes
type Options struct {
	// MediaRoot is the directory served under /downloads/
	MediaRoot string
	Handler   config.HandlerConfig
	// Gatherer backs the metrics route
	Gatherer prometheus.Gatherer
}

// Adapter handles HTTP server runtime integration
type Adapter struct {
	svc      Service
	config   *config.HTTPConfig
	opts     Options
	provider observability.Provider
	logger   observability.Logger
	server   *http.Server
}

// NewAdapter creates a new HTTP adapter
func NewAdapter(svc Service, cfg *config.HTTPConfig, opts Options, provider observability.Provider) *Adapter {
	return &Adapter{
		svc:      svc,
		config:   cfg,
		opts:     opts,
		provider: provider,
		logger:   provider.Logger("http"),
	}
}

// Handler returns the routes wrapped in the middleware chain
func (a *Adapter) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("GET /api/videos", a.handleListVideos)
	mux.HandleFunc("POST /download", a.handleDownload)
	mux.HandleFunc("GET /progress/{id}", a.handleProgress)
	mux.HandleFunc("DELETE /video/{id}", a.handleDelete)

	if a.opts.MediaRoot != "" {
		mux.Handle("GET /downloads/", http.StripPrefix("/downloads/", http.FileServer(http.Dir(a.opts.MediaRoot))))
	}
	if a.opts.Handler.EnableHealth {
		mux.HandleFunc("GET /health", a.handleHealth)
	}
	if a.opts.Handler.EnableMetrics && a.opts.Gatherer != nil {
		path := a.opts.Handler.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, promhttp.HandlerFor(a.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// Logging and metrics sit innermost so they see the matched pattern
	return handler.Chain(mux,
		handler.RecoveryMiddleware(a.provider),
		handler.TracingMiddleware(),
		handler.LoggingMiddleware(a.provider),
		handler.MetricsMiddleware(a.provider),
	)
}

// Start begins the HTTP server and blocks until it stops
func (a *Adapter) Start() error {
	a.server = &http.Server{
		Addr:         a.config.Addr,
		Handler:      a.Handler(),
		ReadTimeout:  a.config.ReadTimeout,
		WriteTimeout: a.config.WriteTimeout,
	}

	a.logger.Info(context.Background(), "Starting HTTP server", observability.Fields{
		"addr":          a.config.Addr,
		"read_timeout":  a.config.ReadTimeout.String(),
		"write_timeout": a.config.WriteTimeout.String(),
	})

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the HTTP server
func (a *Adapter) Stop(ctx context.Context) error {
	if a.server == nil {
		return nil
	}

	a.logger.Info(ctx, "Shutting down HTTP server", nil)
	return a.server.Shutdown(ctx)
}
