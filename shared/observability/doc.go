/*
Package observability provides structured logging and metrics collection
for the catalog service.

Logs are JSON lines shaped for Loki; metrics are Prometheus collectors.

# Architecture

	Provider (manages instances)
	    ├── Logger (JSON formatted for Loki)
	    └── Metrics (Prometheus compatible)

Each component (http, orchestrator, catalog, storage) gets its own
logger and metrics instance. Components depend on the interfaces in the
types package so tests can substitute the mocks package.

# Usage

Initialize the provider once at application startup:

	registry := prometheus.NewRegistry()
	provider := observability.NewProvider(&observability.Config{
	    ServiceName: "vidcatalog",
	    Environment: "production",
	    LogLevel:    "info",
	    Registerer:  registry,
	    AdditionalFields: observability.Fields{
	        "version": "1.0.0",
	    },
	})
	defer provider.Close()

	log := provider.Logger("orchestrator")
	m := provider.Metrics("orchestrator")

	ctx = types.WithJobID(ctx, videoID)
	log.Info(ctx, "download started", observability.Fields{"url": url})

	start := time.Now()
	m.StartOperation("fetch")
	defer func() {
	    m.EndOperation("fetch")
	    m.RecordDuration("fetch", time.Since(start).Seconds())
	}()

# Context Integration

The logger extracts these context values if present:
  - trace_id: Distributed tracing identifier
  - request_id: Request correlation identifier, set by the HTTP middleware
  - job_id: Download job identifier, set by the orchestrator

# Metrics

With prefix {namespace}_{component}:

  - {prefix}_processed_total: Counter with labels [status, type]
  - {prefix}_errors_total: Counter with labels [error_type, operation]
  - {prefix}_duration_seconds: Histogram with label [operation]
  - {prefix}_file_size_bytes: Histogram with label [file_type]
  - {prefix}_in_progress: Gauge with label [operation]

Expose them with promhttp.HandlerFor on the registry passed as Registerer.

# Thread Safety

All components are safe for concurrent use.
*/
package observability
