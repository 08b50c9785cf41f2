// Package types holds the observability contracts shared by every component
// of the catalog service. Implementations live in the logger and metrics
// packages; consumers depend only on these interfaces.
package types

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

// Logger defines the contract for structured logging.
// Implementations emit one JSON object per entry, suitable for Loki.
// All methods are context-aware so request and job identifiers are
// attached automatically.
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, fields Fields)

	// Error logs a failure together with the error that caused it.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// Warn logs a condition that does not stop the operation.
	Warn(ctx context.Context, msg string, fields Fields)

	// Debug logs troubleshooting detail, usually filtered out in production.
	Debug(ctx context.Context, msg string, fields Fields)

	// WithFields returns a Logger that adds fields to every entry.
	WithFields(fields Fields) Logger
}

// Metrics defines the contract for metrics collection.
// Implementations should follow Prometheus naming conventions.
type Metrics interface {
	// RecordSuccess increments the success counter for an operation type
	// (e.g. "submit", "fetch", "catalog_append").
	RecordSuccess(operationType string)

	// RecordError increments the error counter for an operation and error
	// category (e.g. "fetch", "FETCH_FAILED").
	RecordError(operationType string, errorType string)

	// RecordDuration observes an operation duration in seconds.
	RecordDuration(operation string, duration float64)

	// RecordFileSize observes the size of a stored file in bytes.
	RecordFileSize(fileType string, bytes int64)

	// StartOperation increments the in-progress gauge for an operation.
	// Must be paired with EndOperation.
	StartOperation(operation string)

	// EndOperation decrements the in-progress gauge for an operation.
	EndOperation(operation string)
}

// Fields represents structured logging fields as key-value pairs.
// Values must be JSON-serializable.
type Fields map[string]interface{}

// ContextKey is the type of context keys the logger extracts.
// A dedicated type keeps these keys from colliding with other packages.
type ContextKey string

const (
	// RequestIDKey carries the HTTP request correlation id
	RequestIDKey ContextKey = "request_id"
	// TraceIDKey carries a distributed trace id when one is propagated
	TraceIDKey ContextKey = "trace_id"
	// JobIDKey carries the id of the download job being worked on
	JobIDKey ContextKey = "job_id"
)

// WithRequestID returns a context carrying the request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID extracts the request id from ctx, or "" if absent
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithJobID returns a context carrying the job id
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, JobIDKey, id)
}

// Config holds observability configuration for the provider.
type Config struct {
	// ServiceName identifies the service in logs and prefixes metric names.
	ServiceName string

	// Environment is the deployment environment (development, staging, production).
	Environment string

	// LogLevel is the minimum level written: debug, info, warn or error.
	LogLevel string

	// LogOutput receives log lines. Defaults to os.Stdout.
	LogOutput io.Writer

	// MetricsNamespace prefixes every metric name. Defaults to ServiceName.
	MetricsNamespace string

	// Registerer receives the metric collectors. Defaults to
	// prometheus.DefaultRegisterer; tests pass a fresh registry.
	Registerer prometheus.Registerer

	// AdditionalFields are included in every log entry.
	AdditionalFields Fields
}

// Provider manages the lifecycle of observability components.
// Each component gets its own Logger and Metrics, created once and cached.
type Provider interface {
	// Logger returns the Logger for a component (e.g. "orchestrator", "http").
	Logger(component string) Logger

	// Metrics returns the Metrics collector for a component.
	Metrics(component string) Metrics

	// Close releases the log output when it is closable.
	Close() error
}
