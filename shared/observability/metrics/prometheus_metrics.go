// Package metrics provides Prometheus-compatible metrics collection
// for the catalog service. It follows Prometheus naming conventions.
package metrics

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var invalidNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// PrometheusMetrics implements types.Metrics using the Prometheus client library.
// Metric names are prefixed with a sanitized "<namespace>_<component>".
type PrometheusMetrics struct {
	prefix string

	// processedTotal counts items by status (success/error) and operation type
	processedTotal *prometheus.CounterVec
	// errorsTotal counts errors by error type and operation
	errorsTotal *prometheus.CounterVec
	// durationSeconds observes operation latency
	durationSeconds *prometheus.HistogramVec
	// fileSizeBytes observes stored media sizes
	fileSizeBytes *prometheus.HistogramVec
	// inProgress tracks operations currently running
	inProgress *prometheus.GaugeVec
}

// New creates a PrometheusMetrics and registers its collectors with reg
// (prometheus.DefaultRegisterer when nil).
//
// Pre-configured metrics:
//   - {prefix}_processed_total: Counter with labels [status, type]
//   - {prefix}_errors_total: Counter with labels [error_type, operation]
//   - {prefix}_duration_seconds: Histogram with label [operation]
//   - {prefix}_file_size_bytes: Histogram with label [file_type]
//   - {prefix}_in_progress: Gauge with label [operation]
//
// Registering the same prefix twice on one registry reuses the collectors
// already registered instead of panicking.
func New(namespace, component string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	prefix := Sanitize(strings.Trim(namespace+"_"+component, "_"))
	m := &PrometheusMetrics{prefix: prefix}

	m.processedTotal = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_processed_total", prefix),
			Help: fmt.Sprintf("Total processed items by %s", prefix),
		},
		[]string{"status", "type"},
	))

	m.errorsTotal = register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_errors_total", prefix),
			Help: fmt.Sprintf("Total errors in %s", prefix),
		},
		[]string{"error_type", "operation"},
	))

	// Downloads run for minutes, so the buckets reach well past DefBuckets
	m.durationSeconds = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    fmt.Sprintf("%s_duration_seconds", prefix),
			Help:    fmt.Sprintf("Operation duration in %s", prefix),
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"operation"},
	))

	m.fileSizeBytes = register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: fmt.Sprintf("%s_file_size_bytes", prefix),
			Help: fmt.Sprintf("File sizes stored by %s", prefix),
			Buckets: []float64{
				1048576,    // 1MB
				10485760,   // 10MB
				104857600,  // 100MB
				524288000,  // 500MB
				1073741824, // 1GB
				4294967296, // 4GB
			},
		},
		[]string{"file_type"},
	))

	m.inProgress = register(reg, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_in_progress", prefix),
			Help: fmt.Sprintf("Operations in progress in %s", prefix),
		},
		[]string{"operation"},
	))

	return m
}

// register registers c, returning the collector already present on reg
// when an identical one was registered before.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("failed to register metric: %v", err))
	}
	return c
}

// Sanitize turns an arbitrary string into a valid Prometheus metric name fragment.
func Sanitize(name string) string {
	name = invalidNameChars.ReplaceAllString(name, "_")
	if name == "" {
		return "app"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// Prefix returns the metric name prefix used by this collector.
func (m *PrometheusMetrics) Prefix() string {
	return m.prefix
}

// RecordSuccess increments {prefix}_processed_total with status="success".
func (m *PrometheusMetrics) RecordSuccess(operationType string) {
	m.processedTotal.WithLabelValues("success", operationType).Inc()
}

// RecordError increments both the processed counter (status="error") and
// the detailed error counter.
func (m *PrometheusMetrics) RecordError(operationType string, errorType string) {
	m.processedTotal.WithLabelValues("error", operationType).Inc()
	m.errorsTotal.WithLabelValues(errorType, operationType).Inc()
}

// RecordDuration observes the duration of an operation in seconds.
func (m *PrometheusMetrics) RecordDuration(operation string, duration float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordFileSize observes the size of a stored file in bytes.
func (m *PrometheusMetrics) RecordFileSize(fileType string, bytes int64) {
	m.fileSizeBytes.WithLabelValues(fileType).Observe(float64(bytes))
}

// StartOperation increments the in-progress gauge for an operation.
func (m *PrometheusMetrics) StartOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Inc()
}

// EndOperation decrements the in-progress gauge for an operation.
func (m *PrometheusMetrics) EndOperation(operation string) {
	m.inProgress.WithLabelValues(operation).Dec()
}
