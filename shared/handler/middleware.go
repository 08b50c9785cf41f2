package handler

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"vidcatalog/shared/observability"
	"vidcatalog/shared/observability/types"
)

// RequestIDHeader carries the request correlation id in both directions
const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code and size written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *statusRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// routeLabel names the matched route pattern, keeping metric label
// cardinality bounded.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

// RecoveryMiddleware recovers from panics and answers 500 with a JSON body.
// This middleware should be the outermost layer to catch all panics.
func RecoveryMiddleware(provider observability.Provider) Middleware {
	logger := provider.Logger("http")
	metrics := provider.Metrics("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					logger.Error(r.Context(), "Panic recovered", fmt.Errorf("%v", rec), types.Fields{
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					})
					metrics.RecordError("panic", "panic_recovered")

					// Panic details stay in the log
					_ = WriteError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// TracingMiddleware makes sure each request has a correlation id.
// An incoming X-Request-ID is kept, otherwise a UUID is generated. The id is
// stored in the context for the logger and echoed in the response.
func TracingMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := types.WithRequestID(r.Context(), requestID)
			if traceID := r.Header.Get("X-Trace-ID"); traceID != "" {
				ctx = contextWithTrace(ctx, traceID)
			}

			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggingMiddleware logs one entry per completed request
func LoggingMiddleware(provider observability.Provider) Middleware {
	logger := provider.Logger("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			fields := types.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       routeLabel(r),
				"status":      rec.statusCode(),
				"bytes":       rec.bytes,
				"remote_addr": r.RemoteAddr,
				"duration_ms": time.Since(start).Milliseconds(),
			}

			switch {
			case rec.statusCode() >= http.StatusInternalServerError:
				logger.Warn(r.Context(), "Request completed with server error", fields)
			default:
				logger.Info(r.Context(), "Request completed", fields)
			}
		})
	}
}

// MetricsMiddleware records request counts, errors and latency per route
func MetricsMiddleware(provider observability.Provider) Middleware {
	metrics := provider.Metrics("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			metrics.StartOperation("request")
			defer metrics.EndOperation("request")

			next.ServeHTTP(rec, r)

			route := routeLabel(r)
			metrics.RecordDuration(route, time.Since(start).Seconds())

			if status := rec.statusCode(); status >= http.StatusBadRequest {
				metrics.RecordError(route, fmt.Sprintf("http_%d", status))
			} else {
				metrics.RecordSuccess(route)
			}
		})
	}
}

// extractRequestID attempts to extract request ID from headers
func extractRequestID(r *http.Request) string {
	headers := []string{
		RequestIDHeader,
		"X-Correlation-ID",
		"Request-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}

	return ""
}
