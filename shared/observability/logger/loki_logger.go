// Package logger provides structured logging optimized for Loki.
// Each entry is a single JSON object with a consistent field layout so
// Promtail can ship it and LogQL can query it with the json parser.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"vidcatalog/shared/observability/types"
)

// LogLevel represents the severity level of a log message.
// Higher values indicate more severe messages.
type LogLevel int

// Log level constants ordered by severity (lowest to highest).
const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel converts a string representation to a LogLevel.
// Unrecognized levels default to InfoLevel.
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// contextKeys are extracted from the context into every entry, in this order.
var contextKeys = []types.ContextKey{types.TraceIDKey, types.RequestIDKey, types.JobIDKey}

// LokiLogger implements types.Logger with JSON output.
// It is safe for concurrent use; writes to the shared output are serialized.
type LokiLogger struct {
	// writeMu is shared between a logger and the loggers derived with
	// WithFields so lines from different goroutines never interleave.
	writeMu          *sync.Mutex
	output           io.Writer
	serviceName      string
	environment      string
	hostname         string
	minLevel         LogLevel
	persistentFields types.Fields
}

// New creates a LokiLogger. If output is nil, it defaults to os.Stdout.
//
// Example:
//
//	log := logger.New("vidcatalog.orchestrator", "production", "info", os.Stdout,
//		types.Fields{"version": "1.0.0"})
//	log.Info(ctx, "job accepted", types.Fields{"video_id": id})
func New(serviceName, environment, logLevel string, output io.Writer, additionalFields types.Fields) *LokiLogger {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	if output == nil {
		output = os.Stdout
	}

	fields := make(types.Fields, len(additionalFields))
	for k, v := range additionalFields {
		fields[k] = v
	}

	return &LokiLogger{
		writeMu:          &sync.Mutex{},
		output:           output,
		serviceName:      serviceName,
		environment:      environment,
		hostname:         hostname,
		minLevel:         ParseLevel(logLevel),
		persistentFields: fields,
	}
}

// Info logs an informational message at INFO level.
func (l *LokiLogger) Info(ctx context.Context, msg string, fields types.Fields) {
	if l.minLevel > InfoLevel {
		return
	}
	l.log(ctx, InfoLevel, msg, nil, fields)
}

// Error logs an error message at ERROR level.
// The error text and its dynamic type are included in the entry.
func (l *LokiLogger) Error(ctx context.Context, msg string, err error, fields types.Fields) {
	if l.minLevel > ErrorLevel {
		return
	}
	l.log(ctx, ErrorLevel, msg, err, fields)
}

// Warn logs a warning message at WARN level.
func (l *LokiLogger) Warn(ctx context.Context, msg string, fields types.Fields) {
	if l.minLevel > WarnLevel {
		return
	}
	l.log(ctx, WarnLevel, msg, nil, fields)
}

// Debug logs a debug message at DEBUG level.
func (l *LokiLogger) Debug(ctx context.Context, msg string, fields types.Fields) {
	if l.minLevel > DebugLevel {
		return
	}
	l.log(ctx, DebugLevel, msg, nil, fields)
}

// WithFields returns a new logger with additional persistent fields.
// The parent logger is left unchanged.
func (l *LokiLogger) WithFields(fields types.Fields) types.Logger {
	newFields := make(types.Fields, len(l.persistentFields)+len(fields))
	for k, v := range l.persistentFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &LokiLogger{
		writeMu:          l.writeMu,
		output:           l.output,
		serviceName:      l.serviceName,
		environment:      l.environment,
		hostname:         l.hostname,
		minLevel:         l.minLevel,
		persistentFields: newFields,
	}
}

// log builds and writes one entry.
//
// Precedence, lowest to highest: standard fields, context values,
// persistent fields, call fields.
func (l *LokiLogger) log(ctx context.Context, level LogLevel, msg string, err error, fields types.Fields) {
	entry := make(types.Fields, 8+len(l.persistentFields)+len(fields))

	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	entry["level"] = level.String()
	entry["service"] = l.serviceName
	entry["env"] = l.environment
	entry["hostname"] = l.hostname
	entry["message"] = msg

	if ctx != nil {
		for _, key := range contextKeys {
			if v, ok := ctx.Value(key).(string); ok && v != "" {
				entry[string(key)] = v
			}
		}
	}

	if err != nil {
		entry["error"] = err.Error()
		entry["error_type"] = fmt.Sprintf("%T", err)
	}

	for k, v := range l.persistentFields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}

	line, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		line, _ = json.Marshal(types.Fields{
			"timestamp": entry["timestamp"],
			"level":     ErrorLevel.String(),
			"service":   l.serviceName,
			"message":   "failed to marshal log entry",
			"error":     marshalErr.Error(),
		})
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, _ = l.output.Write(append(line, '\n'))
}
