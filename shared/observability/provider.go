// Package observability provides a centralized provider for logging and metrics
// components used throughout the catalog service.
package observability

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"vidcatalog/shared/observability/logger"
	"vidcatalog/shared/observability/metrics"
	"vidcatalog/shared/observability/types"
)

// Logger is a type alias for the Logger interface from the types package.
type Logger = types.Logger

// Metrics is a type alias for the Metrics interface from the types package.
type Metrics = types.Metrics

// Fields is a type alias for structured logging fields.
type Fields = types.Fields

// Config is a type alias for the observability configuration.
type Config = types.Config

// Provider is a type alias for the Provider interface from the types package.
type Provider = types.Provider

// DefaultProvider implements the Provider interface.
// Loggers and metrics are created lazily, once per component.
type DefaultProvider struct {
	config  *Config
	loggers map[string]Logger
	metrics map[string]Metrics
	mu      sync.RWMutex
}

// NewProvider creates a new observability provider with the given configuration.
// LogOutput defaults to os.Stdout, Registerer to prometheus.DefaultRegisterer
// and MetricsNamespace to ServiceName.
//
// Example:
//
//	provider := observability.NewProvider(&observability.Config{
//		ServiceName: "vidcatalog",
//		Environment: "production",
//		LogLevel:    "info",
//	})
//	log := provider.Logger("orchestrator")
func NewProvider(config *Config) *DefaultProvider {
	if config.LogOutput == nil {
		config.LogOutput = os.Stdout
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.MetricsNamespace == "" {
		config.MetricsNamespace = config.ServiceName
	}

	return &DefaultProvider{
		config:  config,
		loggers: make(map[string]Logger),
		metrics: make(map[string]Metrics),
	}
}

// Logger returns the Logger for a component.
//
// The returned logger includes the provider's AdditionalFields, a
// "component" field and the service name "{ServiceName}.{component}".
func (p *DefaultProvider) Logger(component string) Logger {
	p.mu.RLock()
	if l, exists := p.loggers[component]; exists {
		p.mu.RUnlock()
		return l
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if l, exists := p.loggers[component]; exists {
		return l
	}

	fields := make(Fields, len(p.config.AdditionalFields)+1)
	for k, v := range p.config.AdditionalFields {
		fields[k] = v
	}
	fields["component"] = component

	l := logger.New(
		fmt.Sprintf("%s.%s", p.config.ServiceName, component),
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogOutput,
		fields,
	)
	p.loggers[component] = l

	return l
}

// Metrics returns the Metrics collector for a component.
func (p *DefaultProvider) Metrics(component string) Metrics {
	p.mu.RLock()
	if m, exists := p.metrics[component]; exists {
		p.mu.RUnlock()
		return m
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if m, exists := p.metrics[component]; exists {
		return m
	}

	m := metrics.New(p.config.MetricsNamespace, component, p.config.Registerer)
	p.metrics[component] = m

	return m
}

// Close closes LogOutput when it is an io.Closer other than stdout/stderr.
func (p *DefaultProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if closer, ok := p.config.LogOutput.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}

	return nil
}
