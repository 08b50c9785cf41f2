package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestNewProvider(t *testing.T) {
	config := &Config{
		ServiceName: "vidcatalog",
		Environment: "test",
		LogLevel:    "info",
		Registerer:  prometheus.NewRegistry(),
	}

	provider := NewProvider(config)

	assert.NotNil(t, provider)
	assert.Implements(t, (*Provider)(nil), provider)
	assert.Equal(t, "vidcatalog", config.MetricsNamespace)
	assert.NotNil(t, config.LogOutput)
}

func TestDefaultProvider_Logger(t *testing.T) {
	var buf bytes.Buffer
	provider := NewProvider(&Config{
		ServiceName: "vidcatalog",
		Environment: "test",
		LogLevel:    "info",
		LogOutput:   &buf,
		Registerer:  prometheus.NewRegistry(),
		AdditionalFields: Fields{
			"version": "1.0.0",
		},
	})
	defer provider.Close()

	logger1 := provider.Logger("orchestrator")
	logger2 := provider.Logger("orchestrator")
	assert.Same(t, logger1, logger2)

	logger3 := provider.Logger("http")
	assert.NotSame(t, logger1, logger3)

	logger1.Info(context.Background(), "hello", nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "vidcatalog.orchestrator", entry["service"])
	assert.Equal(t, "orchestrator", entry["component"])
	assert.Equal(t, "1.0.0", entry["version"])
}

func TestDefaultProvider_Metrics(t *testing.T) {
	provider := NewProvider(&Config{
		ServiceName: "vidcatalog",
		Environment: "test",
		Registerer:  prometheus.NewRegistry(),
	})
	defer provider.Close()

	metrics1 := provider.Metrics("orchestrator")
	metrics2 := provider.Metrics("orchestrator")
	assert.Same(t, metrics1, metrics2)

	metrics3 := provider.Metrics("http")
	assert.NotSame(t, metrics1, metrics3)
}

func TestDefaultProvider_Close(t *testing.T) {
	t.Run("close with stdout", func(t *testing.T) {
		provider := NewProvider(&Config{ServiceName: "test", Registerer: prometheus.NewRegistry()})
		assert.NoError(t, provider.Close())
	})

	t.Run("close with closable output", func(t *testing.T) {
		out := &closeRecorder{}
		provider := NewProvider(&Config{ServiceName: "test", LogOutput: out, Registerer: prometheus.NewRegistry()})

		assert.NoError(t, provider.Close())
		assert.True(t, out.closed)
	})
}
