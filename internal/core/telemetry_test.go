// AngelaMos | 2026
// telemetry_test.go

package core

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"github.com/azadnexus/backend/internal/config"
)

func TestNewTelemetryDisabledStillPropagates(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tel, err := NewTelemetry(context.Background(), config.OtelConfig{}, config.AppConfig{})
	require.NoError(t, err)
	assert.False(t, tel.Exporting())
	assert.NoError(t, tel.Shutdown(context.Background()))

	header := http.Header{}
	header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(header))

	ctx, span := StartSpan(ctx, "inquiry.Submit")
	defer span.End()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceIDFromContext(ctx))
}

func TestNilTelemetryShutdown(t *testing.T) {
	var tel *Telemetry
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestResourceAttributes(t *testing.T) {
	attrs := resourceAttributes(
		config.OtelConfig{
			ServiceName:        "azad-nexus-api",
			ResourceAttributes: " deployment.region = me-central-1 ,broken,,service.name=spoofed,team=",
		},
		config.AppConfig{Version: "1.4.0", Environment: "staging"},
	)

	got := map[attribute.Key]string{}
	for _, kv := range attrs {
		got[kv.Key] = kv.Value.AsString()
	}

	assert.Equal(t, "azad-nexus-api", got["service.name"])
	assert.Equal(t, "1.4.0", got["service.version"])
	assert.Equal(t, "staging", got["deployment.environment"])
	assert.Equal(t, "me-central-1", got["deployment.region"])
	assert.Contains(t, got, attribute.Key("team"))
	assert.NotContains(t, got, attribute.Key("broken"))
	assert.Len(t, attrs, 5)
}

func TestSampleRate(t *testing.T) {
	assert.Equal(t, 0.5, sampleRate(0.5))
	assert.Equal(t, 1.0, sampleRate(1))
	assert.Equal(t, defaultSampleRate, sampleRate(0))
	assert.Equal(t, defaultSampleRate, sampleRate(3))
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions(config.OtelConfig{Endpoint: "collector:4317", Insecure: true}), 2)
	assert.Len(t, exporterOptions(config.OtelConfig{Endpoint: "collector:4317", ExportTimeout: 1}), 3)
}
