package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kilianp07/carbontrip/core/emission"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := otel.Tracer("x").Start(context.Background(), "op")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "carbontrip", c.ServiceName)
	assert.Equal(t, 1.0, c.SampleRatio)
	require.NoError(t, c.Validate())

	c.SampleRatio = 1.5
	assert.Error(t, c.Validate())
}

func TestEngineSpansReachProvider(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp, err := NewProvider(Config{ServiceName: "carbontrip-test"}, "test", sdktrace.WithSpanProcessor(rec))
	require.NoError(t, err)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, err = emission.New(emission.Options{}).Calculate(context.Background(), emission.Request{Mode: "driving", DistanceKm: 10})
	require.NoError(t, err)

	var names []string
	for _, s := range rec.Ended() {
		names = append(names, s.Name())
		assert.Equal(t, "carbontrip-test", resourceService(s))
	}
	assert.Contains(t, names, "emission.Calculate")
}

func resourceService(s sdktrace.ReadOnlySpan) string {
	for _, kv := range s.Resource().Attributes() {
		if kv.Key == "service.name" {
			return kv.Value.AsString()
		}
	}
	return ""
}
