// Package tracing installs the OpenTelemetry tracer provider used by the
// emission and prediction engines.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects the exporter. An empty OTLPEndpoint disables tracing.
type Config struct {
	OTLPEndpoint string  `json:"otlp_endpoint"`
	Insecure     bool    `json:"insecure"`
	ServiceName  string  `json:"service_name"`
	SampleRatio  float64 `json:"sample_ratio"`
	Environment  string  `json:"environment"`
}

// SetDefaults fills the service name and samples everything by default.
func (c *Config) SetDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "carbontrip"
	}
	if c.SampleRatio == 0 {
		c.SampleRatio = 1
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
}

// Validate checks the sampling ratio.
func (c Config) Validate() error {
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("sample_ratio %v must be within [0,1]", c.SampleRatio)
	}
	return nil
}

// Shutdown flushes and stops the provider.
type Shutdown func(context.Context) error

// Setup installs the global tracer provider. Without an endpoint the global
// provider is left untouched, so spans stay non-recording, and the returned
// Shutdown does nothing. The global provider can only be delegated once.
func Setup(ctx context.Context, cfg Config, version string) (Shutdown, error) {
	cfg.SetDefaults()
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}
	tp, err := NewProvider(cfg, version, sdktrace.WithBatcher(exporter))
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// NewProvider builds an SDK provider with the service resource and the
// configured sampler. Span processors come from opts.
func NewProvider(cfg Config, version string, opts ...sdktrace.TracerProviderOption) (*sdktrace.TracerProvider, error) {
	cfg.SetDefaults()
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	opts = append(opts,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	return sdktrace.NewTracerProvider(opts...), nil
}
