package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const serviceVersion = "1.0.0"

// TelemetryConfig holds the configuration for tracing
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp-endpoint" yaml:"otlp-endpoint"`
	SampleRate   float64 `mapstructure:"sample-rate" yaml:"sample-rate"`
}

// DefaultTelemetryConfig returns tracing disabled.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4318",
		SampleRate:   0.1,
	}
}

// Validate checks the configuration
func (c TelemetryConfig) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("telemetry sample rate must be in [0, 1], got %v", c.SampleRate)
	}
	if c.Enabled && c.OTLPEndpoint == "" {
		return fmt.Errorf("telemetry is enabled without an otlp endpoint")
	}
	return nil
}

// Telemetry owns the tracer provider installed by InitTelemetry.
type Telemetry struct {
	config       TelemetryConfig
	shutdownFunc func(context.Context) error
}

// InitTelemetry installs an OTLP/HTTP tracer provider as the global provider.
// Settle spans are exported through it. When tracing is disabled the global
// no-op provider stays in place.
func InitTelemetry(cfg TelemetryConfig) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return &Telemetry{config: cfg}, nil
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(Name),
			semconv.ServiceVersion(serviceVersion),
			attribute.String("chain.id", ChainID),
		),
	)
	if err != nil {
		return nil, err
	}

	endpoint := cfg.OTLPEndpoint
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid otlp endpoint %q: %w", endpoint, err)
		}
		endpoint = parsed.Host
	}
	exp, err := otlptracehttp.New(context.Background(), otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(
			trace.TraceIDRatioBased(cfg.SampleRate),
		)),
	)
	otel.SetTracerProvider(tp)

	return &Telemetry{config: cfg, shutdownFunc: tp.Shutdown}, nil
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.shutdownFunc != nil {
		return t.shutdownFunc(ctx)
	}
	return nil
}
