// Package telemetry installs the OpenTelemetry tracer provider used by the
// layer graph and exposes the Prometheus metrics handler.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Trace exporter names accepted by Config.TraceExporter.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// TracerName is the instrumentation scope used for graph spans.
const TracerName = "github.com/vk/recongraph"

var (
	ErrNilContext      = errors.New("telemetry: nil context")
	ErrUnknownExporter = errors.New("telemetry: unknown trace exporter")
)

// Config controls telemetry behavior.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// TraceExporter is one of "none", "stdout" or "otlp".
	TraceExporter string
	// OTLPEndpoint is the gRPC receiver for the otlp exporter.
	OTLPEndpoint string
	OTLPInsecure bool

	// StdoutWriter receives spans from the stdout exporter. Nil means
	// standard output.
	StdoutWriter io.Writer
}

// DefaultConfig traces nothing.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "recongraph",
		ServiceVersion: "dev",
		TraceExporter:  ExporterNone,
		OTLPEndpoint:   "localhost:4317",
		OTLPInsecure:   true,
	}
}

// Init installs a global tracer provider for cfg and returns the shutdown
// function that flushes it. With the "none" exporter the global no-op
// provider is left in place.
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	noop := func(context.Context) error { return nil }
	if cfg.TraceExporter == "" || cfg.TraceExporter == ExporterNone {
		return noop, nil
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	case ExporterStdout:
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.StdoutWriter != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.StdoutWriter))
		}
		exporter, err = stdouttrace.New(opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	), nil
}

// Tracer returns the graph tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// MetricsHandler serves the default Prometheus registry, which holds the
// graph's metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
