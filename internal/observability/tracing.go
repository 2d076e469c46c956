// Package observability provides OpenTelemetry tracing for planscout.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/planscout/internal/core/domain"
)

// TracerName is the instrumentation scope for planscout spans.
const TracerName = "github.com/custodia-labs/planscout"

// Span kinds.
const (
	SpanKindEmbedding = "embedding"
	SpanKindIndex     = "index"
	SpanKindStore     = "store"
	SpanKindIngest    = "ingest"
)

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// ServiceName is the name of the service (default: "planscout").
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0).
	SampleRate float64
}

// ConfigFromSettings builds a tracing config from telemetry settings.
func ConfigFromSettings(s domain.TelemetrySettings, version string) *TracingConfig {
	return &TracingConfig{
		ServiceName:    "planscout",
		ServiceVersion: version,
		OTLPEndpoint:   s.OTLPEndpoint,
		SampleRate:     s.SampleRate,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initialises OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil || cfg.OTLPEndpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "planscout"
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes and stops the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// StartEmbeddingSpan starts a client span for one embedding request.
func StartEmbeddingSpan(ctx context.Context, provider, model string, inputs int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "embedding.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("planscout.span.kind", SpanKindEmbedding),
			attribute.String("embedding.provider", provider),
			attribute.String("embedding.model", model),
			attribute.Int("embedding.inputs", inputs),
		),
	)
}

// StartIndexSpan starts a span for a vector index operation.
func StartIndexSpan(ctx context.Context, op, collection string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "index."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("planscout.span.kind", SpanKindIndex),
			attribute.String("index.collection", collection),
		),
	)
}

// StartStoreSpan starts a client span for a backing store call.
func StartStoreSpan(ctx context.Context, backend, op string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, backend+"."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("planscout.span.kind", SpanKindStore),
			attribute.String("store.backend", backend),
		),
	)
}

// StartIngestSpan starts a span for one provider ingestion.
func StartIngestSpan(ctx context.Context, provider string, forceRefresh bool) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "ingest.provider",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("planscout.span.kind", SpanKindIngest),
			attribute.String("ingest.provider", provider),
			attribute.Bool("ingest.force_refresh", forceRefresh),
		),
	)
}

// RecordIngestResult records an ingestion report on a span.
func RecordIngestResult(span trace.Span, report *domain.IngestReport) {
	if report == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("ingest.plans", report.Plans),
		attribute.Int("ingest.skipped", report.Skipped),
		attribute.Int("ingest.documents", report.Documents),
		attribute.Bool("ingest.from_cache", report.FromCache),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
