package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TracerName is the instrumentation scope for all spans
const TracerName = "thoughtgraph"

// TracerProvider wraps an OpenTelemetry provider together with the
// shutdown hook of its SDK, if any
type TracerProvider struct {
	provider trace.TracerProvider
	shutdown func(context.Context) error
}

// NewNoopTracerProvider returns a provider that records nothing
func NewNoopTracerProvider() *TracerProvider {
	return &TracerProvider{
		provider: noop.NewTracerProvider(),
		shutdown: func(context.Context) error { return nil },
	}
}

// NewLoggingTracerProvider returns an SDK provider that writes finished
// spans to the logger at debug level
func NewLoggingTracerProvider(logger *zap.Logger) *TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(&zapSpanExporter{logger: logger.Named("trace")}),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return &TracerProvider{provider: tp, shutdown: tp.Shutdown}
}

// WrapTracerProvider adapts an existing provider, e.g. one from tests
func WrapTracerProvider(provider trace.TracerProvider) *TracerProvider {
	shutdown := func(context.Context) error { return nil }
	if sdk, ok := provider.(*sdktrace.TracerProvider); ok {
		shutdown = sdk.Shutdown
	}
	return &TracerProvider{provider: provider, shutdown: shutdown}
}

// Tracer returns the tracer used for commands and queries
func (p *TracerProvider) Tracer() trace.Tracer {
	return p.provider.Tracer(TracerName)
}

// Shutdown flushes and stops the provider
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// StartSpan starts a span with the given attributes
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type zapSpanExporter struct {
	logger *zap.Logger
}

func (e *zapSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		fields := []zap.Field{
			zap.String("span", s.Name()),
			zap.String("trace_id", s.SpanContext().TraceID().String()),
			zap.Duration("duration", s.EndTime().Sub(s.StartTime())),
			zap.String("status", s.Status().Code.String()),
		}
		for _, kv := range s.Attributes() {
			fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
		}
		e.logger.Debug("span finished", fields...)
	}
	return nil
}

func (e *zapSpanExporter) Shutdown(context.Context) error {
	// Sync fails on terminals; nothing is lost since spans are written synchronously.
	_ = e.logger.Sync()
	return nil
}
