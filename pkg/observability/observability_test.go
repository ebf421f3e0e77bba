package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetrics_RecordAndRender(t *testing.T) {
	m := NewMetrics("thoughtgraph")

	m.RecordCommand("CreateThoughtCommand", OutcomeSuccess, 3*time.Millisecond)
	m.RecordCommand("CreateThoughtCommand", OutcomeError, time.Millisecond)
	m.RecordQuery("SearchQuery", OutcomeSuccess)
	m.RecordCacheHit()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("CreateThoughtCommand", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("CreateThoughtCommand", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryCacheHits))

	text, err := m.WriteText()
	require.NoError(t, err)
	assert.Contains(t, text, "thoughtgraph_commands_total")
	assert.Contains(t, text, "thoughtgraph_command_duration_seconds")
	assert.Contains(t, text, `thoughtgraph_queries_total{outcome="success",query="SearchQuery"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics("thoughtgraph")
	b := NewMetrics("thoughtgraph")
	a.RecordCacheHit()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.QueryCacheHits))
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := WrapTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	tracer := provider.Tracer()

	_, span := StartSpan(context.Background(), tracer, "command.CreateThought", attribute.String("thought.id", "a"))
	EndSpan(span, nil)
	_, span = StartSpan(context.Background(), tracer, "command.DeleteThought")
	EndSpan(span, errors.New("boom"))

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "command.CreateThought", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Len(t, ended[1].Events(), 1, "error recorded as span event")

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestLoggingTracerProvider(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	provider := NewLoggingTracerProvider(zap.New(core))

	_, span := StartSpan(context.Background(), provider.Tracer(), "query.Search", attribute.Int("terms", 2))
	EndSpan(span, nil)
	require.NoError(t, provider.Shutdown(context.Background()))

	entries := logs.FilterMessage("span finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "query.Search", entries[0].ContextMap()["span"])
	assert.Equal(t, "2", entries[0].ContextMap()["terms"])
}

func TestNoopTracerProvider(t *testing.T) {
	provider := NewNoopTracerProvider()
	_, span := StartSpan(context.Background(), provider.Tracer(), "noop")
	EndSpan(span, nil)
	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, provider.Shutdown(context.Background()))
}
