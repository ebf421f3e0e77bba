package handlers

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"thoughtgraph/application/commands"
	"thoughtgraph/application/commands/bus"
	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/aggregates"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	pkgerrors "thoughtgraph/pkg/errors"
	"thoughtgraph/pkg/observability"
)

type fixture struct {
	bus      *bus.CommandBus
	graph    *aggregates.Graph
	metrics  *observability.Metrics
	recorder *tracetest.SpanRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	metrics := observability.NewMetrics("thoughtgraph")

	b := bus.NewCommandBus(
		bus.TracingMiddleware(tracer),
		bus.MetricsMiddleware(metrics),
		bus.LoggingMiddleware(zap.NewNop()),
		bus.InvariantMiddleware(),
		bus.EventsMiddleware(),
	)
	require.NoError(t, RegisterAll(b, zap.NewNop()))

	return &fixture{
		bus:      b,
		graph:    aggregates.NewGraph(config.DevelopmentDomainConfig()),
		metrics:  metrics,
		recorder: recorder,
	}
}

func (f *fixture) send(t *testing.T, cmd bus.Command) *commands.Result {
	t.Helper()
	result, err := f.bus.Send(context.Background(), f.graph, cmd)
	require.NoError(t, err)
	return result
}

func strPtr(s string) *string { return &s }

func TestCommands_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.send(t, commands.CreateThoughtCommand{ID: "a", Content: "hello", Tags: []string{"#Ideas"}})
	require.NotNil(t, created.Thought)
	assert.Equal(t, []string{"ideas"}, created.CreatedTags())

	result := f.send(t, commands.CreateThoughtCommand{ID: "b", Content: "see [a]"})
	added, removed := result.AutoReferences()
	assert.Equal(t, []entities.ReferenceKey{{From: "b", To: "a"}}, added)
	assert.Empty(t, removed)

	result = f.send(t, commands.UpdateThoughtCommand{ID: "b", Content: strPtr("nothing here")})
	_, removed = result.AutoReferences()
	assert.Equal(t, []entities.ReferenceKey{{From: "b", To: "a"}}, removed)

	_, err := f.bus.Send(ctx, f.graph, commands.AddReferenceCommand{From: "a", To: "a"})
	assert.True(t, pkgerrors.IsSelfReference(err))

	result = f.send(t, commands.AddReferenceCommand{From: "a", To: "b", Notes: "why"})
	require.NotNil(t, result.Reference)
	assert.Equal(t, "why", result.Reference.Notes)

	result = f.send(t, commands.AttachTagCommand{ThoughtID: "b", TagID: "work"})
	assert.Equal(t, []valueobjects.TagID{"work"}, result.Thought.Tags())
	assert.Equal(t, []string{"work"}, result.CreatedTags())

	f.send(t, commands.DescribeTagCommand{ID: "work", Description: "day job"})
	f.send(t, commands.DetachTagCommand{ThoughtID: "b", TagID: "work"})
	f.send(t, commands.DeleteTagCommand{ID: "work"})
	f.send(t, commands.AddTagCommand{ID: "later"})
	f.send(t, commands.RemoveReferenceCommand{From: "a", To: "b"})

	result = f.send(t, commands.DeleteThoughtCommand{ID: "a"})
	assert.Equal(t, valueobjects.ThoughtID("a"), result.Thought.ID())
	assert.Equal(t, f.graph.Version(), result.Version)

	_, err = f.bus.Send(ctx, f.graph, commands.DeleteThoughtCommand{ID: "a"})
	assert.True(t, pkgerrors.IsNotFound(err))
	require.NoError(t, f.graph.Validate())
}

func TestCommands_UpdateThoughtTags(t *testing.T) {
	tests := []struct {
		name        string
		tags        []string
		replace     bool
		wantTags    []valueobjects.TagID
		wantCreated []string
	}{
		{name: "adds to the current set", tags: []string{"work"}, wantTags: []valueobjects.TagID{"ideas", "lang", "work"}, wantCreated: []string{"work"}},
		{name: "existing tag is a no-op", tags: []string{"lang"}, wantTags: []valueobjects.TagID{"ideas", "lang"}},
		{name: "replace swaps the set", tags: []string{"work"}, replace: true, wantTags: []valueobjects.TagID{"work"}, wantCreated: []string{"work"}},
		{name: "replace with nothing clears", replace: true, wantTags: []valueobjects.TagID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.send(t, commands.CreateThoughtCommand{ID: "a", Content: "x", Tags: []string{"ideas", "lang"}})

			result := f.send(t, commands.UpdateThoughtCommand{ID: "a", Tags: tt.tags, ReplaceTags: tt.replace})
			assert.Equal(t, tt.wantTags, result.Thought.Tags())
			assert.Equal(t, tt.wantCreated, result.CreatedTags())

			stored, err := f.graph.Thought("a")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTags, stored.Tags())
			for _, tag := range tt.wantTags {
				assert.Equal(t, 1, f.graph.TagUsageCount(tag), tag)
			}
		})
	}

	f := newFixture(t)
	_, err := f.bus.Send(context.Background(), f.graph, commands.UpdateThoughtCommand{ID: "ghost", Tags: []string{"work"}})
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.False(t, f.graph.HasTag("work"))
}

func TestCommands_ValidationRejectsBeforeHandler(t *testing.T) {
	f := newFixture(t)
	version := f.graph.Version()

	tests := []struct {
		name string
		cmd  bus.Command
	}{
		{"bad thought id", commands.CreateThoughtCommand{ID: "white space"}},
		{"bad tag", commands.CreateThoughtCommand{ID: "x", Tags: []string{"no spaces allowed"}}},
		{"missing id", commands.UpdateThoughtCommand{}},
		{"missing tag", commands.AttachTagCommand{ThoughtID: "x"}},
		{"bad reference target", commands.AddReferenceCommand{From: "a", To: "b c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bus.Send(context.Background(), f.graph, tt.cmd)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err), "got %v", err)
			assert.Equal(t, version, f.graph.Version())
		})
	}
	assert.Empty(t, f.recorder.Ended(), "validation happens before the pipeline")
}

func TestCommands_SuggestTitle(t *testing.T) {
	f := newFixture(t)
	result := f.send(t, commands.CreateThoughtCommand{
		Content:      "one two three four five six seven",
		SuggestTitle: true,
	})
	assert.Equal(t, "one two three four five", result.Thought.Title())
	assert.True(t, valueobjects.IsValidThoughtID(result.Thought.ID().String()))
}

func TestCommands_Rescan(t *testing.T) {
	f := newFixture(t)
	f.send(t, commands.CreateThoughtCommand{ID: "early", Content: "[later]"})
	f.send(t, commands.CreateThoughtCommand{ID: "later"})

	result := f.send(t, commands.RescanReferencesCommand{})
	added, _ := result.AutoReferences()
	assert.Equal(t, []entities.ReferenceKey{{From: "early", To: "later"}}, added)

	result = f.send(t, commands.RescanReferencesCommand{ID: "early"})
	assert.False(t, result.Changed())
}

func TestCommands_MetricsAndSpans(t *testing.T) {
	f := newFixture(t)
	f.send(t, commands.CreateThoughtCommand{ID: "a"})
	_, err := f.bus.Send(context.Background(), f.graph, commands.CreateThoughtCommand{ID: "a"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CommandsTotal.WithLabelValues("CreateThoughtCommand", observability.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CommandsTotal.WithLabelValues("CreateThoughtCommand", observability.OutcomeError)))

	spans := f.recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "command.CreateThoughtCommand", spans[0].Name())
	assert.Empty(t, f.graph.DrainEvents(), "events never linger in the graph")
}

func TestCommandBus_UnknownCommand(t *testing.T) {
	b := bus.NewCommandBus()
	_, err := b.Send(context.Background(), aggregates.NewGraph(nil), commands.AddTagCommand{ID: "x"})
	assert.ErrorIs(t, err, bus.ErrHandlerNotFound)
}

func TestCommandBus_DuplicateRegistration(t *testing.T) {
	b := bus.NewCommandBus()
	require.NoError(t, RegisterAll(b, zap.NewNop()))
	assert.Error(t, b.Register(commands.AddTagCommand{}, NewTagHandler(zap.NewNop())))
}

func TestCommandBus_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.bus.Send(ctx, f.graph, commands.CreateThoughtCommand{ID: "a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.graph.ThoughtCount())
}
