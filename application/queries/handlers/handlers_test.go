package handlers

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"thoughtgraph/application/queries"
	"thoughtgraph/application/queries/bus"
	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/aggregates"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	pkgerrors "thoughtgraph/pkg/errors"
	"thoughtgraph/pkg/observability"
)

type mapCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func newQueryBus(t *testing.T, middlewares ...bus.Middleware) *bus.QueryBus {
	t.Helper()
	b := bus.NewQueryBus(middlewares...)
	require.NoError(t, RegisterAll(b, zap.NewNop()))
	return b
}

func create(t *testing.T, g *aggregates.Graph, id, title, content string, tags ...valueobjects.TagID) {
	t.Helper()
	_, err := g.CreateThought(aggregates.NewThoughtParams{
		ID:      valueobjects.ThoughtID(id),
		Title:   title,
		Content: content,
		Tags:    tags,
	})
	require.NoError(t, err)
}

func ids(thoughts []*entities.Thought) []string {
	out := make([]string, 0, len(thoughts))
	for _, t := range thoughts {
		out = append(out, t.ID().String())
	}
	return out
}

// sampleGraph:
//
//	rust -> ownership (auto), rust -> go (manual), borrow -> ownership (auto)
func sampleGraph(t *testing.T) *aggregates.Graph {
	t.Helper()
	g := aggregates.NewGraph(config.DefaultDomainConfig())
	create(t, g, "ownership", "Ownership", "who frees memory", "rust", "memory")
	create(t, g, "go", "Go", "garbage collected", "lang")
	create(t, g, "rust", "Rust", "see [ownership] for memory rules", "rust", "lang")
	create(t, g, "borrow", "", "borrowing builds on [ownership]", "rust")
	create(t, g, "draft-1", "Draft", "nothing yet")
	_, err := g.AddReference("rust", "go", "compare")
	require.NoError(t, err)
	return g
}

func TestSearch_ScenarioAfterContentEdit(t *testing.T) {
	g := aggregates.NewGraph(config.DefaultDomainConfig())
	create(t, g, "a", "", "hello")
	create(t, g, "b", "", "see [a] hello")
	_, err := g.UpdateThought("b", aggregates.ThoughtChanges{Content: strPtr("nothing here")})
	require.NoError(t, err)

	hits, err := bus.Ask[[]queries.SearchHit](context.Background(), newQueryBus(t), g, queries.SearchQuery{Terms: []string{"hello"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, valueobjects.ThoughtID("a"), hits[0].Thought.ID())
}

func strPtr(s string) *string { return &s }

func TestSearch_Ranking(t *testing.T) {
	g := aggregates.NewGraph(config.DefaultDomainConfig())
	create(t, g, "c", "", "memory memory")         // 2
	create(t, g, "b", "Memory", "")                // 3
	create(t, g, "a", "", "MEMORY and memory, ok") // 2
	create(t, g, "d", "Memory", "memory safety")   // 4
	create(t, g, "e", "", "unrelated")
	b := newQueryBus(t)

	tests := []struct {
		name  string
		terms []string
		want  []string
	}{
		{"score then id", []string{"memory"}, []string{"d", "b", "a", "c"}},
		{"all terms required", []string{"memory", "safety"}, []string{"d"}},
		{"blank terms dropped", []string{" ", "safety"}, []string{"d"}},
		{"no match", []string{"absent"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := bus.Ask[[]queries.SearchHit](context.Background(), b, g, queries.SearchQuery{Terms: tt.terms})
			require.NoError(t, err)
			got := []string{}
			for _, h := range hits {
				got = append(got, h.Thought.ID().String())
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := b.Ask(context.Background(), g, queries.SearchQuery{Terms: []string{"", "  "}})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestListThoughts(t *testing.T) {
	g := sampleGraph(t)
	b := newQueryBus(t)

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{"all", nil, []string{"borrow", "draft-1", "go", "ownership", "rust"}},
		{"single tag", []string{"lang"}, []string{"go", "rust"}},
		{"intersection", []string{"rust", "#LANG"}, []string{"rust"}},
		{"unknown tag", []string{"nope"}, []string{}},
		{"unknown in intersection", []string{"rust", "nope"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bus.Ask[[]*entities.Thought](context.Background(), b, g, queries.ListThoughtsQuery{Tags: tt.tags})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestListTags(t *testing.T) {
	g := sampleGraph(t)
	_, err := g.AddTag("unused", "never attached")
	require.NoError(t, err)

	usage, err := bus.Ask[[]queries.TagUsage](context.Background(), newQueryBus(t), g, queries.ListTagsQuery{})
	require.NoError(t, err)

	got := map[string]int{}
	var order []string
	for _, u := range usage {
		got[u.Tag.ID().String()] = u.Count
		order = append(order, u.Tag.ID().String())
	}
	assert.Equal(t, []string{"lang", "memory", "rust", "unused"}, order)
	assert.Equal(t, map[string]int{"lang": 2, "memory": 1, "rust": 3, "unused": 0}, got)
}

func TestGetThoughtAndReferences(t *testing.T) {
	g := sampleGraph(t)
	b := newQueryBus(t)
	ctx := context.Background()

	thought, err := bus.Ask[*entities.Thought](ctx, b, g, queries.GetThoughtQuery{ID: "rust"})
	require.NoError(t, err)
	assert.Equal(t, "Rust", thought.Title())

	_, err = b.Ask(ctx, g, queries.GetThoughtQuery{ID: "missing"})
	assert.True(t, pkgerrors.IsNotFound(err))

	incoming, err := bus.Ask[[]entities.Reference](ctx, b, g, queries.IncomingQuery{ID: "ownership"})
	require.NoError(t, err)
	require.Len(t, incoming, 2)
	assert.Equal(t, valueobjects.ThoughtID("borrow"), incoming[0].From)
	assert.Equal(t, valueobjects.ThoughtID("rust"), incoming[1].From)

	outgoing, err := bus.Ask[[]entities.Reference](ctx, b, g, queries.OutgoingQuery{ID: "rust"})
	require.NoError(t, err)
	require.Len(t, outgoing, 2)
	assert.Equal(t, valueobjects.ThoughtID("go"), outgoing[0].To)
	assert.False(t, outgoing[0].Auto)
	assert.Equal(t, "compare", outgoing[0].Notes)
	assert.True(t, outgoing[1].Auto)

	_, err = b.Ask(ctx, g, queries.OutgoingQuery{ID: "missing"})
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestMatch(t *testing.T) {
	g := sampleGraph(t)
	b := newQueryBus(t)

	tests := []struct {
		name string
		expr string
		want []string
	}{
		{"tag", "tag:rust", []string{"borrow", "ownership", "rust"}},
		{"refs", "refs:ownership", []string{"borrow", "rust"}},
		{"refby", "refby:rust", []string{"go", "ownership"}},
		{"id glob", "id:draft-*", []string{"draft-1"}},
		{"and", "tag:rust and tag:lang", []string{"rust"}},
		{"or", "tag:memory or tag:lang", []string{"go", "ownership", "rust"}},
		{"not", "not tag:rust", []string{"draft-1", "go"}},
		{"precedence", "tag:lang or tag:memory and refs:ownership", []string{"go", "rust"}},
		{"parentheses", "(tag:lang or tag:memory) and not refby:rust", []string{"rust"}},
		{"keywords ignore case", "TAG:rust AND NOT id:b*", []string{"ownership", "rust"}},
		{"unknown ids match nothing", "refs:ghost or refby:ghost", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bus.Ask[[]*entities.Thought](context.Background(), b, g, queries.MatchQuery{Expr: tt.expr})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestMatch_InvalidExpressions(t *testing.T) {
	g := sampleGraph(t)
	b := newQueryBus(t)

	for _, expr := range []string{
		"",
		"tag:",
		"colour:red",
		"tag:rust and",
		"(tag:rust",
		"tag:rust)",
		"tag:rust tag:lang",
		"id:[",
		"refs:not an id",
	} {
		t.Run(fmt.Sprintf("%q", expr), func(t *testing.T) {
			_, err := b.Ask(context.Background(), g, queries.MatchQuery{Expr: expr})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err), "got %v", err)
		})
	}
}

func TestGraphData(t *testing.T) {
	g := sampleGraph(t)
	b := newQueryBus(t)
	ctx := context.Background()

	whole, err := bus.Ask[*queries.GraphView](ctx, b, g, queries.GetGraphDataQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, whole.Stats.NodeCount)
	assert.Equal(t, 3, whole.Stats.EdgeCount)
	assert.Equal(t, 2, whole.Stats.ClusterCount, "draft-1 stands alone")
	assert.InDelta(t, 3.0/20.0, whole.Stats.Density, 1e-9)
	assert.Equal(t, "borrow", whole.Nodes[0].Label, "untitled thoughts are labelled by id")
	assert.Equal(t, queries.GraphEdge{ID: "edge_1", Source: "borrow", Target: "ownership", Auto: true}, whole.Edges[0])

	tests := []struct {
		name  string
		focus string
		depth int
		nodes []string
		edges int
	}{
		{"depth zero", "go", 0, []string{"go"}, 0},
		{"incoming hop", "go", 1, []string{"go", "rust"}, 1},
		{"two hops", "go", 2, []string{"go", "ownership", "rust"}, 2},
		{"three hops", "go", 3, []string{"borrow", "go", "ownership", "rust"}, 3},
		{"isolated", "draft-1", 5, []string{"draft-1"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := bus.Ask[*queries.GraphView](ctx, b, g, queries.GetGraphDataQuery{Focus: tt.focus, Depth: tt.depth})
			require.NoError(t, err)
			var got []string
			for _, n := range view.Nodes {
				got = append(got, n.ID)
			}
			assert.Equal(t, tt.nodes, got)
			assert.Len(t, view.Edges, tt.edges)
			assert.Equal(t, 1, view.Stats.ClusterCount)
		})
	}

	_, err = b.Ask(ctx, g, queries.GetGraphDataQuery{Focus: "ghost"})
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = b.Ask(ctx, g, queries.GetGraphDataQuery{Depth: -1})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestQueryBus_CachingKeyedOnVersion(t *testing.T) {
	g := sampleGraph(t)
	metrics := observability.NewMetrics("thoughtgraph")
	cache := &mapCache{items: map[string]interface{}{}}
	b := newQueryBus(t,
		bus.NewMetricsMiddleware(metrics),
		bus.NewCachingMiddleware(cache, 60, metrics),
	)
	ctx := context.Background()
	query := queries.ListThoughtsQuery{Tags: []string{"lang"}}

	first, err := bus.Ask[[]*entities.Thought](ctx, b, g, query)
	require.NoError(t, err)
	second, err := bus.Ask[[]*entities.Thought](ctx, b, g, query)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueryCacheHits))

	_, err = g.AttachTag("draft-1", "lang")
	require.NoError(t, err)

	third, err := bus.Ask[[]*entities.Thought](ctx, b, g, query)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft-1", "go", "rust"}, ids(third))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.QueryCacheHits))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("ListThoughtsQuery", observability.OutcomeSuccess)))
}

func TestQueryBus_CachingSeparatesGraphsAtSameVersion(t *testing.T) {
	cache := &mapCache{items: map[string]interface{}{}}
	b := newQueryBus(t, bus.NewCachingMiddleware(cache, 60, nil))
	ctx := context.Background()

	first := aggregates.NewGraph(config.DefaultDomainConfig())
	create(t, first, "a", "", "x")
	second := aggregates.NewGraph(config.DefaultDomainConfig())
	create(t, second, "b", "", "y")
	require.Equal(t, first.Version(), second.Version())

	got, err := bus.Ask[[]*entities.Thought](ctx, b, first, queries.ListThoughtsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got))

	got, err = bus.Ask[[]*entities.Thought](ctx, b, second, queries.ListThoughtsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got))

	restored, err := aggregates.Restore(first.Snapshot(), config.DefaultDomainConfig())
	require.NoError(t, err)
	create(t, restored, "c", "", "z")
	got, err = bus.Ask[[]*entities.Thought](ctx, b, restored, queries.ListThoughtsQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(got))
}

func TestThoughtQueries_MalformedIDIsNotFound(t *testing.T) {
	g := sampleGraph(t)
	b := newQueryBus(t)

	tests := []struct {
		name  string
		query bus.Query
	}{
		{"get", queries.GetThoughtQuery{ID: "no such!"}},
		{"incoming", queries.IncomingQuery{ID: "no such!"}},
		{"outgoing", queries.OutgoingQuery{ID: "Upper Case"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Ask(context.Background(), g, tt.query)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsNotFound(err), err)
		})
	}

	_, err := b.Ask(context.Background(), g, queries.GetThoughtQuery{})
	assert.True(t, pkgerrors.IsValidation(err), "an empty id is still rejected")
}

func TestQueryBus_TracingAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	b := newQueryBus(t, bus.NewTracingMiddleware(tracer), bus.NewLoggingMiddleware(zap.NewNop()))
	g := sampleGraph(t)

	_, err := b.Ask(context.Background(), g, queries.GetThoughtQuery{ID: "ghost"})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "query.GetThoughtQuery", spans[0].Name())
	assert.Equal(t, "Error", spans[0].Status().Code.String())

	_, err = b.Ask(context.Background(), g, queries.GetThoughtQuery{ID: "bad id"})
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Len(t, recorder.Ended(), 1, "invalid queries never reach the handler")

	type unregistered struct{ queries.ListTagsQuery }
	_, err = b.Ask(context.Background(), g, unregistered{})
	assert.ErrorIs(t, err, bus.ErrHandlerNotFound)

	_, err = bus.Ask[*queries.GraphView](context.Background(), b, g, queries.ListTagsQuery{})
	assert.Error(t, err, "wrong result type")
}
