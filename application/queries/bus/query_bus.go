package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"thoughtgraph/application/ports"
	"thoughtgraph/pkg/observability"
)

// Query represents a read-only query
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type
type QueryHandler interface {
	Handle(ctx context.Context, graph ports.GraphReader, query Query) (interface{}, error)
}

// QueryHandlerFunc is an adapter to allow functions to be used as handlers
type QueryHandlerFunc func(ctx context.Context, graph ports.GraphReader, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, graph ports.GraphReader, query Query) (interface{}, error) {
	return f(ctx, graph, query)
}

// Middleware wraps a query handler
type Middleware interface {
	Wrap(next QueryHandler) QueryHandler
}

// QueryBus dispatches queries to their handlers
type QueryBus struct {
	handlers    map[reflect.Type]QueryHandler
	middlewares []Middleware
	mu          sync.RWMutex
}

// ErrHandlerNotFound is returned for queries with no registered handler
var ErrHandlerNotFound = errors.New("query handler not found")

// NewQueryBus creates a new query bus. Middlewares run in the order given,
// the first being outermost.
func NewQueryBus(middlewares ...Middleware) *QueryBus {
	return &QueryBus{
		handlers:    make(map[reflect.Type]QueryHandler),
		middlewares: middlewares,
	}
}

// Register registers a handler for a query type
func (b *QueryBus) Register(queryType Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(queryType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}

	for i := len(b.middlewares) - 1; i >= 0; i-- {
		handler = b.middlewares[i].Wrap(handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask dispatches a query to its handler and returns the result
func (b *QueryBus) Ask(ctx context.Context, graph ports.GraphReader, query Query) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}

	result, err := handler.Handle(ctx, graph, query)
	if err != nil {
		return nil, fmt.Errorf("query handler failed: %w", err)
	}

	return result, nil
}

// Ask runs query on b and asserts the result type
func Ask[T any](ctx context.Context, b *QueryBus, graph ports.GraphReader, query Query) (T, error) {
	var zero T
	result, err := b.Ask(ctx, graph, query)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("query %s returned %T, want %T", QueryName(query), result, zero)
	}
	return typed, nil
}

// QueryName returns the type name used in logs, metrics and spans
func QueryName(query Query) string {
	t := reflect.TypeOf(query)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Cache interface for caching
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl int) error
}

// CacheMetrics is notified of cache hits
type CacheMetrics interface {
	RecordCacheHit()
}

// CachingMiddleware adds caching to query handlers. Entries are keyed on
// the graph instance and version, so a mutation or a reload invalidates them.
type CachingMiddleware struct {
	cache   Cache
	ttl     int // TTL in seconds
	metrics CacheMetrics
}

// NewCachingMiddleware creates a new caching middleware. metrics may be nil.
func NewCachingMiddleware(cache Cache, ttl int, metrics CacheMetrics) *CachingMiddleware {
	return &CachingMiddleware{
		cache:   cache,
		ttl:     ttl,
		metrics: metrics,
	}
}

// Wrap wraps a query handler with caching
func (m *CachingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, graph ports.GraphReader, query Query) (interface{}, error) {
		cacheKey := m.generateCacheKey(graph, query)

		if cached, found := m.cache.Get(ctx, cacheKey); found {
			if m.metrics != nil {
				m.metrics.RecordCacheHit()
			}
			return cached, nil
		}

		result, err := next.Handle(ctx, graph, query)
		if err != nil {
			return nil, err
		}

		// A failed cache write only costs a recomputation.
		_ = m.cache.Set(ctx, cacheKey, result, m.ttl)

		return result, nil
	})
}

func (m *CachingMiddleware) generateCacheKey(graph ports.GraphReader, query Query) string {
	return fmt.Sprintf("g%d@%d:%T:%+v", graph.Instance(), graph.Version(), query, query)
}

// Metrics records query executions
type Metrics interface {
	RecordQuery(query, outcome string)
}

// MetricsMiddleware adds metrics to query handlers
type MetricsMiddleware struct {
	metrics Metrics
}

// NewMetricsMiddleware creates a new metrics middleware
func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

// Wrap wraps a query handler with metrics
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, graph ports.GraphReader, query Query) (interface{}, error) {
		result, err := next.Handle(ctx, graph, query)
		outcome := observability.OutcomeSuccess
		if err != nil {
			outcome = observability.OutcomeError
		}
		m.metrics.RecordQuery(QueryName(query), outcome)
		return result, err
	})
}

// TracingMiddleware wraps each query in a span
type TracingMiddleware struct {
	tracer trace.Tracer
}

// NewTracingMiddleware creates a new tracing middleware
func NewTracingMiddleware(tracer trace.Tracer) *TracingMiddleware {
	return &TracingMiddleware{tracer: tracer}
}

// Wrap wraps a query handler with a span
func (m *TracingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, graph ports.GraphReader, query Query) (interface{}, error) {
		name := QueryName(query)
		ctx, span := observability.StartSpan(ctx, m.tracer, "query."+name,
			attribute.String("query", name),
			attribute.Int("graph.version", graph.Version()),
		)
		result, err := next.Handle(ctx, graph, query)
		observability.EndSpan(span, err)
		return result, err
	})
}

// LoggingMiddleware logs query execution at debug level
type LoggingMiddleware struct {
	logger *zap.Logger
}

// NewLoggingMiddleware creates a new logging middleware
func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Wrap wraps a query handler with logging
func (m *LoggingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, graph ports.GraphReader, query Query) (interface{}, error) {
		result, err := next.Handle(ctx, graph, query)
		if err != nil {
			m.logger.Debug("Query failed", zap.String("type", QueryName(query)), zap.Error(err))
			return nil, err
		}
		m.logger.Debug("Query answered", zap.String("type", QueryName(query)))
		return result, nil
	})
}
