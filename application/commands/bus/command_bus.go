package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"thoughtgraph/application/commands"
	"thoughtgraph/domain/core/aggregates"
	pkgerrors "thoughtgraph/pkg/errors"
	"thoughtgraph/pkg/observability"
)

// Command represents a command that changes state
type Command interface {
	Validate() error
}

// CommandHandler handles a specific command type against a graph
type CommandHandler interface {
	Handle(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error)
}

// CommandHandlerFunc is an adapter to allow functions to be used as handlers
type CommandHandlerFunc func(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error)

// Handle implements CommandHandler
func (f CommandHandlerFunc) Handle(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error) {
	return f(ctx, graph, cmd)
}

// Middleware defines command middleware
type Middleware func(next CommandHandler) CommandHandler

// CommandBus dispatches commands to their handlers through a middleware
// pipeline. It is the only write path into a graph.
type CommandBus struct {
	handlers map[reflect.Type]CommandHandler
	pipeline *Pipeline
	mu       sync.RWMutex
}

// NewCommandBus creates a new command bus
func NewCommandBus(middlewares ...Middleware) *CommandBus {
	return &CommandBus{
		handlers: make(map[reflect.Type]CommandHandler),
		pipeline: NewPipeline(middlewares...),
	}
}

// Register registers a handler for a command type. Commands are dispatched
// by their dynamic type, so register and send values of the same kind.
func (b *CommandBus) Register(cmdType Command, handler CommandHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(cmdType)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for command type %s", t.Name())
	}

	b.handlers[t] = b.pipeline.Execute(handler)
	return nil
}

// Send validates cmd and applies it to graph. On failure the graph is left
// as it was and no events are kept.
func (b *CommandBus) Send(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("command validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(cmd)]
	b.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, cmd)
	}

	result, err := handler.Handle(ctx, graph, cmd)
	if err != nil {
		graph.DrainEvents()
		return nil, err
	}
	return result, nil
}

// CommandName returns the type name used in logs, metrics and spans
func CommandName(cmd Command) string {
	t := reflect.TypeOf(cmd)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventsMiddleware moves the events recorded by the graph into the result.
// It must sit innermost so every other middleware sees a complete result.
func EventsMiddleware() Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error) {
			result, err := next.Handle(ctx, graph, cmd)
			if err != nil {
				return nil, err
			}
			if result == nil {
				result = &commands.Result{}
			}
			result.Events = append(result.Events, graph.DrainEvents()...)
			result.Version = graph.Version()
			return result, nil
		})
	}
}

// TracingMiddleware wraps each command in a span
func TracingMiddleware(tracer trace.Tracer) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error) {
			name := CommandName(cmd)
			ctx, span := observability.StartSpan(ctx, tracer, "command."+name,
				attribute.String("command", name),
				attribute.Int("graph.version", graph.Version()),
			)
			result, err := next.Handle(ctx, graph, cmd)
			if result != nil {
				span.SetAttributes(attribute.Int("events", len(result.Events)))
			}
			observability.EndSpan(span, err)
			return result, err
		})
	}
}

// Metrics records command executions
type Metrics interface {
	RecordCommand(command, outcome string, d time.Duration)
}

// MetricsMiddleware counts commands and observes their duration
func MetricsMiddleware(metrics Metrics) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error) {
			start := time.Now()
			result, err := next.Handle(ctx, graph, cmd)
			outcome := observability.OutcomeSuccess
			if err != nil {
				outcome = observability.OutcomeError
			}
			metrics.RecordCommand(CommandName(cmd), outcome, time.Since(start))
			return result, err
		})
	}
}

// LoggingMiddleware logs command execution
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error) {
			cmdType := CommandName(cmd)
			logger.Debug("Executing command", zap.String("type", cmdType))

			result, err := next.Handle(ctx, graph, cmd)
			if err != nil {
				logger.Info("Command failed",
					zap.String("type", cmdType),
					zap.String("error_type", string(pkgerrors.TypeOf(err))),
					zap.Error(err),
				)
				return nil, err
			}

			fields := []zap.Field{zap.String("type", cmdType), zap.Int("version", graph.Version())}
			if result != nil {
				fields = append(fields, zap.Int("events", len(result.Events)))
			}
			logger.Debug("Command succeeded", fields...)
			return result, nil
		})
	}
}

// verifyGraph is the check InvariantMiddleware runs
var verifyGraph = (*aggregates.Graph).Validate

// InvariantMiddleware re-checks every graph invariant after a successful
// command when the graph's domain config asks for it. A command that fails
// the check is rolled back.
func InvariantMiddleware() Middleware {
	return func(next CommandHandler) CommandHandler {
		return CommandHandlerFunc(func(ctx context.Context, graph *aggregates.Graph, cmd Command) (*commands.Result, error) {
			if !graph.Config().VerifyInvariants {
				return next.Handle(ctx, graph, cmd)
			}

			checkpoint := graph.Checkpoint()
			result, err := next.Handle(ctx, graph, cmd)
			if err != nil {
				return result, err
			}
			if verr := verifyGraph(graph); verr != nil {
				if rerr := graph.Rollback(checkpoint); rerr != nil {
					return nil, fmt.Errorf("%s left the graph inconsistent: %w", CommandName(cmd), errors.Join(verr, rerr))
				}
				return nil, fmt.Errorf("%s left the graph inconsistent and was rolled back: %w", CommandName(cmd), verr)
			}
			return result, nil
		})
	}
}

// Pipeline chains multiple middleware together
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a new middleware pipeline
func NewPipeline(middlewares ...Middleware) *Pipeline {
	return &Pipeline{
		middlewares: middlewares,
	}
}

// Execute runs the command through the pipeline
func (p *Pipeline) Execute(handler CommandHandler) CommandHandler {
	// Apply middleware in reverse order
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		handler = p.middlewares[i](handler)
	}
	return handler
}

// Errors
var (
	ErrHandlerNotFound = errors.New("command handler not found")
)
