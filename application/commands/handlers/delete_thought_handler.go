package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"thoughtgraph/application/commands"
	"thoughtgraph/application/commands/bus"
	"thoughtgraph/domain/core/aggregates"
	"thoughtgraph/domain/core/valueobjects"
)

// DeleteThoughtHandler handles thought deletion commands
type DeleteThoughtHandler struct {
	logger *zap.Logger
}

// NewDeleteThoughtHandler creates a new delete thought handler
func NewDeleteThoughtHandler(logger *zap.Logger) *DeleteThoughtHandler {
	return &DeleteThoughtHandler{logger: logger}
}

// Handle executes the delete thought command. References and tag usage
// are cascaded by the graph.
func (h *DeleteThoughtHandler) Handle(ctx context.Context, graph *aggregates.Graph, c bus.Command) (*commands.Result, error) {
	cmd, ok := c.(commands.DeleteThoughtCommand)
	if !ok {
		return nil, fmt.Errorf("delete thought handler: unexpected command %T", c)
	}

	// Keep the last state so callers can report what was removed
	thought, err := graph.Thought(valueobjects.ThoughtID(cmd.ID))
	if err != nil {
		return nil, err
	}
	if err := graph.DeleteThought(thought.ID()); err != nil {
		return nil, err
	}

	h.logger.Debug("Thought deleted", zap.String("thoughtID", cmd.ID))
	return &commands.Result{Thought: thought}, nil
}
