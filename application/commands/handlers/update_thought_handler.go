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

// UpdateThoughtHandler handles UpdateThoughtCommand
type UpdateThoughtHandler struct {
	logger *zap.Logger
}

// NewUpdateThoughtHandler creates a new update thought handler
func NewUpdateThoughtHandler(logger *zap.Logger) *UpdateThoughtHandler {
	return &UpdateThoughtHandler{logger: logger}
}

// Handle applies the changes; a content change re-syncs auto references.
// Tags are added to the thought's set unless ReplaceTags is set.
func (h *UpdateThoughtHandler) Handle(ctx context.Context, graph *aggregates.Graph, c bus.Command) (*commands.Result, error) {
	cmd, ok := c.(commands.UpdateThoughtCommand)
	if !ok {
		return nil, fmt.Errorf("update thought handler: unexpected command %T", c)
	}

	id := valueobjects.ThoughtID(cmd.ID)
	changes := aggregates.ThoughtChanges{
		Title:       cmd.Title,
		Content:     cmd.Content,
		ReplaceTags: cmd.ReplaceTags,
	}
	if cmd.ReplaceTags || len(cmd.Tags) > 0 {
		tags, err := valueobjects.ParseTagIDs(cmd.Tags)
		if err != nil {
			return nil, err
		}
		// Without ReplaceTags the given tags are added to the current set.
		if !cmd.ReplaceTags {
			current, err := graph.Thought(id)
			if err != nil {
				return nil, err
			}
			tags = append(current.Tags(), tags...)
			changes.ReplaceTags = true
		}
		changes.Tags = tags
	}

	thought, err := graph.UpdateThought(id, changes)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Thought updated", zap.String("thoughtID", cmd.ID))
	return &commands.Result{Thought: thought}, nil
}
