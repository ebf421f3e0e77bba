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

// CreateThoughtHandler handles CreateThoughtCommand
type CreateThoughtHandler struct {
	logger *zap.Logger
}

// NewCreateThoughtHandler creates a new handler instance
func NewCreateThoughtHandler(logger *zap.Logger) *CreateThoughtHandler {
	return &CreateThoughtHandler{logger: logger}
}

// Handle creates the thought and reports the references derived from it
func (h *CreateThoughtHandler) Handle(ctx context.Context, graph *aggregates.Graph, c bus.Command) (*commands.Result, error) {
	cmd, ok := c.(commands.CreateThoughtCommand)
	if !ok {
		return nil, fmt.Errorf("create thought handler: unexpected command %T", c)
	}

	tags, err := valueobjects.ParseTagIDs(cmd.Tags)
	if err != nil {
		return nil, err
	}
	refs := make([]valueobjects.ThoughtID, len(cmd.References))
	for i, r := range cmd.References {
		refs[i] = valueobjects.ThoughtID(r)
	}

	title := cmd.Title
	if title == "" && cmd.SuggestTitle {
		title = valueobjects.SuggestTitle(cmd.Content)
	}

	thought, err := graph.CreateThought(aggregates.NewThoughtParams{
		ID:         valueobjects.ThoughtID(cmd.ID),
		Title:      title,
		Content:    cmd.Content,
		Tags:       tags,
		References: refs,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Thought created",
		zap.String("thoughtID", thought.ID().String()),
		zap.Int("tags", thought.TagCount()),
	)
	return &commands.Result{Thought: thought}, nil
}
