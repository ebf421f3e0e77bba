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

// TagHandler handles every tag command
type TagHandler struct {
	logger *zap.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(logger *zap.Logger) *TagHandler {
	return &TagHandler{logger: logger}
}

// Handle dispatches on the concrete tag command
func (h *TagHandler) Handle(ctx context.Context, graph *aggregates.Graph, c bus.Command) (*commands.Result, error) {
	switch cmd := c.(type) {
	case commands.AddTagCommand:
		tag, err := graph.AddTag(valueobjects.TagID(cmd.ID), cmd.Description)
		if err != nil {
			return nil, err
		}
		return &commands.Result{Tag: tag}, nil

	case commands.DescribeTagCommand:
		tag, err := graph.DescribeTag(valueobjects.TagID(cmd.ID), cmd.Description)
		if err != nil {
			return nil, err
		}
		return &commands.Result{Tag: tag}, nil

	case commands.DeleteTagCommand:
		id := valueobjects.NormalizeTagID(cmd.ID)
		tag, err := graph.Tag(id)
		if err != nil {
			return nil, err
		}
		detached := graph.TagUsageCount(id)
		if err := graph.DeleteTag(id); err != nil {
			return nil, err
		}
		h.logger.Debug("Tag deleted", zap.String("tagID", id.String()), zap.Int("detached", detached))
		return &commands.Result{Tag: tag}, nil

	case commands.AttachTagCommand:
		thought, err := graph.AttachTag(valueobjects.ThoughtID(cmd.ThoughtID), valueobjects.TagID(cmd.TagID))
		if err != nil {
			return nil, err
		}
		return &commands.Result{Thought: thought}, nil

	case commands.DetachTagCommand:
		thought, err := graph.DetachTag(valueobjects.ThoughtID(cmd.ThoughtID), valueobjects.TagID(cmd.TagID))
		if err != nil {
			return nil, err
		}
		return &commands.Result{Thought: thought}, nil

	default:
		return nil, fmt.Errorf("tag handler: unexpected command %T", c)
	}
}
