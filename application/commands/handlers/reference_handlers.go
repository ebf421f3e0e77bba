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

// ReferenceHandler handles manual reference commands and rescans
type ReferenceHandler struct {
	logger *zap.Logger
}

// NewReferenceHandler creates a new reference handler
func NewReferenceHandler(logger *zap.Logger) *ReferenceHandler {
	return &ReferenceHandler{logger: logger}
}

// Handle dispatches on the concrete reference command
func (h *ReferenceHandler) Handle(ctx context.Context, graph *aggregates.Graph, c bus.Command) (*commands.Result, error) {
	switch cmd := c.(type) {
	case commands.AddReferenceCommand:
		ref, err := graph.AddReference(valueobjects.ThoughtID(cmd.From), valueobjects.ThoughtID(cmd.To), cmd.Notes)
		if err != nil {
			return nil, err
		}
		return &commands.Result{Reference: &ref}, nil

	case commands.RemoveReferenceCommand:
		from, to := valueobjects.ThoughtID(cmd.From), valueobjects.ThoughtID(cmd.To)
		ref, err := graph.Reference(from, to)
		if err != nil {
			return nil, err
		}
		if err := graph.RemoveReference(from, to); err != nil {
			return nil, err
		}
		return &commands.Result{Reference: &ref}, nil

	case commands.RescanReferencesCommand:
		sync, err := graph.RescanReferences(valueobjects.ThoughtID(cmd.ID))
		if err != nil {
			return nil, err
		}
		h.logger.Debug("References rescanned",
			zap.String("scope", scopeOf(cmd.ID)),
			zap.Int("added", len(sync.Added)),
			zap.Int("removed", len(sync.Removed)),
		)
		return &commands.Result{}, nil

	default:
		return nil, fmt.Errorf("reference handler: unexpected command %T", c)
	}
}

func scopeOf(id string) string {
	if id == "" {
		return "all"
	}
	return id
}
