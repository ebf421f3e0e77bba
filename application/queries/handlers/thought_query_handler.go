package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"thoughtgraph/application/ports"
	"thoughtgraph/application/queries"
	"thoughtgraph/application/queries/bus"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
)

// ThoughtQueryHandler answers lookups and listings of thoughts, tags and
// references
type ThoughtQueryHandler struct {
	logger *zap.Logger
}

// NewThoughtQueryHandler creates a new handler instance
func NewThoughtQueryHandler(logger *zap.Logger) *ThoughtQueryHandler {
	return &ThoughtQueryHandler{logger: logger}
}

// Handle dispatches on the concrete query
func (h *ThoughtQueryHandler) Handle(ctx context.Context, graph ports.GraphReader, q bus.Query) (interface{}, error) {
	switch query := q.(type) {
	case queries.GetThoughtQuery:
		return graph.Thought(valueobjects.ThoughtID(query.ID))

	case queries.ListThoughtsQuery:
		return h.listThoughts(graph, query)

	case queries.ListTagsQuery:
		tags := graph.Tags()
		out := make([]queries.TagUsage, 0, len(tags))
		for _, tag := range tags {
			out = append(out, queries.TagUsage{Tag: tag, Count: graph.TagUsageCount(tag.ID())})
		}
		return out, nil

	case queries.IncomingQuery:
		return graph.Incoming(valueobjects.ThoughtID(query.ID))

	case queries.OutgoingQuery:
		return graph.Outgoing(valueobjects.ThoughtID(query.ID))

	default:
		return nil, fmt.Errorf("thought query handler: unexpected query %T", q)
	}
}

// listThoughts intersects the tag filters. Unknown tags match nothing.
func (h *ThoughtQueryHandler) listThoughts(graph ports.GraphReader, query queries.ListThoughtsQuery) ([]*entities.Thought, error) {
	if len(query.Tags) == 0 {
		return graph.Thoughts(), nil
	}

	tags, err := valueobjects.ParseTagIDs(query.Tags)
	if err != nil {
		return nil, err
	}

	out := []*entities.Thought{}
	for _, id := range graph.ThoughtsWithTag(tags[0]) {
		thought, err := graph.Thought(id)
		if err != nil {
			return nil, err
		}
		if holdsAll(thought, tags[1:]) {
			out = append(out, thought)
		}
	}

	h.logger.Debug("Thoughts listed",
		zap.Strings("tags", query.Tags),
		zap.Int("count", len(out)),
	)
	return out, nil
}

func holdsAll(t *entities.Thought, tags []valueobjects.TagID) bool {
	for _, tag := range tags {
		if !t.HasTag(tag) {
			return false
		}
	}
	return true
}
