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

type idSet map[valueobjects.ThoughtID]struct{}

// MatchHandler evaluates boolean match expressions
type MatchHandler struct {
	logger *zap.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(logger *zap.Logger) *MatchHandler {
	return &MatchHandler{logger: logger}
}

// Handle returns the matching thoughts ordered by id
func (h *MatchHandler) Handle(ctx context.Context, graph ports.GraphReader, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.MatchQuery)
	if !ok {
		return nil, fmt.Errorf("match handler: unexpected query %T", q)
	}
	expr, err := queries.ParseMatchExpr(query.Expr)
	if err != nil {
		return nil, err
	}

	all := graph.Thoughts()
	universe := make(idSet, len(all))
	for _, t := range all {
		universe[t.ID()] = struct{}{}
	}

	matched := evaluate(graph, expr, universe)
	out := []*entities.Thought{}
	for _, t := range all {
		if _, ok := matched[t.ID()]; ok {
			out = append(out, t)
		}
	}

	h.logger.Debug("Match evaluated",
		zap.String("expr", expr.String()),
		zap.Int("count", len(out)),
	)
	return out, nil
}

func evaluate(graph ports.GraphReader, expr queries.MatchExpr, universe idSet) idSet {
	switch e := expr.(type) {
	case queries.TagMatch:
		return setOf(graph.ThoughtsWithTag(e.Tag))

	case queries.RefsMatch:
		// Incoming fails only for unknown ids, which nothing references.
		refs, _ := graph.Incoming(e.Target)
		out := make(idSet, len(refs))
		for _, r := range refs {
			out[r.From] = struct{}{}
		}
		return out

	case queries.RefByMatch:
		refs, _ := graph.Outgoing(e.Source)
		out := make(idSet, len(refs))
		for _, r := range refs {
			out[r.To] = struct{}{}
		}
		return out

	case queries.IDMatch:
		out := make(idSet)
		for id := range universe {
			if e.Glob.Match(id.String()) {
				out[id] = struct{}{}
			}
		}
		return out

	case queries.AndMatch:
		left := evaluate(graph, e.Left, universe)
		right := evaluate(graph, e.Right, universe)
		out := make(idSet)
		for id := range left {
			if _, ok := right[id]; ok {
				out[id] = struct{}{}
			}
		}
		return out

	case queries.OrMatch:
		out := evaluate(graph, e.Left, universe)
		for id := range evaluate(graph, e.Right, universe) {
			out[id] = struct{}{}
		}
		return out

	case queries.NotMatch:
		excluded := evaluate(graph, e.X, universe)
		out := make(idSet)
		for id := range universe {
			if _, ok := excluded[id]; !ok {
				out[id] = struct{}{}
			}
		}
		return out
	}
	return idSet{}
}

func setOf(ids []valueobjects.ThoughtID) idSet {
	out := make(idSet, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
