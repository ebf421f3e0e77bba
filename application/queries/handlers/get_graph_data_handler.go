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

// GetGraphDataHandler handles graph data visualization queries
type GetGraphDataHandler struct {
	logger *zap.Logger
}

// NewGetGraphDataHandler creates a new graph data handler
func NewGetGraphDataHandler(logger *zap.Logger) *GetGraphDataHandler {
	return &GetGraphDataHandler{logger: logger}
}

// Handle executes the graph data query
func (h *GetGraphDataHandler) Handle(ctx context.Context, graph ports.GraphReader, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetGraphDataQuery)
	if !ok {
		return nil, fmt.Errorf("graph data handler: unexpected query %T", q)
	}

	var thoughts []*entities.Thought
	if query.Focus == "" {
		thoughts = graph.Thoughts()
	} else {
		var err error
		thoughts, err = neighbourhood(graph, valueobjects.ThoughtID(query.Focus), query.Depth)
		if err != nil {
			return nil, err
		}
	}

	included := make(map[valueobjects.ThoughtID]bool, len(thoughts))
	result := &queries.GraphView{
		Nodes: make([]queries.GraphNode, 0, len(thoughts)),
		Edges: []queries.GraphEdge{},
	}
	for _, t := range thoughts {
		included[t.ID()] = true
		tags := make([]string, 0, t.TagCount())
		for _, tag := range t.Tags() {
			tags = append(tags, tag.String())
		}
		result.Nodes = append(result.Nodes, queries.GraphNode{
			ID:    t.ID().String(),
			Label: t.DisplayTitle(),
			Tags:  tags,
		})
	}

	// Only edges with both endpoints in view are drawn.
	for _, ref := range graph.References() {
		if !included[ref.From] || !included[ref.To] {
			continue
		}
		result.Edges = append(result.Edges, queries.GraphEdge{
			ID:     fmt.Sprintf("edge_%d", len(result.Edges)+1),
			Source: ref.From.String(),
			Target: ref.To.String(),
			Label:  ref.Notes,
			Auto:   ref.Auto,
		})
	}

	result.Stats = queries.GraphStats{
		NodeCount:    len(result.Nodes),
		EdgeCount:    len(result.Edges),
		ClusterCount: countClusters(result),
	}
	// References are directed and unique per ordered pair.
	if n := len(result.Nodes); n > 1 {
		result.Stats.Density = float64(len(result.Edges)) / float64(n*(n-1))
	}

	h.logger.Debug("Graph data retrieved",
		zap.String("focus", query.Focus),
		zap.Int("depth", query.Depth),
		zap.Int("nodeCount", result.Stats.NodeCount),
		zap.Int("edgeCount", result.Stats.EdgeCount),
	)

	return result, nil
}

// neighbourhood walks references in both directions breadth-first from
// focus and returns the thoughts within depth hops, ordered by id
func neighbourhood(graph ports.GraphReader, focus valueobjects.ThoughtID, depth int) ([]*entities.Thought, error) {
	if _, err := graph.Thought(focus); err != nil {
		return nil, err
	}

	seen := map[valueobjects.ThoughtID]bool{focus: true}
	frontier := []valueobjects.ThoughtID{focus}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []valueobjects.ThoughtID
		for _, id := range frontier {
			out, err := graph.Outgoing(id)
			if err != nil {
				return nil, err
			}
			in, err := graph.Incoming(id)
			if err != nil {
				return nil, err
			}
			for _, ref := range out {
				if !seen[ref.To] {
					seen[ref.To] = true
					next = append(next, ref.To)
				}
			}
			for _, ref := range in {
				if !seen[ref.From] {
					seen[ref.From] = true
					next = append(next, ref.From)
				}
			}
		}
		frontier = next
	}

	out := make([]*entities.Thought, 0, len(seen))
	for _, t := range graph.Thoughts() {
		if seen[t.ID()] {
			out = append(out, t)
		}
	}
	return out, nil
}

// countClusters counts weakly connected components of the view
func countClusters(view *queries.GraphView) int {
	parent := make(map[string]string, len(view.Nodes))
	for _, n := range view.Nodes {
		parent[n.ID] = n.ID
	}
	var find func(string) string
	find = func(x string) string {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	clusters := len(view.Nodes)
	for _, e := range view.Edges {
		a, b := find(e.Source), find(e.Target)
		if a != b {
			parent[a] = b
			clusters--
		}
	}
	return clusters
}
