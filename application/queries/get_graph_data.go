package queries

import (
	"thoughtgraph/pkg/utils"
)

// GetGraphDataQuery requests visualisation data for the whole graph, or for
// the neighbourhood of Focus up to Depth hops in either direction
type GetGraphDataQuery struct {
	Focus string `json:"focus,omitempty" validate:"omitempty,thoughtid"`
	Depth int    `json:"depth" validate:"gte=0"`
}

// Validate validates the query
func (q GetGraphDataQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// GraphView represents graph data for visualization
type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

// GraphNode is one thought in a GraphView
type GraphNode struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Tags  []string `json:"tags"`
}

// GraphEdge is one reference in a GraphView
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
	Auto   bool   `json:"auto"`
}

// GraphStats contains graph statistics
type GraphStats struct {
	NodeCount    int     `json:"node_count"`
	EdgeCount    int     `json:"edge_count"`
	ClusterCount int     `json:"cluster_count"`
	Density      float64 `json:"density"`
}
