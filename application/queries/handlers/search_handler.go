package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"thoughtgraph/application/ports"
	"thoughtgraph/application/queries"
	"thoughtgraph/application/queries/bus"
)

// titleWeight is how much more a title occurrence counts than a content one
const titleWeight = 3

// SearchHandler answers full-text searches
type SearchHandler struct {
	logger *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(logger *zap.Logger) *SearchHandler {
	return &SearchHandler{logger: logger}
}

// Handle returns every thought containing all terms, best match first
func (h *SearchHandler) Handle(ctx context.Context, graph ports.GraphReader, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.SearchQuery)
	if !ok {
		return nil, fmt.Errorf("search handler: unexpected query %T", q)
	}
	terms := query.NormalizedTerms()

	hits := []queries.SearchHit{}
	for _, thought := range graph.Thoughts() {
		title := strings.ToLower(thought.Title())
		body := strings.ToLower(thought.Body())

		score := 0
		matched := true
		for _, term := range terms {
			inTitle := strings.Count(title, term)
			inBody := strings.Count(body, term)
			if inTitle == 0 && inBody == 0 {
				matched = false
				break
			}
			score += titleWeight*inTitle + inBody
		}
		if matched {
			hits = append(hits, queries.SearchHit{Thought: thought, Score: score})
		}
	}

	// Thoughts() is ordered by id, so a stable sort keeps id order within a score.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	h.logger.Debug("Search completed",
		zap.Strings("terms", terms),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}
