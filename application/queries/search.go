package queries

import (
	"strings"

	"thoughtgraph/domain/core/entities"
	pkgerrors "thoughtgraph/pkg/errors"
)

// SearchQuery finds thoughts containing every term, case-insensitively,
// in their title or content
type SearchQuery struct {
	Terms []string `json:"terms"`
}

// Validate rejects a query with no usable terms
func (q SearchQuery) Validate() error {
	if len(q.NormalizedTerms()) == 0 {
		return pkgerrors.NewValidationError("search needs at least one non-blank term")
	}
	return nil
}

// NormalizedTerms returns the lower-cased terms with blanks dropped
func (q SearchQuery) NormalizedTerms() []string {
	out := make([]string, 0, len(q.Terms))
	for _, t := range q.Terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, strings.ToLower(t))
		}
	}
	return out
}

// SearchHit is one search result. Title matches weigh three times as much
// as content matches.
type SearchHit struct {
	Thought *entities.Thought `json:"thought"`
	Score   int               `json:"score"`
}
