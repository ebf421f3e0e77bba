package entities

import (
	"time"

	"thoughtgraph/domain/core/valueobjects"
)

// Reference is a directed, annotated link between two thoughts.
// At most one reference exists per ordered (From, To) pair.
type Reference struct {
	From      valueobjects.ThoughtID
	To        valueobjects.ThoughtID
	Notes     string
	Auto      bool // derived from a [id] mention in From's content
	CreatedAt time.Time
}

// ReferenceKey identifies a reference by its ordered endpoints
type ReferenceKey struct {
	From valueobjects.ThoughtID
	To   valueobjects.ThoughtID
}

// Key returns the reference's ordered endpoint pair
func (r Reference) Key() ReferenceKey {
	return ReferenceKey{From: r.From, To: r.To}
}

// String renders the edge as "from -> to"
func (k ReferenceKey) String() string {
	return k.From.String() + " -> " + k.To.String()
}

// Kind returns "auto" or "manual"
func (r Reference) Kind() string {
	if r.Auto {
		return "auto"
	}
	return "manual"
}
