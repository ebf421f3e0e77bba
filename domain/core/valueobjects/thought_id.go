package valueobjects

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	pkgerrors "thoughtgraph/pkg/errors"
)

// IDPattern is the grammar shared by thought ids and content mentions.
const IDPattern = `[A-Za-z0-9_-]+`

// MaxThoughtIDLength bounds user-chosen thought ids.
const MaxThoughtIDLength = 128

var thoughtIDRe = regexp.MustCompile(`^` + IDPattern + `$`)

// ThoughtID is a value object representing a unique thought identifier.
// It is immutable once assigned and acts as the primary key of a thought.
type ThoughtID string

// NewThoughtID generates a random ThoughtID
func NewThoughtID() ThoughtID {
	return ThoughtID(uuid.New().String())
}

// ParseThoughtID validates a user-chosen identifier
func ParseThoughtID(id string) (ThoughtID, error) {
	if id == "" {
		return "", pkgerrors.NewValidationError("thought ID cannot be empty")
	}
	if len(id) > MaxThoughtIDLength {
		return "", pkgerrors.NewValidationError("thought ID is too long").
			WithDetail("max_length", MaxThoughtIDLength)
	}
	if !IsValidThoughtID(id) {
		return "", pkgerrors.NewValidationError("thought ID may only contain letters, digits, '-' and '_'").
			WithDetail("id", id)
	}
	return ThoughtID(id), nil
}

// IsValidThoughtID reports whether s matches the thought id grammar
func IsValidThoughtID(s string) bool {
	return len(s) <= MaxThoughtIDLength && thoughtIDRe.MatchString(s)
}

// String returns the string representation of the ThoughtID
func (id ThoughtID) String() string {
	return string(id)
}

// IsZero checks if the ThoughtID is the zero value
func (id ThoughtID) IsZero() bool {
	return id == ""
}

// Mention returns the bracketed form that links to this thought from content
func (id ThoughtID) Mention() string {
	return "[" + string(id) + "]"
}

// MaxTagIDLength bounds tag ids after normalisation.
const MaxTagIDLength = 64

var tagIDRe = regexp.MustCompile(`^[a-z0-9_:./-]+$`)

// TagID is a case-normalised tag identifier
type TagID string

// NormalizeTagID trims whitespace and a leading '#', then lower-cases.
// It does not validate; use ParseTagID for that.
func NormalizeTagID(s string) TagID {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	return TagID(strings.ToLower(s))
}

// ParseTagID normalises and validates a tag identifier
func ParseTagID(s string) (TagID, error) {
	id := NormalizeTagID(s)
	if id == "" {
		return "", pkgerrors.NewValidationError("tag ID cannot be empty")
	}
	if len(id) > MaxTagIDLength {
		return "", pkgerrors.NewValidationError("tag ID is too long").
			WithDetail("max_length", MaxTagIDLength)
	}
	if !tagIDRe.MatchString(string(id)) {
		return "", pkgerrors.NewValidationError("tag ID may only contain letters, digits and _ : . / -").
			WithDetail("id", s)
	}
	return id, nil
}

// ParseTagIDs parses a list of tags, dropping duplicates while keeping order
func ParseTagIDs(raw []string) ([]TagID, error) {
	out := make([]TagID, 0, len(raw))
	seen := make(map[TagID]bool, len(raw))
	for _, s := range raw {
		id, err := ParseTagID(s)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// String returns the string representation of the TagID
func (id TagID) String() string {
	return string(id)
}
