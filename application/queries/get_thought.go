package queries

import (
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/pkg/utils"
)

// GetThoughtQuery fetches a single thought. An id that could never name a
// thought is simply not found.
type GetThoughtQuery struct {
	ID string `json:"id" validate:"required"`
}

// Validate validates the GetThoughtQuery
func (q GetThoughtQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListThoughtsQuery lists thoughts holding every tag in Tags, or all
// thoughts when Tags is empty
type ListThoughtsQuery struct {
	Tags []string `json:"tags,omitempty" validate:"dive,tagid"`
}

// Validate validates the ListThoughtsQuery
func (q ListThoughtsQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// ListTagsQuery lists every tag with its usage count
type ListTagsQuery struct{}

// Validate validates the ListTagsQuery
func (q ListTagsQuery) Validate() error { return nil }

// TagUsage pairs a tag with the number of thoughts holding it
type TagUsage struct {
	Tag   *entities.Tag `json:"tag"`
	Count int           `json:"count"`
}

// IncomingQuery lists references pointing at a thought
type IncomingQuery struct {
	ID string `json:"id" validate:"required"`
}

// Validate validates the IncomingQuery
func (q IncomingQuery) Validate() error {
	return utils.ValidateStruct(q)
}

// OutgoingQuery lists references leaving a thought
type OutgoingQuery struct {
	ID string `json:"id" validate:"required"`
}

// Validate validates the OutgoingQuery
func (q OutgoingQuery) Validate() error {
	return utils.ValidateStruct(q)
}
