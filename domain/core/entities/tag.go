package entities

import (
	"time"

	"thoughtgraph/domain/core/valueobjects"
)

// Tag is a named label that exists independently of the thoughts using it
type Tag struct {
	id          valueobjects.TagID
	description string
	createdAt   time.Time
	updatedAt   time.Time
}

// TagRecord is the flat, exported form of a tag
type TagRecord struct {
	ID          valueobjects.TagID
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTag creates a tag with an optional description
func NewTag(id valueobjects.TagID, description string, now time.Time) *Tag {
	return &Tag{
		id:          id,
		description: description,
		createdAt:   now,
		updatedAt:   now,
	}
}

// ReconstructTag rebuilds a tag from a record
func ReconstructTag(rec TagRecord) *Tag {
	return &Tag{
		id:          rec.ID,
		description: rec.Description,
		createdAt:   rec.CreatedAt,
		updatedAt:   rec.UpdatedAt,
	}
}

// ID returns the tag id
func (t *Tag) ID() valueobjects.TagID { return t.id }

// Description returns the description, empty when none was given
func (t *Tag) Description() string { return t.description }

// CreatedAt returns when the tag was created
func (t *Tag) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns when the tag was last described
func (t *Tag) UpdatedAt() time.Time { return t.updatedAt }

// Describe sets the description. It reports whether anything changed.
func (t *Tag) Describe(description string, now time.Time) bool {
	if description == t.description {
		return false
	}
	t.description = description
	t.updatedAt = now
	return true
}

// Clone returns a copy
func (t *Tag) Clone() *Tag {
	c := *t
	return &c
}

// Record returns the flat exported form of the tag
func (t *Tag) Record() TagRecord {
	return TagRecord{
		ID:          t.id,
		Description: t.description,
		CreatedAt:   t.createdAt,
		UpdatedAt:   t.updatedAt,
	}
}
