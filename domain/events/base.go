package events

import (
	"time"

	"thoughtgraph/domain/core/valueobjects"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, timestamp time.Time, version int) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     version,
	}
}

// Thought Events

// ThoughtCreated is raised when a new thought is created
type ThoughtCreated struct {
	BaseEvent
	ThoughtID valueobjects.ThoughtID `json:"thought_id"`
	Title     string                 `json:"title"`
	Tags      []valueobjects.TagID   `json:"tags"`
}

// NewThoughtCreated creates a ThoughtCreated event
func NewThoughtCreated(id valueobjects.ThoughtID, title string, tags []valueobjects.TagID, timestamp time.Time, version int) ThoughtCreated {
	return ThoughtCreated{
		BaseEvent: newBase(id.String(), "thought.created", timestamp, version),
		ThoughtID: id,
		Title:     title,
		Tags:      tags,
	}
}

// ThoughtUpdated is raised when a thought's title, content or tag set changes
type ThoughtUpdated struct {
	BaseEvent
	ThoughtID      valueobjects.ThoughtID `json:"thought_id"`
	TitleChanged   bool                   `json:"title_changed"`
	ContentChanged bool                   `json:"content_changed"`
	TagsChanged    bool                   `json:"tags_changed"`
}

// NewThoughtUpdated creates a ThoughtUpdated event
func NewThoughtUpdated(id valueobjects.ThoughtID, titleChanged, contentChanged, tagsChanged bool, timestamp time.Time, version int) ThoughtUpdated {
	return ThoughtUpdated{
		BaseEvent:      newBase(id.String(), "thought.updated", timestamp, version),
		ThoughtID:      id,
		TitleChanged:   titleChanged,
		ContentChanged: contentChanged,
		TagsChanged:    tagsChanged,
	}
}

// ThoughtDeleted is raised when a thought is deleted along with its references
type ThoughtDeleted struct {
	BaseEvent
	ThoughtID         valueobjects.ThoughtID `json:"thought_id"`
	ReferencesRemoved int                    `json:"references_removed"`
	TagsReleased      []valueobjects.TagID   `json:"tags_released"`
}

// NewThoughtDeleted creates a ThoughtDeleted event
func NewThoughtDeleted(id valueobjects.ThoughtID, referencesRemoved int, tags []valueobjects.TagID, timestamp time.Time, version int) ThoughtDeleted {
	return ThoughtDeleted{
		BaseEvent:         newBase(id.String(), "thought.deleted", timestamp, version),
		ThoughtID:         id,
		ReferencesRemoved: referencesRemoved,
		TagsReleased:      tags,
	}
}

// Tag Events

// TagCreated is raised when a tag is created explicitly or by first use
type TagCreated struct {
	BaseEvent
	TagID    valueobjects.TagID `json:"tag_id"`
	Implicit bool               `json:"implicit"`
}

// NewTagCreated creates a TagCreated event
func NewTagCreated(id valueobjects.TagID, implicit bool, timestamp time.Time, version int) TagCreated {
	return TagCreated{
		BaseEvent: newBase(id.String(), "tag.created", timestamp, version),
		TagID:     id,
		Implicit:  implicit,
	}
}

// TagDescribed is raised when a tag's description changes
type TagDescribed struct {
	BaseEvent
	TagID       valueobjects.TagID `json:"tag_id"`
	Description string             `json:"description"`
}

// NewTagDescribed creates a TagDescribed event
func NewTagDescribed(id valueobjects.TagID, description string, timestamp time.Time, version int) TagDescribed {
	return TagDescribed{
		BaseEvent:   newBase(id.String(), "tag.described", timestamp, version),
		TagID:       id,
		Description: description,
	}
}

// TagDeleted is raised when a tag is deleted and detached from every thought
type TagDeleted struct {
	BaseEvent
	TagID    valueobjects.TagID       `json:"tag_id"`
	Detached []valueobjects.ThoughtID `json:"detached"`
}

// NewTagDeleted creates a TagDeleted event
func NewTagDeleted(id valueobjects.TagID, detached []valueobjects.ThoughtID, timestamp time.Time, version int) TagDeleted {
	return TagDeleted{
		BaseEvent: newBase(id.String(), "tag.deleted", timestamp, version),
		TagID:     id,
		Detached:  detached,
	}
}

// TagAttached is raised when a tag is added to a thought's tag set
type TagAttached struct {
	BaseEvent
	ThoughtID valueobjects.ThoughtID `json:"thought_id"`
	TagID     valueobjects.TagID     `json:"tag_id"`
}

// NewTagAttached creates a TagAttached event
func NewTagAttached(thoughtID valueobjects.ThoughtID, tagID valueobjects.TagID, timestamp time.Time, version int) TagAttached {
	return TagAttached{
		BaseEvent: newBase(thoughtID.String(), "tag.attached", timestamp, version),
		ThoughtID: thoughtID,
		TagID:     tagID,
	}
}

// TagDetached is raised when a tag is removed from a thought's tag set
type TagDetached struct {
	BaseEvent
	ThoughtID valueobjects.ThoughtID `json:"thought_id"`
	TagID     valueobjects.TagID     `json:"tag_id"`
}

// NewTagDetached creates a TagDetached event
func NewTagDetached(thoughtID valueobjects.ThoughtID, tagID valueobjects.TagID, timestamp time.Time, version int) TagDetached {
	return TagDetached{
		BaseEvent: newBase(thoughtID.String(), "tag.detached", timestamp, version),
		ThoughtID: thoughtID,
		TagID:     tagID,
	}
}

// Reference Events

// ReferenceAdded is raised when a new edge is created
type ReferenceAdded struct {
	BaseEvent
	From  valueobjects.ThoughtID `json:"from"`
	To    valueobjects.ThoughtID `json:"to"`
	Notes string                 `json:"notes,omitempty"`
	Auto  bool                   `json:"auto"`
}

// NewReferenceAdded creates a ReferenceAdded event
func NewReferenceAdded(from, to valueobjects.ThoughtID, notes string, auto bool, timestamp time.Time, version int) ReferenceAdded {
	return ReferenceAdded{
		BaseEvent: newBase(from.String(), "reference.added", timestamp, version),
		From:      from,
		To:        to,
		Notes:     notes,
		Auto:      auto,
	}
}

// ReferenceUpdated is raised when an existing edge gets new notes or
// is taken over as a manual edge
type ReferenceUpdated struct {
	BaseEvent
	From    valueobjects.ThoughtID `json:"from"`
	To      valueobjects.ThoughtID `json:"to"`
	Notes   string                 `json:"notes,omitempty"`
	WasAuto bool                   `json:"was_auto"`
}

// NewReferenceUpdated creates a ReferenceUpdated event
func NewReferenceUpdated(from, to valueobjects.ThoughtID, notes string, wasAuto bool, timestamp time.Time, version int) ReferenceUpdated {
	return ReferenceUpdated{
		BaseEvent: newBase(from.String(), "reference.updated", timestamp, version),
		From:      from,
		To:        to,
		Notes:     notes,
		WasAuto:   wasAuto,
	}
}

// ReferenceRemoved is raised when an edge is deleted
type ReferenceRemoved struct {
	BaseEvent
	From valueobjects.ThoughtID `json:"from"`
	To   valueobjects.ThoughtID `json:"to"`
	Auto bool                   `json:"auto"`
}

// NewReferenceRemoved creates a ReferenceRemoved event
func NewReferenceRemoved(from, to valueobjects.ThoughtID, auto bool, timestamp time.Time, version int) ReferenceRemoved {
	return ReferenceRemoved{
		BaseEvent: newBase(from.String(), "reference.removed", timestamp, version),
		From:      from,
		To:        to,
		Auto:      auto,
	}
}
