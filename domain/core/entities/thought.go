package entities

import (
	"sort"
	"time"

	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/valueobjects"
)

// Thought is the main entity representing a single note in the graph.
// Fields are private; the graph aggregate is the only writer and hands
// out clones to readers.
type Thought struct {
	id        valueobjects.ThoughtID
	content   valueobjects.ThoughtContent
	tags      map[valueobjects.TagID]struct{}
	createdAt time.Time
	updatedAt time.Time
}

// ThoughtRecord is the flat, exported form of a thought used for snapshots
// and persistence. Tags are sorted.
type ThoughtRecord struct {
	ID        valueobjects.ThoughtID
	Title     string
	Content   string
	Tags      []valueobjects.TagID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewThought creates a new thought. Validation of the id, the content and
// the tags is the caller's responsibility.
func NewThought(id valueobjects.ThoughtID, content valueobjects.ThoughtContent, tags []valueobjects.TagID, now time.Time) *Thought {
	t := &Thought{
		id:        id,
		content:   content,
		tags:      make(map[valueobjects.TagID]struct{}, len(tags)),
		createdAt: now,
		updatedAt: now,
	}
	for _, tag := range tags {
		t.tags[tag] = struct{}{}
	}
	return t
}

// ReconstructThought rebuilds a thought from a record with preserved timestamps
func ReconstructThought(rec ThoughtRecord, cfg *config.DomainConfig) (*Thought, error) {
	content, err := valueobjects.NewThoughtContentWithConfig(rec.Title, rec.Content, cfg)
	if err != nil {
		return nil, err
	}
	t := NewThought(rec.ID, content, rec.Tags, rec.CreatedAt)
	t.updatedAt = rec.UpdatedAt
	return t, nil
}

// ID returns the thought's unique identifier
func (t *Thought) ID() valueobjects.ThoughtID {
	return t.id
}

// Content returns the thought's title and body
func (t *Thought) Content() valueobjects.ThoughtContent {
	return t.content
}

// Title returns the thought's title, empty when it has none
func (t *Thought) Title() string {
	return t.content.Title()
}

// Body returns the thought's content text
func (t *Thought) Body() string {
	return t.content.Body()
}

// DisplayTitle returns the title, falling back to the id
func (t *Thought) DisplayTitle() string {
	if t.content.Title() != "" {
		return t.content.Title()
	}
	return t.id.String()
}

// Tags returns the tag set sorted by id
func (t *Thought) Tags() []valueobjects.TagID {
	tags := make([]valueobjects.TagID, 0, len(t.tags))
	for tag := range t.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// HasTag reports whether the thought holds the tag
func (t *Thought) HasTag(tag valueobjects.TagID) bool {
	_, ok := t.tags[tag]
	return ok
}

// TagCount returns the number of tags held
func (t *Thought) TagCount() int {
	return len(t.tags)
}

// CreatedAt returns when the thought was created
func (t *Thought) CreatedAt() time.Time {
	return t.createdAt
}

// UpdatedAt returns when the thought was last updated
func (t *Thought) UpdatedAt() time.Time {
	return t.updatedAt
}

// SetContent replaces title and body. It reports whether anything changed.
func (t *Thought) SetContent(content valueobjects.ThoughtContent, now time.Time) bool {
	if content.Equals(t.content) {
		return false
	}
	t.content = content
	t.updatedAt = now
	return true
}

// SetTags replaces the whole tag set. It reports whether anything changed.
func (t *Thought) SetTags(tags []valueobjects.TagID, now time.Time) bool {
	next := make(map[valueobjects.TagID]struct{}, len(tags))
	for _, tag := range tags {
		next[tag] = struct{}{}
	}
	if sameTagSet(t.tags, next) {
		return false
	}
	t.tags = next
	t.updatedAt = now
	return true
}

// AddTag adds a tag if it is not already held
func (t *Thought) AddTag(tag valueobjects.TagID, now time.Time) bool {
	if t.HasTag(tag) {
		return false
	}
	t.tags[tag] = struct{}{}
	t.updatedAt = now
	return true
}

// RemoveTag removes a tag if held
func (t *Thought) RemoveTag(tag valueobjects.TagID, now time.Time) bool {
	if !t.HasTag(tag) {
		return false
	}
	delete(t.tags, tag)
	t.updatedAt = now
	return true
}

// Clone returns a deep copy
func (t *Thought) Clone() *Thought {
	c := *t
	c.tags = make(map[valueobjects.TagID]struct{}, len(t.tags))
	for tag := range t.tags {
		c.tags[tag] = struct{}{}
	}
	return &c
}

// Record returns the flat exported form of the thought
func (t *Thought) Record() ThoughtRecord {
	return ThoughtRecord{
		ID:        t.id,
		Title:     t.content.Title(),
		Content:   t.content.Body(),
		Tags:      t.Tags(),
		CreatedAt: t.createdAt,
		UpdatedAt: t.updatedAt,
	}
}

func sameTagSet(a, b map[valueobjects.TagID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for tag := range a {
		if _, ok := b[tag]; !ok {
			return false
		}
	}
	return true
}
