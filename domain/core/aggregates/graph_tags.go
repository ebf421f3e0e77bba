package aggregates

import (
	"fmt"
	"time"
	"unicode/utf8"

	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	"thoughtgraph/domain/events"
	pkgerrors "thoughtgraph/pkg/errors"
)

// AddTag creates a tag explicitly
func (g *Graph) AddTag(id valueobjects.TagID, description string) (*entities.Tag, error) {
	tagID, err := valueobjects.ParseTagID(id.String())
	if err != nil {
		return nil, err
	}
	if g.HasTag(tagID) {
		return nil, pkgerrors.NewDuplicateIDError("tag", tagID.String())
	}
	if err := g.checkDescription(description); err != nil {
		return nil, err
	}

	now := g.clock()
	g.bump()
	tag := entities.NewTag(tagID, description, now)
	g.tags[tagID] = tag
	g.record(events.NewTagCreated(tagID, false, now, g.version))
	return tag.Clone(), nil
}

// DescribeTag sets or replaces a tag's description
func (g *Graph) DescribeTag(id valueobjects.TagID, description string) (*entities.Tag, error) {
	id = valueobjects.NormalizeTagID(id.String())
	tag, ok := g.tags[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("tag", id.String())
	}
	if err := g.checkDescription(description); err != nil {
		return nil, err
	}
	if description == tag.Description() {
		return tag.Clone(), nil
	}

	now := g.clock()
	g.bump()
	tag.Describe(description, now)
	g.record(events.NewTagDescribed(id, description, now, g.version))
	return tag.Clone(), nil
}

// DeleteTag removes a tag and detaches it from every thought holding it
func (g *Graph) DeleteTag(id valueobjects.TagID) error {
	id = valueobjects.NormalizeTagID(id.String())
	if !g.HasTag(id) {
		return pkgerrors.NewNotFoundError("tag", id.String())
	}

	now := g.clock()
	g.bump()
	holders := g.ThoughtsWithTag(id)
	for _, thoughtID := range holders {
		g.thoughts[thoughtID].RemoveTag(id, now)
	}
	delete(g.tagUsage, id)
	delete(g.tags, id)
	g.record(events.NewTagDeleted(id, holders, now, g.version))
	return nil
}

// AttachTag adds a tag to a thought. Unknown tags follow the implicit
// creation policy. Attaching a tag already held is a no-op.
func (g *Graph) AttachTag(thoughtID valueobjects.ThoughtID, tag valueobjects.TagID) (*entities.Thought, error) {
	thought, ok := g.thoughts[thoughtID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("thought", thoughtID.String())
	}
	tagID, err := valueobjects.ParseTagID(tag.String())
	if err != nil {
		return nil, err
	}
	if thought.HasTag(tagID) {
		return thought.Clone(), nil
	}
	if thought.TagCount() >= g.cfg.MaxTagsPerThought {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("a thought can hold at most %d tags", g.cfg.MaxTagsPerThought),
		)
	}
	var missing []valueobjects.TagID
	if !g.HasTag(tagID) {
		if !g.cfg.ImplicitTagCreation {
			return nil, pkgerrors.NewNotFoundError("tag", tagID.String())
		}
		missing = append(missing, tagID)
	}

	now := g.clock()
	g.bump()
	g.createTags(missing, now)
	thought.AddTag(tagID, now)
	g.indexTag(tagID, thoughtID)
	g.record(events.NewTagAttached(thoughtID, tagID, now, g.version))
	return thought.Clone(), nil
}

// DetachTag removes a tag from a thought. The thought must hold the tag.
func (g *Graph) DetachTag(thoughtID valueobjects.ThoughtID, tag valueobjects.TagID) (*entities.Thought, error) {
	thought, ok := g.thoughts[thoughtID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("thought", thoughtID.String())
	}
	tagID := valueobjects.NormalizeTagID(tag.String())
	if !g.HasTag(tagID) {
		return nil, pkgerrors.NewNotFoundError("tag", tagID.String())
	}
	if !thought.HasTag(tagID) {
		return nil, pkgerrors.NewNotFoundError("tag", tagID.String()).
			WithDetail("thought", thoughtID.String())
	}

	now := g.clock()
	g.bump()
	thought.RemoveTag(tagID, now)
	g.unindexTag(tagID, thoughtID)
	g.record(events.NewTagDetached(thoughtID, tagID, now, g.version))
	return thought.Clone(), nil
}

// createTags adds tags created by first use
func (g *Graph) createTags(ids []valueobjects.TagID, now time.Time) {
	for _, id := range ids {
		g.tags[id] = entities.NewTag(id, "", now)
		g.record(events.NewTagCreated(id, true, now, g.version))
	}
}

func (g *Graph) checkDescription(description string) error {
	if n := utf8.RuneCountInString(description); n > g.cfg.MaxDescriptionLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("description exceeds maximum length of %d characters", g.cfg.MaxDescriptionLength),
		).WithDetail("actual_length", n)
	}
	return nil
}
