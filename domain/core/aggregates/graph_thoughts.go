package aggregates

import (
	"fmt"

	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	"thoughtgraph/domain/events"
	pkgerrors "thoughtgraph/pkg/errors"
)

// NewThoughtParams carries the arguments of CreateThought.
// A zero ID asks the graph to generate one.
type NewThoughtParams struct {
	ID         valueobjects.ThoughtID
	Title      string
	Content    string
	Tags       []valueobjects.TagID
	References []valueobjects.ThoughtID
}

// ThoughtChanges carries the arguments of UpdateThought.
// Nil Title or Content leave the field unchanged; Tags replace the whole
// set only when ReplaceTags is true.
type ThoughtChanges struct {
	Title       *string
	Content     *string
	Tags        []valueobjects.TagID
	ReplaceTags bool
}

// CreateThought adds a thought, creates its explicit references and syncs
// auto references from its content
func (g *Graph) CreateThought(p NewThoughtParams) (*entities.Thought, error) {
	id := p.ID
	if id.IsZero() {
		id = valueobjects.NewThoughtID()
	} else if _, err := valueobjects.ParseThoughtID(id.String()); err != nil {
		return nil, err
	}
	if g.HasThought(id) {
		return nil, pkgerrors.NewDuplicateIDError("thought", id.String())
	}

	content, err := valueobjects.NewThoughtContentWithConfig(p.Title, p.Content, g.cfg)
	if err != nil {
		return nil, err
	}

	tags, missing, err := g.resolveTags(p.Tags)
	if err != nil {
		return nil, err
	}

	refs := make([]valueobjects.ThoughtID, 0, len(p.References))
	seen := make(map[valueobjects.ThoughtID]bool, len(p.References))
	for _, to := range p.References {
		if to == id {
			return nil, pkgerrors.NewSelfReferenceError(id.String())
		}
		if !g.HasThought(to) {
			return nil, pkgerrors.NewNotFoundError("thought", to.String())
		}
		if !seen[to] {
			seen[to] = true
			refs = append(refs, to)
		}
	}

	now := g.clock()
	g.bump()
	g.createTags(missing, now)

	thought := entities.NewThought(id, content, tags, now)
	g.thoughts[id] = thought
	for _, tag := range tags {
		g.indexTag(tag, id)
	}
	g.record(events.NewThoughtCreated(id, content.Title(), thought.Tags(), now, g.version))

	for _, to := range refs {
		g.link(&entities.Reference{From: id, To: to, CreatedAt: now})
		g.record(events.NewReferenceAdded(id, to, "", false, now, g.version))
	}
	g.syncAutoReferences(id, now)

	return thought.Clone(), nil
}

// UpdateThought changes title, content or the tag set of a thought.
// A content change re-runs auto reference sync.
func (g *Graph) UpdateThought(id valueobjects.ThoughtID, changes ThoughtChanges) (*entities.Thought, error) {
	thought, ok := g.thoughts[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("thought", id.String())
	}

	title, body := thought.Title(), thought.Body()
	if changes.Title != nil {
		title = *changes.Title
	}
	if changes.Content != nil {
		body = *changes.Content
	}
	content, err := valueobjects.NewThoughtContentWithConfig(title, body, g.cfg)
	if err != nil {
		return nil, err
	}

	var tags, missing []valueobjects.TagID
	if changes.ReplaceTags {
		tags, missing, err = g.resolveTags(changes.Tags)
		if err != nil {
			return nil, err
		}
	}

	titleChanged := content.Title() != thought.Title()
	contentChanged := content.Body() != thought.Body()
	tagsChanged := changes.ReplaceTags && !sameTags(thought.Tags(), tags)
	if !titleChanged && !contentChanged && !tagsChanged {
		return thought.Clone(), nil
	}

	now := g.clock()
	g.bump()
	g.createTags(missing, now)

	thought.SetContent(content, now)
	if tagsChanged {
		for _, tag := range thought.Tags() {
			g.unindexTag(tag, id)
		}
		thought.SetTags(tags, now)
		for _, tag := range tags {
			g.indexTag(tag, id)
		}
	}
	g.record(events.NewThoughtUpdated(id, titleChanged, contentChanged, tagsChanged, now, g.version))

	if contentChanged {
		g.syncAutoReferences(id, now)
	}
	return thought.Clone(), nil
}

// DeleteThought removes a thought, every reference touching it and its
// tag usage entries
func (g *Graph) DeleteThought(id valueobjects.ThoughtID) error {
	thought, ok := g.thoughts[id]
	if !ok {
		return pkgerrors.NewNotFoundError("thought", id.String())
	}

	now := g.clock()
	g.bump()

	removed := 0
	for _, to := range sortedIDs(g.outgoing[id]) {
		ref := g.unlink(id, to)
		g.record(events.NewReferenceRemoved(id, to, ref.Auto, now, g.version))
		removed++
	}
	for _, from := range sortedIDs(g.incoming[id]) {
		ref := g.unlink(from, id)
		g.record(events.NewReferenceRemoved(from, id, ref.Auto, now, g.version))
		removed++
	}

	tags := thought.Tags()
	for _, tag := range tags {
		g.unindexTag(tag, id)
	}
	delete(g.thoughts, id)

	g.record(events.NewThoughtDeleted(id, removed, tags, now, g.version))
	return nil
}

// resolveTags normalises tags and checks them against the tag policy.
// It returns the normalised set and the tags that would have to be created.
func (g *Graph) resolveTags(raw []valueobjects.TagID) (tags, missing []valueobjects.TagID, err error) {
	strs := make([]string, len(raw))
	for i, t := range raw {
		strs[i] = t.String()
	}
	tags, err = valueobjects.ParseTagIDs(strs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) > g.cfg.MaxTagsPerThought {
		return nil, nil, pkgerrors.NewValidationError(
			fmt.Sprintf("a thought can hold at most %d tags", g.cfg.MaxTagsPerThought),
		).WithDetail("actual_count", len(tags))
	}
	for _, tag := range tags {
		if g.HasTag(tag) {
			continue
		}
		if !g.cfg.ImplicitTagCreation {
			return nil, nil, pkgerrors.NewNotFoundError("tag", tag.String())
		}
		missing = append(missing, tag)
	}
	return tags, missing, nil
}

func sameTags(a, b []valueobjects.TagID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[valueobjects.TagID]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
