package aggregates

import (
	"fmt"

	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	pkgerrors "thoughtgraph/pkg/errors"
)

// Snapshot is the persisted form of a graph: thoughts, tags and forward
// references, each sorted by id. Derived indices are rebuilt by Restore.
type Snapshot struct {
	Thoughts   []entities.ThoughtRecord
	Tags       []entities.TagRecord
	References []entities.Reference
}

// Snapshot captures the graph's current state
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Thoughts:   make([]entities.ThoughtRecord, 0, len(g.thoughts)),
		Tags:       make([]entities.TagRecord, 0, len(g.tags)),
		References: g.References(),
	}
	for _, id := range g.sortedThoughtIDs() {
		s.Thoughts = append(s.Thoughts, g.thoughts[id].Record())
	}
	for _, tag := range g.Tags() {
		s.Tags = append(s.Tags, tag.Record())
	}
	return s
}

// Restore rebuilds a graph from a snapshot. Dangling references, unknown
// tags and duplicate ids are rejected as corrupt data.
func Restore(s Snapshot, cfg *config.DomainConfig, opts ...Option) (*Graph, error) {
	g := NewGraph(cfg, opts...)

	for _, rec := range s.Tags {
		id, err := valueobjects.ParseTagID(rec.ID.String())
		if err != nil || id != rec.ID {
			return nil, corrupt(fmt.Sprintf("invalid tag id %q", rec.ID), err)
		}
		if g.HasTag(id) {
			return nil, corrupt(fmt.Sprintf("duplicate tag %q", id), nil)
		}
		g.tags[id] = entities.ReconstructTag(rec)
	}

	for _, rec := range s.Thoughts {
		if !valueobjects.IsValidThoughtID(rec.ID.String()) {
			return nil, corrupt(fmt.Sprintf("invalid thought id %q", rec.ID), nil)
		}
		if g.HasThought(rec.ID) {
			return nil, corrupt(fmt.Sprintf("duplicate thought %q", rec.ID), nil)
		}
		for _, tag := range rec.Tags {
			if !g.HasTag(tag) {
				return nil, corrupt(fmt.Sprintf("thought %q holds unknown tag %q", rec.ID, tag), nil)
			}
		}
		thought, err := entities.ReconstructThought(rec, g.cfg)
		if err != nil {
			return nil, corrupt(fmt.Sprintf("thought %q", rec.ID), err)
		}
		g.thoughts[rec.ID] = thought
		for _, tag := range thought.Tags() {
			g.indexTag(tag, rec.ID)
		}
	}

	for _, rec := range s.References {
		switch {
		case rec.From == rec.To:
			return nil, corrupt(fmt.Sprintf("self reference on %q", rec.From), nil)
		case !g.HasThought(rec.From), !g.HasThought(rec.To):
			return nil, corrupt(fmt.Sprintf("dangling reference %s", rec.Key()), nil)
		}
		if _, dup := g.outgoing[rec.From][rec.To]; dup {
			return nil, corrupt(fmt.Sprintf("duplicate reference %s", rec.Key()), nil)
		}
		ref := rec
		g.link(&ref)
	}

	return g, nil
}

func corrupt(msg string, cause error) error {
	return pkgerrors.NewCorruptDataError(msg, cause)
}

// Checkpoint is a graph state that Rollback can return to
type Checkpoint struct {
	snapshot Snapshot
	version  int
}

// Checkpoint captures the current state and version
func (g *Graph) Checkpoint() Checkpoint {
	return Checkpoint{snapshot: g.Snapshot(), version: g.version}
}

// Rollback returns the graph to cp, discarding pending events. The graph
// keeps its instance, so it is still the graph a session holds.
func (g *Graph) Rollback(cp Checkpoint) error {
	restored, err := Restore(cp.snapshot, g.cfg, WithClock(g.clock))
	if err != nil {
		return fmt.Errorf("rollback to version %d: %w", cp.version, err)
	}
	g.thoughts = restored.thoughts
	g.tags = restored.tags
	g.outgoing = restored.outgoing
	g.incoming = restored.incoming
	g.tagUsage = restored.tagUsage
	g.version = cp.version
	g.events = nil
	return nil
}
