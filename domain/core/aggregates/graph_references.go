package aggregates

import (
	"fmt"
	"time"
	"unicode/utf8"

	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	"thoughtgraph/domain/events"
	"thoughtgraph/domain/services/autoref"
	pkgerrors "thoughtgraph/pkg/errors"
)

// AutoSync lists the auto references changed by a content scan
type AutoSync struct {
	Added   []entities.ReferenceKey
	Removed []entities.ReferenceKey
}

// Changed reports whether the scan touched any edge
func (s AutoSync) Changed() bool {
	return len(s.Added) > 0 || len(s.Removed) > 0
}

// AddReference creates a manual edge from -> to. Calling it again for the
// same pair replaces the notes; an auto edge is taken over as manual.
func (g *Graph) AddReference(from, to valueobjects.ThoughtID, notes string) (entities.Reference, error) {
	if from == to {
		return entities.Reference{}, pkgerrors.NewSelfReferenceError(from.String())
	}
	if !g.HasThought(from) {
		return entities.Reference{}, pkgerrors.NewNotFoundError("thought", from.String())
	}
	if !g.HasThought(to) {
		return entities.Reference{}, pkgerrors.NewNotFoundError("thought", to.String())
	}
	if n := utf8.RuneCountInString(notes); n > g.cfg.MaxNotesLength {
		return entities.Reference{}, pkgerrors.NewValidationError(
			fmt.Sprintf("notes exceed maximum length of %d characters", g.cfg.MaxNotesLength),
		).WithDetail("actual_length", n)
	}

	if ref, ok := g.outgoing[from][to]; ok {
		if !ref.Auto && ref.Notes == notes {
			return *ref, nil
		}
		now := g.clock()
		g.bump()
		wasAuto := ref.Auto
		ref.Notes = notes
		ref.Auto = false
		g.record(events.NewReferenceUpdated(from, to, notes, wasAuto, now, g.version))
		return *ref, nil
	}

	now := g.clock()
	g.bump()
	ref := &entities.Reference{From: from, To: to, Notes: notes, CreatedAt: now}
	g.link(ref)
	g.record(events.NewReferenceAdded(from, to, notes, false, now, g.version))
	return *ref, nil
}

// RemoveReference deletes the edge from -> to, manual or auto
func (g *Graph) RemoveReference(from, to valueobjects.ThoughtID) error {
	if _, ok := g.outgoing[from][to]; !ok {
		return pkgerrors.NewNotFoundError("reference", entities.ReferenceKey{From: from, To: to}.String())
	}

	now := g.clock()
	g.bump()
	ref := g.unlink(from, to)
	g.record(events.NewReferenceRemoved(from, to, ref.Auto, now, g.version))
	return nil
}

// RescanReferences re-derives auto references from content for one thought,
// or for every thought when id is zero. It picks up mentions of thoughts
// created after the mentioning thought.
func (g *Graph) RescanReferences(id valueobjects.ThoughtID) (AutoSync, error) {
	targets := []valueobjects.ThoughtID{id}
	if id.IsZero() {
		targets = g.sortedThoughtIDs()
	} else if !g.HasThought(id) {
		return AutoSync{}, pkgerrors.NewNotFoundError("thought", id.String())
	}

	plans := make(map[valueobjects.ThoughtID]autoref.SyncPlan, len(targets))
	for _, t := range targets {
		if plan := g.planAutoReferences(t); !plan.IsEmpty() {
			plans[t] = plan
		}
	}
	if len(plans) == 0 {
		return AutoSync{}, nil
	}

	now := g.clock()
	g.bump()
	var total AutoSync
	for _, t := range targets {
		plan, ok := plans[t]
		if !ok {
			continue
		}
		s := g.applyAutoPlan(t, plan, now)
		total.Added = append(total.Added, s.Added...)
		total.Removed = append(total.Removed, s.Removed...)
	}
	return total, nil
}

// syncAutoReferences brings id's auto edges in line with its content.
// Callers bump the version before calling it.
func (g *Graph) syncAutoReferences(id valueobjects.ThoughtID, now time.Time) AutoSync {
	return g.applyAutoPlan(id, g.planAutoReferences(id), now)
}

func (g *Graph) planAutoReferences(id valueobjects.ThoughtID) autoref.SyncPlan {
	auto := make(map[valueobjects.ThoughtID]struct{})
	manual := make(map[valueobjects.ThoughtID]struct{})
	for to, ref := range g.outgoing[id] {
		if ref.Auto {
			auto[to] = struct{}{}
		} else {
			manual[to] = struct{}{}
		}
	}
	mentions := autoref.ExtractMentions(g.thoughts[id].Body())
	return autoref.Plan(id, mentions, auto, manual, g.HasThought)
}

func (g *Graph) applyAutoPlan(id valueobjects.ThoughtID, plan autoref.SyncPlan, now time.Time) AutoSync {
	var s AutoSync
	for _, to := range plan.Remove {
		g.unlink(id, to)
		g.record(events.NewReferenceRemoved(id, to, true, now, g.version))
		s.Removed = append(s.Removed, entities.ReferenceKey{From: id, To: to})
	}
	for _, to := range plan.Add {
		g.link(&entities.Reference{From: id, To: to, Auto: true, CreatedAt: now})
		g.record(events.NewReferenceAdded(id, to, "", true, now, g.version))
		s.Added = append(s.Added, entities.ReferenceKey{From: id, To: to})
	}
	return s
}
