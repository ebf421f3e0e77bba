package commands

import (
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/events"
)

// Result is what a successful command produced
type Result struct {
	Thought   *entities.Thought
	Tag       *entities.Tag
	Reference *entities.Reference

	// Events recorded by the graph while the command ran
	Events []events.DomainEvent
	// Version is the graph version after the command
	Version int
}

// Changed reports whether the command mutated the graph
func (r *Result) Changed() bool {
	return len(r.Events) > 0
}

// AutoReferences returns the auto references added and removed
func (r *Result) AutoReferences() (added, removed []entities.ReferenceKey) {
	for _, e := range r.Events {
		switch ev := e.(type) {
		case events.ReferenceAdded:
			if ev.Auto {
				added = append(added, entities.ReferenceKey{From: ev.From, To: ev.To})
			}
		case events.ReferenceRemoved:
			if ev.Auto {
				removed = append(removed, entities.ReferenceKey{From: ev.From, To: ev.To})
			}
		}
	}
	return added, removed
}

// CreatedTags returns the tags created as a side effect of the command
func (r *Result) CreatedTags() []string {
	var out []string
	for _, e := range r.Events {
		if ev, ok := e.(events.TagCreated); ok && ev.Implicit {
			out = append(out, ev.TagID.String())
		}
	}
	return out
}
