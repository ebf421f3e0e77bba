package aggregates

import (
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	"thoughtgraph/domain/events"
	pkgerrors "thoughtgraph/pkg/errors"
)

// Graph is the aggregate root for a thought store.
// It owns every thought, tag and reference and keeps the derived indices
// (reverse references, tag usage) consistent with them.
type Graph struct {
	cfg      *config.DomainConfig
	clock    func() time.Time
	instance uint64

	thoughts map[valueobjects.ThoughtID]*entities.Thought
	tags     map[valueobjects.TagID]*entities.Tag

	// outgoing and incoming share *Reference values and are only
	// modified through link and unlink.
	outgoing map[valueobjects.ThoughtID]map[valueobjects.ThoughtID]*entities.Reference
	incoming map[valueobjects.ThoughtID]map[valueobjects.ThoughtID]*entities.Reference

	tagUsage map[valueobjects.TagID]map[valueobjects.ThoughtID]struct{}

	version int
	events  []events.DomainEvent
}

// instances numbers every graph created in this process
var instances atomic.Uint64

// Option configures a Graph
type Option func(*Graph)

// WithClock overrides the time source used for timestamps
func WithClock(clock func() time.Time) Option {
	return func(g *Graph) {
		g.clock = clock
	}
}

// NewGraph creates an empty graph
func NewGraph(cfg *config.DomainConfig, opts ...Option) *Graph {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	g := &Graph{
		cfg:      cfg,
		clock:    func() time.Time { return time.Now().UTC() },
		instance: instances.Add(1),
		thoughts: make(map[valueobjects.ThoughtID]*entities.Thought),
		tags:     make(map[valueobjects.TagID]*entities.Tag),
		outgoing: make(map[valueobjects.ThoughtID]map[valueobjects.ThoughtID]*entities.Reference),
		incoming: make(map[valueobjects.ThoughtID]map[valueobjects.ThoughtID]*entities.Reference),
		tagUsage: make(map[valueobjects.TagID]map[valueobjects.ThoughtID]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the domain rules the graph enforces
func (g *Graph) Config() *config.DomainConfig {
	return g.cfg
}

// Instance identifies this graph among every graph created by the process.
// A reloaded store gets a new instance even though its version restarts at 0.
func (g *Graph) Instance() uint64 {
	return g.instance
}

// Version increases by one with every successful mutation
func (g *Graph) Version() int {
	return g.version
}

// DrainEvents returns and clears the recorded domain events
func (g *Graph) DrainEvents() []events.DomainEvent {
	drained := g.events
	g.events = nil
	return drained
}

// Reads

// Thought returns a copy of the thought with the given id
func (g *Graph) Thought(id valueobjects.ThoughtID) (*entities.Thought, error) {
	t, ok := g.thoughts[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("thought", id.String())
	}
	return t.Clone(), nil
}

// HasThought reports whether a thought exists
func (g *Graph) HasThought(id valueobjects.ThoughtID) bool {
	_, ok := g.thoughts[id]
	return ok
}

// Thoughts returns copies of all thoughts ordered by id
func (g *Graph) Thoughts() []*entities.Thought {
	out := make([]*entities.Thought, 0, len(g.thoughts))
	for _, id := range g.sortedThoughtIDs() {
		out = append(out, g.thoughts[id].Clone())
	}
	return out
}

// ThoughtCount returns the number of thoughts
func (g *Graph) ThoughtCount() int {
	return len(g.thoughts)
}

// Tag returns a copy of the tag with the given id
func (g *Graph) Tag(id valueobjects.TagID) (*entities.Tag, error) {
	t, ok := g.tags[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("tag", id.String())
	}
	return t.Clone(), nil
}

// HasTag reports whether a tag exists
func (g *Graph) HasTag(id valueobjects.TagID) bool {
	_, ok := g.tags[id]
	return ok
}

// Tags returns copies of all tags ordered by id
func (g *Graph) Tags() []*entities.Tag {
	ids := make([]valueobjects.TagID, 0, len(g.tags))
	for id := range g.tags {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*entities.Tag, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.tags[id].Clone())
	}
	return out
}

// ThoughtsWithTag returns the ids of thoughts holding the tag, ordered by id.
// An unknown tag yields an empty list.
func (g *Graph) ThoughtsWithTag(tag valueobjects.TagID) []valueobjects.ThoughtID {
	return sortedIDs(g.tagUsage[tag])
}

// TagUsageCount returns how many thoughts hold the tag
func (g *Graph) TagUsageCount(tag valueobjects.TagID) int {
	return len(g.tagUsage[tag])
}

// Outgoing returns the references whose source is id, ordered by target
func (g *Graph) Outgoing(id valueobjects.ThoughtID) ([]entities.Reference, error) {
	if !g.HasThought(id) {
		return nil, pkgerrors.NewNotFoundError("thought", id.String())
	}
	return copyRefs(g.outgoing[id]), nil
}

// Incoming returns the references whose target is id, ordered by source
func (g *Graph) Incoming(id valueobjects.ThoughtID) ([]entities.Reference, error) {
	if !g.HasThought(id) {
		return nil, pkgerrors.NewNotFoundError("thought", id.String())
	}
	return copyRefs(g.incoming[id]), nil
}

// Reference returns the edge from -> to
func (g *Graph) Reference(from, to valueobjects.ThoughtID) (entities.Reference, error) {
	ref, ok := g.outgoing[from][to]
	if !ok {
		return entities.Reference{}, pkgerrors.NewNotFoundError("reference", entities.ReferenceKey{From: from, To: to}.String())
	}
	return *ref, nil
}

// References returns every edge ordered by (from, to)
func (g *Graph) References() []entities.Reference {
	out := make([]entities.Reference, 0, g.ReferenceCount())
	for _, from := range g.sortedThoughtIDs() {
		out = append(out, copyRefs(g.outgoing[from])...)
	}
	return out
}

// ReferenceCount returns the number of edges
func (g *Graph) ReferenceCount() int {
	n := 0
	for _, refs := range g.outgoing {
		n += len(refs)
	}
	return n
}

// Validate checks every structural invariant of the graph
func (g *Graph) Validate() error {
	forward := 0
	for from, refs := range g.outgoing {
		if _, ok := g.thoughts[from]; !ok {
			return invariantError("outgoing index holds unknown source %s", from)
		}
		for to, ref := range refs {
			forward++
			if ref.From != from || ref.To != to {
				return invariantError("reference %s indexed under %s -> %s", ref.Key(), from, to)
			}
			if from == to {
				return invariantError("self reference on %s", from)
			}
			if _, ok := g.thoughts[to]; !ok {
				return invariantError("reference %s points to unknown thought", ref.Key())
			}
			if g.incoming[to][from] != ref {
				return invariantError("reference %s missing from reverse index", ref.Key())
			}
		}
	}

	reverse := 0
	for to, refs := range g.incoming {
		if _, ok := g.thoughts[to]; !ok {
			return invariantError("incoming index holds unknown target %s", to)
		}
		for from, ref := range refs {
			reverse++
			if g.outgoing[from][to] != ref {
				return invariantError("reverse entry %s -> %s has no forward reference", from, to)
			}
		}
	}
	if forward != reverse {
		return invariantError("forward index has %d references, reverse has %d", forward, reverse)
	}

	usage := 0
	for id, t := range g.thoughts {
		if t.ID() != id {
			return invariantError("thought %s indexed as %s", t.ID(), id)
		}
		for _, tag := range t.Tags() {
			if _, ok := g.tags[tag]; !ok {
				return invariantError("thought %s holds unknown tag %s", id, tag)
			}
			if _, ok := g.tagUsage[tag][id]; !ok {
				return invariantError("tag usage for %s is missing thought %s", tag, id)
			}
			usage++
		}
	}
	for tag, holders := range g.tagUsage {
		if _, ok := g.tags[tag]; !ok {
			return invariantError("tag usage holds unknown tag %s", tag)
		}
		for id := range holders {
			t, ok := g.thoughts[id]
			if !ok || !t.HasTag(tag) {
				return invariantError("tag usage for %s lists %s which does not hold it", tag, id)
			}
			usage--
		}
	}
	if usage != 0 {
		return invariantError("tag usage view is out of sync with thought tag sets")
	}
	return nil
}

// Private helpers

// link stores ref in both index directions
func (g *Graph) link(ref *entities.Reference) {
	if g.outgoing[ref.From] == nil {
		g.outgoing[ref.From] = make(map[valueobjects.ThoughtID]*entities.Reference)
	}
	if g.incoming[ref.To] == nil {
		g.incoming[ref.To] = make(map[valueobjects.ThoughtID]*entities.Reference)
	}
	g.outgoing[ref.From][ref.To] = ref
	g.incoming[ref.To][ref.From] = ref
}

// unlink removes the edge from -> to from both index directions
func (g *Graph) unlink(from, to valueobjects.ThoughtID) *entities.Reference {
	ref, ok := g.outgoing[from][to]
	if !ok {
		return nil
	}
	delete(g.outgoing[from], to)
	if len(g.outgoing[from]) == 0 {
		delete(g.outgoing, from)
	}
	delete(g.incoming[to], from)
	if len(g.incoming[to]) == 0 {
		delete(g.incoming, to)
	}
	return ref
}

func (g *Graph) indexTag(tag valueobjects.TagID, id valueobjects.ThoughtID) {
	if g.tagUsage[tag] == nil {
		g.tagUsage[tag] = make(map[valueobjects.ThoughtID]struct{})
	}
	g.tagUsage[tag][id] = struct{}{}
}

func (g *Graph) unindexTag(tag valueobjects.TagID, id valueobjects.ThoughtID) {
	delete(g.tagUsage[tag], id)
	if len(g.tagUsage[tag]) == 0 {
		delete(g.tagUsage, tag)
	}
}

// bump advances the version; events recorded afterwards carry the new value
func (g *Graph) bump() {
	g.version++
}

func (g *Graph) record(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func (g *Graph) sortedThoughtIDs() []valueobjects.ThoughtID {
	return sortedIDs(g.thoughts)
}

func sortedIDs[V any](m map[valueobjects.ThoughtID]V) []valueobjects.ThoughtID {
	ids := make([]valueobjects.ThoughtID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func copyRefs(m map[valueobjects.ThoughtID]*entities.Reference) []entities.Reference {
	out := make([]entities.Reference, 0, len(m))
	for _, id := range sortedIDs(m) {
		out = append(out, *m[id])
	}
	return out
}

func invariantError(format string, args ...interface{}) error {
	return pkgerrors.NewInternalError("graph invariant violated: " + fmt.Sprintf(format, args...))
}
