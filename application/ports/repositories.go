package ports

import (
	"context"

	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/aggregates"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
)

// GraphReader is the read side of a graph. Queries depend on it rather than
// on the aggregate so they cannot mutate.
type GraphReader interface {
	// Instance is unique per graph value; (Instance, Version) names one state
	Instance() uint64
	// Version changes on every successful mutation
	Version() int

	Thought(id valueobjects.ThoughtID) (*entities.Thought, error)
	HasThought(id valueobjects.ThoughtID) bool
	Thoughts() []*entities.Thought
	ThoughtCount() int

	Tag(id valueobjects.TagID) (*entities.Tag, error)
	HasTag(id valueobjects.TagID) bool
	Tags() []*entities.Tag
	ThoughtsWithTag(tag valueobjects.TagID) []valueobjects.ThoughtID
	TagUsageCount(tag valueobjects.TagID) int

	Outgoing(id valueobjects.ThoughtID) ([]entities.Reference, error)
	Incoming(id valueobjects.ThoughtID) ([]entities.Reference, error)
	References() []entities.Reference
	ReferenceCount() int
}

var _ GraphReader = (*aggregates.Graph)(nil)

// GraphRepository loads and saves a whole graph as one unit
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type GraphRepository interface {
	// Load reads the store. A missing file is NOT_FOUND.
	Load(ctx context.Context, cfg *config.DomainConfig) (*aggregates.Graph, error)

	// Save replaces the store atomically
	Save(ctx context.Context, graph *aggregates.Graph) error

	// Init writes an empty store. It fails with DUPLICATE_ID when the file
	// exists and force is false.
	Init(ctx context.Context, cfg *config.DomainConfig, force bool) (*aggregates.Graph, error)

	// Exists reports whether the store file is present
	Exists() (bool, error)

	// Path returns the store location
	Path() string
}

// Cache defines the interface for caching query results
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
