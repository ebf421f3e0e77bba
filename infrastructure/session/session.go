// Package session holds a loaded graph across several operations and keeps
// it in step with the store file.
package session

import (
	"context"
	"io/fs"
	"sync"
	"time"

	"go.uber.org/zap"

	"thoughtgraph/application/commands"
	cbus "thoughtgraph/application/commands/bus"
	"thoughtgraph/application/ports"
	qbus "thoughtgraph/application/queries/bus"
	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/aggregates"
)

// Store is the repository a session reads and writes
type Store interface {
	ports.GraphRepository
	Stat() (fs.FileInfo, error)
}

// stamp identifies a version of the store file on disk
type stamp struct {
	modTime time.Time
	size    int64
}

func stampOf(info fs.FileInfo) stamp {
	return stamp{modTime: info.ModTime(), size: info.Size()}
}

// Session serialises access to one graph: commands take the write lock,
// queries share the read lock.
type Session struct {
	mu sync.RWMutex

	store    Store
	cfg      *config.DomainConfig
	commands *cbus.CommandBus
	queries  *qbus.QueryBus
	logger   *zap.Logger

	graph *aggregates.Graph
	dirty bool
	disk  stamp
}

// Open loads the store and returns a session over it
func Open(ctx context.Context, store Store, cfg *config.DomainConfig, commands *cbus.CommandBus, queries *qbus.QueryBus, logger *zap.Logger) (*Session, error) {
	s := &Session{
		store:    store,
		cfg:      cfg,
		commands: commands,
		queries:  queries,
		logger:   logger.Named("session"),
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Execute applies one command. The graph is marked dirty when it changed.
func (s *Session) Execute(ctx context.Context, cmd cbus.Command) (*commands.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.commands.Send(ctx, s.graph, cmd)
	if err != nil {
		return nil, err
	}
	if result.Changed() {
		s.dirty = true
	}
	return result, nil
}

// Ask answers one query
func (s *Session) Ask(ctx context.Context, query qbus.Query) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queries.Ask(ctx, s.graph, query)
}

// Save writes the graph if it has unsaved changes
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	if err := s.store.Save(ctx, s.graph); err != nil {
		return err
	}
	s.dirty = false
	s.remember()
	return nil
}

// Reload discards the in-memory graph and reads the store again
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Dirty reports whether there are unsaved changes
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// Version returns the in-memory graph version
func (s *Session) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Version()
}

// Path returns the store location
func (s *Session) Path() string {
	return s.store.Path()
}

// load replaces the graph from disk. Callers hold the write lock.
func (s *Session) load(ctx context.Context) error {
	graph, err := s.store.Load(ctx, s.cfg)
	if err != nil {
		return err
	}
	s.graph = graph
	s.dirty = false
	s.remember()
	return nil
}

// remember records the file as this session last saw it
func (s *Session) remember() {
	info, err := s.store.Stat()
	if err != nil {
		s.logger.Warn("Could not stat store", zap.Error(err))
		s.disk = stamp{}
		return
	}
	s.disk = stampOf(info)
}

// reloadIfChanged picks up changes made to the file by someone else.
// It reports whether the graph was replaced.
func (s *Session) reloadIfChanged(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.store.Stat()
	if err != nil {
		return false, err
	}
	if stampOf(info) == s.disk {
		return false, nil
	}
	if s.dirty {
		s.logger.Warn("Store changed on disk while there are unsaved changes; keeping the in-memory graph",
			zap.String("path", s.store.Path()),
		)
		return false, nil
	}
	if err := s.load(ctx); err != nil {
		return false, err
	}
	return true, nil
}
