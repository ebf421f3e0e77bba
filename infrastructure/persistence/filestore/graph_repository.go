// Package filestore keeps a graph in a single file written by the codec.
package filestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"thoughtgraph/application/ports"
	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/aggregates"
	"thoughtgraph/infrastructure/persistence/codec"
	pkgerrors "thoughtgraph/pkg/errors"
)

// GraphRepository implements ports.GraphRepository on one file
type GraphRepository struct {
	path   string
	logger *zap.Logger
	opts   []aggregates.Option
}

var _ ports.GraphRepository = (*GraphRepository)(nil)

// NewGraphRepository creates a repository for the store at path. opts are
// passed to every graph it loads or creates.
func NewGraphRepository(path string, logger *zap.Logger, opts ...aggregates.Option) *GraphRepository {
	return &GraphRepository{
		path:   path,
		logger: logger.With(zap.String("store", path)),
		opts:   opts,
	}
}

// Path returns the store location
func (r *GraphRepository) Path() string {
	return r.path
}

// Exists reports whether the store file is present
func (r *GraphRepository) Exists() (bool, error) {
	_, err := os.Stat(r.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, pkgerrors.NewIOError("stat store", err)
	}
}

// Stat returns the store's file info
func (r *GraphRepository) Stat() (fs.FileInfo, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return nil, pkgerrors.NewIOError("stat store", err)
	}
	return info, nil
}

// Load reads and decodes the whole store
func (r *GraphRepository) Load(ctx context.Context, cfg *config.DomainConfig) (*aggregates.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, pkgerrors.NewNotFoundError("store", r.path).
			WithDetail("hint", "run 'thoughts init' to create it")
	}
	if err != nil {
		return nil, pkgerrors.NewIOError("read store", err)
	}

	graph, err := codec.DecodeGraph(data, cfg, r.opts...)
	if err != nil {
		r.logger.Warn("Store could not be decoded", zap.Int("bytes", len(data)), zap.Error(err))
		return nil, err
	}

	r.logger.Debug("Store loaded",
		zap.Int("bytes", len(data)),
		zap.Int("thoughts", graph.ThoughtCount()),
		zap.Int("references", graph.ReferenceCount()),
	)
	return graph, nil
}

// Save encodes the graph and replaces the store atomically: the bytes go
// to a temp file in the same directory, are synced, then renamed over the
// store.
func (r *GraphRepository) Save(ctx context.Context, graph *aggregates.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := codec.EncodeGraph(graph)
	if err != nil {
		return err
	}
	if err := r.writeAtomic(data); err != nil {
		return err
	}

	r.logger.Debug("Store saved",
		zap.Int("bytes", len(data)),
		zap.Int("version", graph.Version()),
	)
	return nil
}

// Init writes an empty store
func (r *GraphRepository) Init(ctx context.Context, cfg *config.DomainConfig, force bool) (*aggregates.Graph, error) {
	exists, err := r.Exists()
	if err != nil {
		return nil, err
	}
	if exists && !force {
		return nil, pkgerrors.NewDuplicateIDError("store", r.path).
			WithDetail("hint", "use --force to overwrite")
	}

	graph := aggregates.NewGraph(cfg, r.opts...)
	if err := r.Save(ctx, graph); err != nil {
		return nil, err
	}
	r.logger.Info("Store initialised", zap.Bool("overwritten", exists))
	return graph, nil
}

func (r *GraphRepository) writeAtomic(data []byte) (err error) {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return pkgerrors.NewIOError("create store directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return pkgerrors.NewIOError("create temp file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return pkgerrors.NewIOError("write store", err)
	}
	if err = tmp.Sync(); err != nil {
		return pkgerrors.NewIOError("sync store", err)
	}
	if err = tmp.Close(); err != nil {
		return pkgerrors.NewIOError("close store", err)
	}
	if err = os.Rename(tmpPath, r.path); err != nil {
		return pkgerrors.NewIOError("replace store", err)
	}
	return nil
}
