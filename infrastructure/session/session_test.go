package session

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"thoughtgraph/application/commands"
	cbus "thoughtgraph/application/commands/bus"
	chandlers "thoughtgraph/application/commands/handlers"
	"thoughtgraph/application/queries"
	qbus "thoughtgraph/application/queries/bus"
	qhandlers "thoughtgraph/application/queries/handlers"
	"thoughtgraph/domain/config"
	"thoughtgraph/domain/core/aggregates"
	"thoughtgraph/domain/core/entities"
	"thoughtgraph/domain/core/valueobjects"
	"thoughtgraph/infrastructure/persistence/filestore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	repo    *filestore.GraphRepository
	session *Session
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, queryMiddlewares ...qbus.Middleware) *harness {
	t.Helper()
	ctx := context.Background()
	cfg := config.DefaultDomainConfig()

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	repo := filestore.NewGraphRepository(filepath.Join(t.TempDir(), "thoughts.bin"), logger)
	_, err := repo.Init(ctx, cfg, false)
	require.NoError(t, err)

	commandBus := cbus.NewCommandBus(cbus.EventsMiddleware())
	require.NoError(t, chandlers.RegisterAll(commandBus, logger))
	queryBus := qbus.NewQueryBus(queryMiddlewares...)
	require.NoError(t, qhandlers.RegisterAll(queryBus, logger))

	s, err := Open(ctx, repo, cfg, commandBus, queryBus, logger)
	require.NoError(t, err)
	return &harness{repo: repo, session: s, logs: logs}
}

// writeExternally saves a graph with the given thoughts, as another process would
func (h *harness) writeExternally(t *testing.T, ids ...string) {
	t.Helper()
	g := aggregates.NewGraph(config.DefaultDomainConfig())
	for _, id := range ids {
		_, err := g.CreateThought(aggregates.NewThoughtParams{ID: valueobjects.ThoughtID(id)})
		require.NoError(t, err)
	}
	other := filestore.NewGraphRepository(h.repo.Path(), zap.NewNop())
	require.NoError(t, other.Save(context.Background(), g))
}

func (h *harness) thoughtCount(t *testing.T) int {
	t.Helper()
	list, err := h.session.Ask(context.Background(), queries.ListThoughtsQuery{})
	require.NoError(t, err)
	return len(list.([]*entities.Thought))
}

func TestSession_ExecuteSaveReload(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.session.Execute(ctx, commands.CreateThoughtCommand{ID: "a", Content: "hello"})
	require.NoError(t, err)
	assert.True(t, h.session.Dirty())

	require.NoError(t, h.session.Save(ctx))
	assert.False(t, h.session.Dirty())

	_, err = h.session.Execute(ctx, commands.CreateThoughtCommand{ID: "b"})
	require.NoError(t, err)
	require.NoError(t, h.session.Reload(ctx))
	assert.False(t, h.session.Dirty())

	got, err := h.session.Ask(ctx, queries.ListThoughtsQuery{})
	require.NoError(t, err)
	assert.Len(t, got, 1, "unsaved thought b is discarded by reload")
}

// mapCache never expires entries, so only the key can tell two states apart
type mapCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func (c *mapCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func TestSession_ReloadBypassesCachedResults(t *testing.T) {
	cache := &mapCache{items: map[string]interface{}{}}
	h := newHarness(t, qbus.NewCachingMiddleware(cache, 3600, nil))
	ctx := context.Background()

	for round := 1; round <= 5; round++ {
		ids := make([]string, round)
		for i := range ids {
			ids[i] = fmt.Sprintf("t%d", i)
		}
		// each external write leaves the store at the same version
		h.writeExternally(t, ids...)
		require.NoError(t, h.session.Reload(ctx))
		runtime.GC()
		assert.Equal(t, round, h.thoughtCount(t), "round %d", round)
	}

	_, err := h.session.Execute(ctx, commands.CreateThoughtCommand{ID: "local"})
	require.NoError(t, err)
	assert.Equal(t, 6, h.thoughtCount(t))
}

func TestSession_NoOpCommandStaysClean(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.session.Execute(ctx, commands.RescanReferencesCommand{})
	require.NoError(t, err)
	assert.False(t, h.session.Dirty())

	_, err = h.session.Execute(ctx, commands.DeleteThoughtCommand{ID: "ghost"})
	require.Error(t, err)
	assert.False(t, h.session.Dirty())
}

func TestWatcher_ReloadsExternalChanges(t *testing.T) {
	h := newHarness(t)

	var reloads atomic.Int32
	w, err := h.session.Watch(20*time.Millisecond, func(int) { reloads.Add(1) })
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	h.writeExternally(t, "x", "y")

	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, h.thoughtCount(t))
}

func TestWatcher_IgnoresOwnSaves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var reloads atomic.Int32
	w, err := h.session.Watch(20*time.Millisecond, func(int) { reloads.Add(1) })
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	_, err = h.session.Execute(ctx, commands.CreateThoughtCommand{ID: "mine"})
	require.NoError(t, err)
	require.NoError(t, h.session.Save(ctx))

	assert.Never(t, func() bool { return reloads.Load() > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestWatcher_KeepsUnsavedChanges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	w, err := h.session.Watch(20*time.Millisecond, nil)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	_, err = h.session.Execute(ctx, commands.CreateThoughtCommand{ID: "pending"})
	require.NoError(t, err)
	h.writeExternally(t, "theirs-1", "theirs-2", "theirs-3")

	require.Eventually(t, func() bool {
		return h.logs.FilterMessageSnippet("unsaved changes").Len() > 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, h.session.Dirty())
	assert.Equal(t, 1, h.thoughtCount(t))
}
