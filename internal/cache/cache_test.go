package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfbt/internal/core"
	"pfbt/internal/gateway/memory"
)

type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func withClock[T any](c *LRUCache[T], k *clock) *LRUCache[T] {
	c.now = k.now
	return c
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_Expiry(t *testing.T) {
	k := newClock()
	c := withClock(NewLRUCache[string](10, time.Minute), k)
	c.Set("a", "x")
	c.Set("b", "y")

	k.advance(30 * time.Second)
	c.Set("b", "z") // refreshes b's TTL

	k.advance(45 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "z", v)

	k.advance(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestManager(t *testing.T) {
	k := newClock()
	c := withClock(NewLRUCache[int](10, time.Second), k)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	k.advance(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()

	NewManager().Stop()
}

type countingGateway struct {
	*memory.Store
	lists int
	fail  error
}

func (g *countingGateway) ListCategories(ctx context.Context, actor core.Actor) ([]core.Category, error) {
	g.lists++
	if g.fail != nil {
		return nil, g.fail
	}
	return g.Store.ListCategories(ctx, actor)
}

func TestCategoryGateway(t *testing.T) {
	ctx := context.Background()
	actor := core.Actor{UserID: "u1"}
	inner := &countingGateway{Store: memory.New()}
	g := NewCategoryGateway(inner, 8, time.Minute)

	cats, err := g.ListCategories(ctx, actor)
	require.NoError(t, err)
	assert.Empty(t, cats)
	_, _ = g.ListCategories(ctx, actor)
	assert.Equal(t, 1, inner.lists, "second list should be served from cache")

	created, err := g.InsertCategory(ctx, actor, core.Category{UserID: "u1", Name: "Gym"})
	require.NoError(t, err)
	cats, err = g.ListCategories(ctx, actor)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, 2, inner.lists, "insert should invalidate")

	// Mutating the returned slice must not leak into the cache.
	cats[0].Name = "changed"
	cats, _ = g.ListCategories(ctx, actor)
	assert.Equal(t, "Gym", cats[0].Name)

	require.NoError(t, g.DeleteCategory(ctx, actor, created.ID))
	cats, _ = g.ListCategories(ctx, actor)
	assert.Empty(t, cats)
	assert.Equal(t, 3, inner.lists)

	// Other users have their own entry.
	_, _ = g.ListCategories(ctx, core.Actor{UserID: "u2"})
	assert.Equal(t, 4, inner.lists)
}

func TestCategoryGateway_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	actor := core.Actor{UserID: "u1"}
	inner := &countingGateway{Store: memory.New(), fail: errors.New("down")}
	g := NewCategoryGateway(inner, 8, time.Minute)

	_, err := g.ListCategories(ctx, actor)
	require.Error(t, err)
	inner.fail = nil
	_, err = g.ListCategories(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lists)
	assert.Equal(t, 1, g.Cache().Size())
}

// pausingGateway holds the first list call after it has read the rows.
type pausingGateway struct {
	*memory.Store
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *pausingGateway) ListCategories(ctx context.Context, actor core.Actor) ([]core.Category, error) {
	cats, err := g.Store.ListCategories(ctx, actor)
	g.once.Do(func() {
		close(g.read)
		<-g.release
	})
	return cats, err
}

func TestCategoryGateway_WriteDuringListIsNotMasked(t *testing.T) {
	ctx := context.Background()
	actor := core.Actor{UserID: "u1"}
	inner := &pausingGateway{Store: memory.New(), read: make(chan struct{}), release: make(chan struct{})}
	g := NewCategoryGateway(inner, 8, time.Minute)

	done := make(chan []core.Category)
	go func() {
		cats, _ := g.ListCategories(ctx, actor)
		done <- cats
	}()

	<-inner.read
	_, err := g.InsertCategory(ctx, actor, core.Category{UserID: "u1", Name: "Gym"})
	require.NoError(t, err)
	close(inner.release)
	assert.Empty(t, <-done, "the slow list read before the insert")

	cats, err := g.ListCategories(ctx, actor)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Gym", cats[0].Name)
}
