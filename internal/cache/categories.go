package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
)

// Category cache defaults.
const (
	DefaultCategoryCacheSize = 512
	DefaultCategoryCacheTTL  = 30 * time.Second
)

// CategoryGateway caches each user's custom category list in front of
// another CategoryGateway. A successful insert or delete through it drops
// the user's entry; writes made elsewhere become visible after the TTL.
//
// Each user has a generation bumped by every write. A list fetched while a
// write completed is returned but never stored.
type CategoryGateway struct {
	next  gateway.CategoryGateway
	lists *LRUCache[[]core.Category]

	mu   sync.Mutex
	gens map[string]uint64
}

var _ gateway.CategoryGateway = (*CategoryGateway)(nil)

func NewCategoryGateway(next gateway.CategoryGateway, size int, ttl time.Duration) *CategoryGateway {
	return &CategoryGateway{
		next:  next,
		lists: NewLRUCache[[]core.Category](size, ttl),
		gens:  make(map[string]uint64),
	}
}

// Cache exposes the underlying list cache for registration with a Manager.
func (g *CategoryGateway) Cache() *LRUCache[[]core.Category] { return g.lists }

func (g *CategoryGateway) ListCategories(ctx context.Context, actor core.Actor) ([]core.Category, error) {
	if actor.Anonymous() {
		return g.next.ListCategories(ctx, actor)
	}
	if cats, ok := g.lists.Get(actor.UserID); ok {
		return slices.Clone(cats), nil
	}
	gen := g.generation(actor.UserID)
	cats, err := g.next.ListCategories(ctx, actor)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.gens[actor.UserID] == gen {
		g.lists.Set(actor.UserID, slices.Clone(cats))
	}
	g.mu.Unlock()
	return cats, nil
}

func (g *CategoryGateway) generation(userID string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[userID]
}

func (g *CategoryGateway) invalidate(userID string) {
	g.mu.Lock()
	g.gens[userID]++
	g.lists.Delete(userID)
	g.mu.Unlock()
}

func (g *CategoryGateway) InsertCategory(ctx context.Context, actor core.Actor, c core.Category) (core.Category, error) {
	out, err := g.next.InsertCategory(ctx, actor, c)
	if err == nil {
		g.invalidate(actor.UserID)
	}
	return out, err
}

func (g *CategoryGateway) DeleteCategory(ctx context.Context, actor core.Actor, id string) error {
	err := g.next.DeleteCategory(ctx, actor, id)
	if err == nil {
		g.invalidate(actor.UserID)
	}
	return err
}
