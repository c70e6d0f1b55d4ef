package services

import (
	"context"
	"errors"
	"sync"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
)

var (
	alice   = core.Actor{UserID: "alice", Email: "alice@example.com"}
	errDown = errors.New("connection refused")
)

// countingCategories wraps a gateway and counts calls.
type countingCategories struct {
	gateway.CategoryGateway
	mu      sync.Mutex
	inserts int
	listErr error
}

func (c *countingCategories) ListCategories(ctx context.Context, actor core.Actor) ([]core.Category, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.CategoryGateway.ListCategories(ctx, actor)
}

func (c *countingCategories) InsertCategory(ctx context.Context, actor core.Actor, cat core.Category) (core.Category, error) {
	c.mu.Lock()
	c.inserts++
	c.mu.Unlock()
	return c.CategoryGateway.InsertCategory(ctx, actor, cat)
}

type failingCategories struct{ err error }

func (f failingCategories) ListCategories(context.Context, core.Actor) ([]core.Category, error) {
	return nil, f.err
}

func (f failingCategories) InsertCategory(context.Context, core.Actor, core.Category) (core.Category, error) {
	return core.Category{}, f.err
}

func (f failingCategories) DeleteCategory(context.Context, core.Actor, string) error {
	return f.err
}

type failingTransactions struct{ err error }

func (f failingTransactions) ListTransactions(context.Context, core.Actor) ([]core.Transaction, error) {
	return nil, f.err
}

func (f failingTransactions) InsertTransaction(context.Context, core.Actor, core.Transaction) (core.Transaction, error) {
	return core.Transaction{}, f.err
}

func (f failingTransactions) UpdateTransaction(context.Context, core.Actor, string, core.TransactionInput) (core.Transaction, error) {
	return core.Transaction{}, f.err
}

func (f failingTransactions) DeleteTransaction(context.Context, core.Actor, string) error {
	return f.err
}

// recordingNotifier captures notifications in order.
type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Message: message, Severity: severity})
}

func (r *recordingNotifier) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}
	}
	return r.items[len(r.items)-1]
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []core.Change
	err     error
}

func (p *recordingPublisher) PublishChange(_ context.Context, c core.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return p.err
}
