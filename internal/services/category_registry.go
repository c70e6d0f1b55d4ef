package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
)

// CategoryRegistry merges built-in categories with the actor's custom ones.
type CategoryRegistry struct {
	gw        gateway.CategoryGateway
	notifier  Notifier
	publisher ChangePublisher
	now       func() time.Time
}

func NewCategoryRegistry(gw gateway.CategoryGateway, notifier Notifier, publisher ChangePublisher) *CategoryRegistry {
	if notifier == nil {
		notifier = ContextNotifier{}
	}
	return &CategoryRegistry{
		gw:        gw,
		notifier:  notifier,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListCategories returns built-ins followed by custom names in fetch order.
// A failed fetch degrades to built-ins only.
func (r *CategoryRegistry) ListCategories(ctx context.Context, actor core.Actor) []string {
	custom, err := r.gw.ListCategories(ctx, actor)
	if err != nil {
		r.notifier.Notify(ctx, MsgFetchCategoriesFailed, SeverityError)
		return core.MergeCategories(nil)
	}
	return core.MergeCategories(custom)
}

// ListCustom returns only the persisted categories.
func (r *CategoryRegistry) ListCustom(ctx context.Context, actor core.Actor) ([]core.Category, error) {
	custom, err := r.gw.ListCategories(ctx, actor)
	if err != nil {
		r.notifier.Notify(ctx, MsgFetchCategoriesFailed, SeverityError)
		return nil, fmt.Errorf("%w: list categories: %w", core.ErrPersistence, err)
	}
	return custom, nil
}

// CreateCategory stores a custom category. Names equal to a built-in are
// refused without touching the gateway.
func (r *CategoryRegistry) CreateCategory(ctx context.Context, actor core.Actor, name string) (core.Category, error) {
	if core.IsBuiltin(name) {
		r.notifier.Notify(ctx, MsgCategoryBuiltin, SeverityError)
		return core.Category{}, fmt.Errorf("%q: %w", name, core.ErrBuiltinCategory)
	}

	c, err := r.gw.InsertCategory(ctx, actor, core.Category{UserID: actor.UserID, Name: name})
	switch {
	case errors.Is(err, gateway.ErrUniqueViolation):
		r.notifier.Notify(ctx, MsgCategoryExists, SeverityError)
		return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrAlreadyExists)
	case err != nil:
		r.notifier.Notify(ctx, MsgCategoryAddFailed, SeverityError)
		return core.Category{}, fmt.Errorf("%w: insert category %q: %w", core.ErrPersistence, name, err)
	}

	r.notifier.Notify(ctx, MsgCategoryAdded, SeveritySuccess)
	publishChange(ctx, r.publisher, core.Change{
		Entity:   core.EntityCategory,
		Op:       core.OpCreate,
		EntityID: c.ID,
		UserID:   c.UserID,
		Summary:  c.Name,
		At:       r.now(),
	})
	return c, nil
}

// DeleteCategory removes a custom category. Transactions that still name it
// are left as they are.
func (r *CategoryRegistry) DeleteCategory(ctx context.Context, actor core.Actor, id string) error {
	if err := r.gw.DeleteCategory(ctx, actor, id); err != nil {
		r.notifier.Notify(ctx, MsgCategoryDeleteFailed, SeverityError)
		return fmt.Errorf("%w: delete category %s: %w", core.ErrPersistence, id, err)
	}
	r.notifier.Notify(ctx, MsgCategoryDeleted, SeveritySuccess)
	publishChange(ctx, r.publisher, core.Change{
		Entity:   core.EntityCategory,
		Op:       core.OpDelete,
		EntityID: id,
		UserID:   actor.UserID,
		At:       r.now(),
	})
	return nil
}
