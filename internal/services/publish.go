package services

import (
	"context"
	"log/slog"

	"pfbt/internal/core"
)

// ChangePublisher forwards successful mutations to the change feed.
type ChangePublisher interface {
	PublishChange(ctx context.Context, c core.Change) error
}

// publishChange never fails the caller: the mutation is already stored.
func publishChange(ctx context.Context, p ChangePublisher, c core.Change) {
	if p == nil {
		slog.DebugContext(ctx, "Change publisher not available, skipping change message",
			"entity", c.Entity, "op", c.Op)
		return
	}
	if err := p.PublishChange(ctx, c); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"entity", c.Entity,
			"op", c.Op,
			"id", c.EntityID,
			"error", err)
	}
}
