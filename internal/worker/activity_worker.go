package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"pfbt/internal/amqp"
	"pfbt/internal/gateway"
)

// ActivityWorker records change-feed messages into the activity log.
type ActivityWorker struct {
	recorder gateway.ActivityRecorder

	processed atomic.Int64
	skipped   atomic.Int64
}

func NewActivityWorker(recorder gateway.ActivityRecorder) *ActivityWorker {
	return &ActivityWorker{recorder: recorder}
}

// HandleChange processes a single change message from AMQP. Returning an
// error makes the consumer requeue the delivery.
func (w *ActivityWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.UserID == "" || msg.EntityID == "" {
		// Requeueing would loop forever on a message that can never be stored.
		slog.WarnContext(ctx, "Skipping change message without owner or entity id",
			"entity", msg.Entity,
			"op", msg.Op)
		w.skipped.Add(1)
		return nil
	}

	slog.InfoContext(ctx, "Recording activity",
		"entity", msg.Entity,
		"op", msg.Op,
		"id", msg.EntityID,
		"user_id", msg.UserID)

	if err := w.recorder.RecordActivity(ctx, msg.Change()); err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	w.processed.Add(1)
	return nil
}

// Stats returns how many messages were recorded and skipped.
func (w *ActivityWorker) Stats() (processed, skipped int64) {
	return w.processed.Load(), w.skipped.Load()
}
