package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
)

// TransactionService is the accessor for the transaction table. Ownership is
// left to the gateway; the service only stamps the owner on insert.
type TransactionService struct {
	gw        gateway.TransactionGateway
	notifier  Notifier
	publisher ChangePublisher
	now       func() time.Time
}

func NewTransactionService(gw gateway.TransactionGateway, notifier Notifier, publisher ChangePublisher) *TransactionService {
	if notifier == nil {
		notifier = ContextNotifier{}
	}
	return &TransactionService{
		gw:        gw,
		notifier:  notifier,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListTransactions returns the actor's transactions, newest date first.
func (s *TransactionService) ListTransactions(ctx context.Context, actor core.Actor) ([]core.Transaction, error) {
	ts, err := s.gw.ListTransactions(ctx, actor)
	if err != nil {
		s.notifier.Notify(ctx, MsgFetchTransactionsFailed, SeverityError)
		return nil, fmt.Errorf("%w: list transactions: %w", core.ErrPersistence, err)
	}
	return ts, nil
}

// UpsertTransaction replaces row existingID with in, or inserts a new row
// owned by actor when existingID is empty. The amount is forwarded as parsed,
// valid or not.
func (s *TransactionService) UpsertTransaction(ctx context.Context, actor core.Actor, in core.TransactionInput, existingID string) (core.Transaction, error) {
	if existingID != "" {
		t, err := s.gw.UpdateTransaction(ctx, actor, existingID, in)
		if err != nil {
			s.notifier.Notify(ctx, MsgTransactionUpdateFailed, SeverityError)
			return core.Transaction{}, fmt.Errorf("%w: update transaction %s: %w", core.ErrPersistence, existingID, err)
		}
		s.notifier.Notify(ctx, MsgTransactionUpdated, SeveritySuccess)
		publishChange(ctx, s.publisher, s.change(core.OpUpdate, t))
		return t, nil
	}

	t, err := s.gw.InsertTransaction(ctx, actor, in.Transaction("", actor.UserID))
	if err != nil {
		s.notifier.Notify(ctx, MsgTransactionAddFailed, SeverityError)
		return core.Transaction{}, fmt.Errorf("%w: insert transaction: %w", core.ErrPersistence, err)
	}
	slog.DebugContext(ctx, "Transaction created", "id", t.ID, "user_id", t.UserID)
	s.notifier.Notify(ctx, MsgTransactionAdded, SeveritySuccess)
	publishChange(ctx, s.publisher, s.change(core.OpCreate, t))
	return t, nil
}

// DeleteTransaction removes row id. Unknown ids are a persistence error.
func (s *TransactionService) DeleteTransaction(ctx context.Context, actor core.Actor, id string) error {
	if err := s.gw.DeleteTransaction(ctx, actor, id); err != nil {
		s.notifier.Notify(ctx, MsgTransactionDeleteFailed, SeverityError)
		return fmt.Errorf("%w: delete transaction %s: %w", core.ErrPersistence, id, err)
	}
	s.notifier.Notify(ctx, MsgTransactionDeleted, SeveritySuccess)
	publishChange(ctx, s.publisher, core.Change{
		Entity:   core.EntityTransaction,
		Op:       core.OpDelete,
		EntityID: id,
		UserID:   actor.UserID,
		At:       s.now(),
	})
	return nil
}

func (s *TransactionService) change(op string, t core.Transaction) core.Change {
	return core.Change{
		Entity:   core.EntityTransaction,
		Op:       op,
		EntityID: t.ID,
		UserID:   t.UserID,
		Summary:  fmt.Sprintf("%s %s %s", t.Type, core.FormatAmount(t.Amount), t.Title),
		At:       s.now(),
	}
}
