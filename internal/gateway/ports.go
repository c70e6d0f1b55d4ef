// Package gateway declares the persistence ports the services depend on.
//
// Every call carries the acting user. Implementations enforce row-level
// access: a caller only sees and mutates rows whose owner equals the actor.
package gateway

import (
	"context"
	"errors"

	"pfbt/internal/core"
)

var (
	// ErrUniqueViolation is reported when an insert breaks a uniqueness
	// constraint (Postgres SQLSTATE 23505, SQLITE_CONSTRAINT_UNIQUE).
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrNotFound is reported when no row visible to the actor matches.
	ErrNotFound = errors.New("row not found")
	// ErrForbidden is reported when a row would be written without a valid owner.
	ErrForbidden = errors.New("row-level access denied")
)

// UniqueViolationCode is the SQLSTATE for unique_violation.
const UniqueViolationCode = "23505"

// Ports for outbound adapters.
type (
	TransactionGateway interface {
		// ListTransactions returns the actor's rows ordered by date descending,
		// ties in insertion order.
		ListTransactions(ctx context.Context, actor core.Actor) ([]core.Transaction, error)
		// InsertTransaction stores t and returns it with its assigned ID.
		InsertTransaction(ctx context.Context, actor core.Actor, t core.Transaction) (core.Transaction, error)
		// UpdateTransaction replaces every user-editable field of row id.
		UpdateTransaction(ctx context.Context, actor core.Actor, id string, in core.TransactionInput) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, actor core.Actor, id string) error
	}

	CategoryGateway interface {
		// ListCategories returns the actor's custom categories in insertion order.
		ListCategories(ctx context.Context, actor core.Actor) ([]core.Category, error)
		InsertCategory(ctx context.Context, actor core.Actor, c core.Category) (core.Category, error)
		DeleteCategory(ctx context.Context, actor core.Actor, id string) error
	}

	// ActivityRecorder stores the change feed consumed by the worker.
	ActivityRecorder interface {
		RecordActivity(ctx context.Context, c core.Change) error
		// ListActivity returns the newest limit entries for userID, newest first.
		ListActivity(ctx context.Context, userID string, limit int) ([]core.Change, error)
	}

	// Pinger reports whether the underlying store is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
