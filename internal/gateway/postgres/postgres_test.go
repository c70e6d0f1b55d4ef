package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
)

func TestMapError(t *testing.T) {
	unique := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "categories_user_name_key"})
	assert.ErrorIs(t, mapError(unique), gateway.ErrUniqueViolation)

	check := &pgconn.PgError{Code: "23514"}
	assert.False(t, errors.Is(mapError(check), gateway.ErrUniqueViolation))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapError(plain))
}

func TestArgs(t *testing.T) {
	assert.Nil(t, amountArg(core.ParseAmount("abc")))
	assert.Equal(t, "4.5", amountArg(core.ParseAmount("4.50")))
	assert.Nil(t, dateArg(core.Date{}))
	assert.Equal(t, "2024-01-15", dateArg(core.NewDate(2024, 1, 15)))
}

// Runs against a real server when PFBT_TEST_DATABASE_URL is set.
func TestStoreIntegration(t *testing.T) {
	url := os.Getenv("PFBT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PFBT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	actor := core.Actor{UserID: "it-" + t.Name()}
	t.Cleanup(func() {
		_, _ = s.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, actor.UserID)
		_, _ = s.db.Exec(ctx, `DELETE FROM categories WHERE user_id = $1`, actor.UserID)
	})

	saved, err := s.InsertTransaction(ctx, actor, core.Transaction{
		UserID: actor.UserID, Title: "Coffee", Amount: core.ParseAmount("4.50"),
		Category: "Food", Type: core.Expense, Date: core.NewDate(2024, 1, 15),
	})
	require.NoError(t, err)

	list, err := s.ListTransactions(ctx, actor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)
	assert.Equal(t, "4.5", list[0].Amount.Decimal.String())
	assert.Equal(t, "2024-01-15", list[0].Date.String())

	_, err = s.InsertCategory(ctx, actor, core.Category{UserID: actor.UserID, Name: "Gym"})
	require.NoError(t, err)
	_, err = s.InsertCategory(ctx, actor, core.Category{UserID: actor.UserID, Name: "Gym"})
	assert.ErrorIs(t, err, gateway.ErrUniqueViolation)

	assert.ErrorIs(t, s.DeleteTransaction(ctx, actor, "missing"), gateway.ErrNotFound)
}
