// Package postgres is the PostgreSQL gateway backed by a pgx connection pool.
// Ownership filters on user_id play the part of row-level security.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
)

// Connect opens a pool for url and verifies it with a ping.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 2 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type Store struct{ db *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) *Store { return &Store{db: db} }

// Open migrates the schema and connects a pool.
func Open(ctx context.Context, url string) (*Store, error) {
	if err := RunMigrations(url); err != nil {
		return nil, err
	}
	pool, err := Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.Ping(ctx) }

func (s *Store) ListTransactions(ctx context.Context, actor core.Actor) ([]core.Transaction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, title, amount::text, category, type, to_char("date", 'YYYY-MM-DD'), COALESCE(description, '')
		   FROM transactions
		  WHERE user_id = $1
		  ORDER BY "date" DESC, seq`,
		actor.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t         core.Transaction
			amt, date string
			typ       string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &amt, &t.Category, &typ, &date, &t.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		dec, err := decimal.NewFromString(amt)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parse amount: %w", t.ID, err)
		}
		t.Amount = decimal.NewNullDecimal(dec)
		t.Type = core.TransactionType(typ)
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: parse date: %w", t.ID, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) InsertTransaction(ctx context.Context, actor core.Actor, t core.Transaction) (core.Transaction, error) {
	if actor.Anonymous() || t.UserID != actor.UserID {
		return core.Transaction{}, gateway.ErrForbidden
	}
	t.ID = uuid.NewString()
	_, err := s.db.Exec(ctx,
		`INSERT INTO transactions(id, user_id, title, amount, category, type, "date", description)
		 VALUES($1, $2, $3, $4::numeric, $5, $6, $7::date, NULLIF($8, ''))`,
		t.ID, t.UserID, t.Title, amountArg(t.Amount), t.Category, string(t.Type), dateArg(t.Date), t.Description,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", mapError(err))
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, actor core.Actor, id string, in core.TransactionInput) (core.Transaction, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE transactions
		    SET title = $1, amount = $2::numeric, category = $3, type = $4, "date" = $5::date, description = NULLIF($6, '')
		  WHERE id = $7 AND user_id = $8`,
		in.Title, amountArg(in.Amount), in.Category, string(in.Type), dateArg(in.Date), in.Description, id, actor.UserID,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, gateway.ErrNotFound)
	}
	return in.Transaction(id, actor.UserID), nil
}

func (s *Store) DeleteTransaction(ctx context.Context, actor core.Actor, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, actor.UserID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete transaction %s: %w", id, gateway.ErrNotFound)
	}
	return nil
}

func (s *Store) ListCategories(ctx context.Context, actor core.Actor) ([]core.Category, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name FROM categories WHERE user_id = $1 ORDER BY seq`, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertCategory(ctx context.Context, actor core.Actor, c core.Category) (core.Category, error) {
	if actor.Anonymous() || c.UserID != actor.UserID {
		return core.Category{}, gateway.ErrForbidden
	}
	c.ID = uuid.NewString()
	if _, err := s.db.Exec(ctx,
		`INSERT INTO categories(id, user_id, name) VALUES ($1, $2, $3)`, c.ID, c.UserID, c.Name); err != nil {
		return core.Category{}, fmt.Errorf("insert category %q: %w", c.Name, mapError(err))
	}
	return c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, actor core.Actor, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, actor.UserID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete category %s: %w", id, gateway.ErrNotFound)
	}
	return nil
}

func (s *Store) RecordActivity(ctx context.Context, c core.Change) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO activity(entity, op, entity_id, user_id, summary, at) VALUES ($1, $2, $3, $4, $5, $6)`,
		c.Entity, c.Op, c.EntityID, c.UserID, c.Summary, c.At,
	)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivity(ctx context.Context, userID string, limit int) ([]core.Change, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.db.Query(ctx,
		`SELECT entity, op, entity_id, user_id, summary, at
		   FROM activity
		  WHERE user_id = $1
		  ORDER BY at DESC, id DESC
		  LIMIT $2`,
		userID, lim,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []core.Change
	for rows.Next() {
		var c core.Change
		if err := rows.Scan(&c.Entity, &c.Op, &c.EntityID, &c.UserID, &c.Summary, &c.At); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		c.At = c.At.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func amountArg(a decimal.NullDecimal) any {
	if !a.Valid {
		return nil
	}
	return a.Decimal.String()
}

func dateArg(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.String()
}

// mapError turns SQLSTATE 23505 into gateway.ErrUniqueViolation.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == gateway.UniqueViolationCode {
		return fmt.Errorf("%w: %s", gateway.ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}
