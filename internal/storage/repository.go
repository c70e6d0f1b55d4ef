package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pfbt/internal/core"
	"pfbt/internal/gateway"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; uniqueness races resolve inside SQLite.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTransactions implements gateway.TransactionGateway
func (r *SQLiteRepository) ListTransactions(ctx context.Context, actor core.Actor) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, title, amount, category, type, date, description
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, rowid ASC`, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t                 core.Transaction
			amount, typ, date string
			description       sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &amount, &t.Category, &typ, &date, &description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.Description = description.String
		if t.Amount, err = parseStoredAmount(amount); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: parse date: %w", t.ID, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// InsertTransaction implements gateway.TransactionGateway
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, actor core.Actor, t core.Transaction) (core.Transaction, error) {
	if actor.Anonymous() || t.UserID != actor.UserID {
		return core.Transaction{}, gateway.ErrForbidden
	}
	t.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, title, amount, category, type, date, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, amountArg(t.Amount), t.Category, string(t.Type), dateArg(t.Date), nullString(t.Description))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", mapError(err))
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"date", t.Date.String())

	return t, nil
}

// UpdateTransaction implements gateway.TransactionGateway
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, actor core.Actor, id string, in core.TransactionInput) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET title = ?, amount = ?, category = ?, type = ?, date = ?, description = ?
		WHERE id = ? AND user_id = ?`,
		in.Title, amountArg(in.Amount), in.Category, string(in.Type), dateArg(in.Date), nullString(in.Description),
		id, actor.UserID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", mapError(err))
	}
	if err := expectOne(res); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}
	return in.Transaction(id, actor.UserID), nil
}

// DeleteTransaction implements gateway.TransactionGateway
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, actor core.Actor, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, actor.UserID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// ListCategories implements gateway.CategoryGateway
func (r *SQLiteRepository) ListCategories(ctx context.Context, actor core.Actor) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM categories WHERE user_id = ? ORDER BY rowid`, actor.UserID)
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

// InsertCategory implements gateway.CategoryGateway
func (r *SQLiteRepository) InsertCategory(ctx context.Context, actor core.Actor, c core.Category) (core.Category, error) {
	if actor.Anonymous() || c.UserID != actor.UserID {
		return core.Category{}, gateway.ErrForbidden
	}
	c.ID = uuid.NewString()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name) VALUES (?, ?, ?)`, c.ID, c.UserID, c.Name); err != nil {
		return core.Category{}, fmt.Errorf("insert category %q: %w", c.Name, mapError(err))
	}
	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name)
	return c, nil
}

// DeleteCategory implements gateway.CategoryGateway
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, actor core.Actor, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, actor.UserID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

// RecordActivity implements gateway.ActivityRecorder
func (r *SQLiteRepository) RecordActivity(ctx context.Context, c core.Change) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity (entity, op, entity_id, user_id, summary, at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.Entity, c.Op, c.EntityID, c.UserID, c.Summary, c.At.UnixNano())
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// ListActivity implements gateway.ActivityRecorder
func (r *SQLiteRepository) ListActivity(ctx context.Context, userID string, limit int) ([]core.Change, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT entity, op, entity_id, user_id, summary, at
		FROM activity
		WHERE user_id = ?
		ORDER BY at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []core.Change
	for rows.Next() {
		var (
			c  core.Change
			at int64
		)
		if err := rows.Scan(&c.Entity, &c.Op, &c.EntityID, &c.UserID, &c.Summary, &at); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		c.At = time.Unix(0, at).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// amountArg stores invalid amounts as NULL so the NOT NULL constraint rejects them.
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseStoredAmount(s string) (decimal.NullDecimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

// mapError translates SQLite constraint failures into gateway errors.
func mapError(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	code := se.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
		(code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")) {
		return fmt.Errorf("%w: %v", gateway.ErrUniqueViolation, err)
	}
	return err
}
