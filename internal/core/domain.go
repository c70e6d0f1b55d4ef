package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire and form representation of a Date.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	// Actor identifies the authenticated user an operation runs on behalf of.
	// The zero Actor means "no session".
	Actor struct {
		UserID   string
		Email    string
		Metadata map[string]string
	}

	Transaction struct {
		ID          string
		UserID      string
		Title       string
		Amount      decimal.NullDecimal // positive magnitude, Valid=false when the input did not parse
		Category    string
		Type        TransactionType
		Date        Date
		Description string
	}

	// TransactionInput carries the user-editable fields of a transaction.
	TransactionInput struct {
		Title       string
		Amount      decimal.NullDecimal
		Category    string
		Type        TransactionType
		Date        Date
		Description string
	}

	Category struct {
		ID     string
		UserID string
		Name   string
	}
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrAlreadyExists = errors.New("already exists")
	ErrPersistence   = errors.New("persistence failure")
	ErrAuthRequired  = errors.New("authentication required")

	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
)

// Anonymous reports whether the actor carries no user identity.
func (a Actor) Anonymous() bool {
	return a.UserID == ""
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// Transaction returns the stored shape of the input owned by userID.
func (in TransactionInput) Transaction(id, userID string) Transaction {
	return Transaction{
		ID:          id,
		UserID:      userID,
		Title:       in.Title,
		Amount:      in.Amount,
		Category:    in.Category,
		Type:        in.Type,
		Date:        in.Date,
		Description: in.Description,
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Empty input yields the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}
