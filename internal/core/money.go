// Package core provides money parsing and handling utilities.
//
// Amounts are decimal magnitudes. Form input is parsed leniently and a value
// that does not parse is kept as an invalid NullDecimal instead of an error,
// so that the persistence layer decides what to do with it.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts user text to a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// surrounding whitespace. Input that is not a number yields an amount with
// Valid=false.
//
// Examples:
//
//	ParseAmount("4.50")  -> 4.5
//	ParseAmount("4,50")  -> 4.5
//	ParseAmount("")      -> invalid
//	ParseAmount("abc")   -> invalid
func ParseAmount(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// FormatAmount renders an amount with two decimal places, or "NaN" when the
// amount is invalid.
func FormatAmount(a decimal.NullDecimal) string {
	if !a.Valid {
		return "NaN"
	}
	return a.Decimal.StringFixed(2)
}

// SignedAmount returns the amount with the sign implied by the transaction
// type. Invalid amounts count as zero.
func (t Transaction) SignedAmount() decimal.Decimal {
	if !t.Amount.Valid {
		return decimal.Zero
	}
	if t.Type == Expense {
		return t.Amount.Decimal.Neg()
	}
	return t.Amount.Decimal
}
