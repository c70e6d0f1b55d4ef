package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary is the dashboard view of a transaction list.
type Summary struct {
	Income     decimal.Decimal
	Expenses   decimal.Decimal
	Balance    decimal.Decimal
	Count      int
	ByCategory []CategoryAmount // expenses only, first-seen order
}

// Summarize totals ts. Transactions with an invalid amount are counted but
// contribute nothing to the totals.
func Summarize(ts []Transaction) Summary {
	s := Summary{Count: len(ts)}
	idx := make(map[string]int)
	for _, t := range ts {
		if !t.Amount.Valid {
			continue
		}
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount.Decimal)
		case Expense:
			s.Expenses = s.Expenses.Add(t.Amount.Decimal)
			i, ok := idx[t.Category]
			if !ok {
				i = len(s.ByCategory)
				idx[t.Category] = i
				s.ByCategory = append(s.ByCategory, CategoryAmount{Name: t.Category})
			}
			s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(t.Amount.Decimal)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	return s
}
