package core

import (
	"iter"
	"slices"
)

// FilterAll is the selector value that matches every transaction.
const FilterAll = "all"

// Filter yields the transactions of ts whose category and type match the
// selectors, in input order. Either selector may be FilterAll.
func Filter(ts []Transaction, category, typ string) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, t := range ts {
			if category != FilterAll && t.Category != category {
				continue
			}
			if typ != FilterAll && string(t.Type) != typ {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// ApplyFilter collects Filter into a slice.
func ApplyFilter(ts []Transaction, category, typ string) []Transaction {
	return slices.Collect(Filter(ts, category, typ))
}

// NormalizeSelector maps an empty selector to FilterAll.
func NormalizeSelector(s string) string {
	if s == "" {
		return FilterAll
	}
	return s
}
