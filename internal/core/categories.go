package core

import (
	"fmt"
	"slices"
)

// BuiltinCategories are always offered and never persisted.
var BuiltinCategories = []string{
	"Food",
	"Rent",
	"Salary",
	"Shopping",
	"Bills",
	"Travel",
	"Others",
}

// IsBuiltin reports whether name exactly matches a built-in category.
// Matching is case-sensitive.
func IsBuiltin(name string) bool {
	return slices.Contains(BuiltinCategories, name)
}

// ErrBuiltinCategory is returned when a custom category would shadow a
// built-in one. It matches both ErrValidation and ErrAlreadyExists.
var ErrBuiltinCategory = fmt.Errorf("%w: %w: category is built-in", ErrValidation, ErrAlreadyExists)

// MergeCategories concatenates built-ins and custom names. Duplicates are kept.
func MergeCategories(custom []Category) []string {
	names := make([]string, 0, len(BuiltinCategories)+len(custom))
	names = append(names, BuiltinCategories...)
	for _, c := range custom {
		names = append(names, c.Name)
	}
	return names
}
