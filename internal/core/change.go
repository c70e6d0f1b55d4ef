package core

import "time"

const (
	EntityTransaction = "transaction"
	EntityCategory    = "category"

	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Change describes one successful mutation.
type Change struct {
	Entity   string
	Op       string
	EntityID string
	UserID   string
	Summary  string
	At       time.Time
}
