package services

import (
	"context"
	"log/slog"
	"sync"
)

// Severity classifies a user-facing notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// User-facing notification messages.
const (
	MsgFetchTransactionsFailed = "Failed to fetch transactions"
	MsgTransactionAdded        = "Transaction added successfully"
	MsgTransactionAddFailed    = "Failed to add transaction"
	MsgTransactionUpdated      = "Transaction updated successfully"
	MsgTransactionUpdateFailed = "Failed to update transaction"
	MsgTransactionDeleted      = "Transaction deleted successfully"
	MsgTransactionDeleteFailed = "Failed to delete transaction"

	MsgFetchCategoriesFailed = "Failed to fetch categories"
	MsgCategoryBuiltin       = "This category already exists as a default category"
	MsgCategoryExists        = "Category already exists"
	MsgCategoryAddFailed     = "Failed to add category"
	MsgCategoryAdded         = "Category added successfully"
	MsgCategoryDeleted       = "Category deleted successfully"
	MsgCategoryDeleteFailed  = "Failed to delete category"

	MsgAuthRequired = "Please sign in to continue"
)

// Notifier is a fire-and-forget sink for user-facing messages.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// Notification is one collected message.
type Notification struct {
	Message  string
	Severity Severity
}

// Notifications collects the messages raised while serving one request.
type Notifications struct {
	mu    sync.Mutex
	items []Notification
}

func (n *Notifications) add(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, Notification{Message: message, Severity: severity})
}

// All returns a copy of the collected notifications in raise order.
func (n *Notifications) All() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// Last returns the most recent notification, if any.
func (n *Notifications) Last() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return Notification{}, false
	}
	return n.items[len(n.items)-1], true
}

type notificationsKey struct{}

// WithNotifications attaches a fresh collector to ctx.
func WithNotifications(ctx context.Context) (context.Context, *Notifications) {
	n := &Notifications{}
	return context.WithValue(ctx, notificationsKey{}, n), n
}

// ContextNotifier records into the collector carried by ctx and logs every
// message. Without a collector the message is only logged.
type ContextNotifier struct {
	Logger *slog.Logger
}

func (c ContextNotifier) Notify(ctx context.Context, message string, severity Severity) {
	if n, ok := ctx.Value(notificationsKey{}).(*Notifications); ok {
		n.add(message, severity)
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if severity == SeverityError {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "notification", "message", message, "severity", string(severity))
}
