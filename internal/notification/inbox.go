package notification

import (
	"context"
	"time"
)

// InboxScope selects one user's notifications within the current tenant.
// Tenant-less notifications are always in scope.
type InboxScope struct {
	UserID   string
	TenantID string
}

// ListQuery filters the inbox listing.
type ListQuery struct {
	InboxScope
	NodeID string
	IsRead *bool
	// Search matches title or body text in any locale.
	Search string
	Limit  int
	Offset int
}

// Page is one page of the inbox.
type Page struct {
	Items []*Notification
	Total int
}

// NodeSummary counts the inbox for one target node.
type NodeSummary struct {
	NodeID string
	Unread int
	Total  int
}

// Inbox serves the user-facing read side. Only visible notifications are
// listed or counted.
type Inbox interface {
	Summary(ctx context.Context, scope InboxScope) ([]NodeSummary, error)
	List(ctx context.Context, q ListQuery) (Page, error)
	// MarkRead marks the listed ids read and returns how many changed.
	// Ids outside scope are ignored.
	MarkRead(ctx context.Context, scope InboxScope, ids []string, now time.Time) (int, error)
	MarkAllRead(ctx context.Context, scope InboxScope, now time.Time) (int, error)
}
