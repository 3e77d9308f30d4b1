package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tracehub.io/tracehub/internal/domain"
)

// ErrNotFound is returned by a Store when no record matches.
var ErrNotFound = errors.New("notification not found")

// Notification is one delivery obligation to one user for one event.
type Notification struct {
	ID          string
	RecipientID string
	// TenantID is empty for tenant-less notifications.
	TenantID string
	Type     string

	IsRead bool
	ReadAt *time.Time

	Flags Flags

	// Title and Body are keyed by locale. Language is the recipient's
	// locale at creation time and always has an entry.
	Title    map[string]string
	Body     map[string]string
	Language string

	ActionURL  string
	ActionText string

	ActorNodeID   string
	TargetNodeID  string
	SupplyChainID string

	Event        domain.EventRef
	EventData    json.RawMessage
	RedirectID   string
	RedirectType string
	Context      map[string]any
	SendTo       string
	TokenID      string

	SMSMessageID  string
	SMSFailure    string
	EmailQueuedAt *time.Time
	PushSentAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key is the get-or-create identity of a record.
type Key struct {
	RecipientID string
	TenantID    string
	Type        string
	Event       domain.EventRef
	TokenID     string
}

// Key returns the record's identity tuple.
func (n *Notification) Key() Key {
	return Key{
		RecipientID: n.RecipientID,
		TenantID:    n.TenantID,
		Type:        n.Type,
		Event:       n.Event,
		TokenID:     n.TokenID,
	}
}

// Read marks the notification read. It reports whether anything changed;
// calling it on a read notification is a no-op.
func (n *Notification) Read(now time.Time) bool {
	if n.IsRead {
		return false
	}
	n.IsRead = true
	n.ReadAt = &now
	n.UpdatedAt = now
	return true
}

// TitleIn returns the title for locale, falling back to the recipient's language.
func (n *Notification) TitleIn(locale string) string {
	return pick(n.Title, locale, n.Language)
}

// BodyIn returns the body for locale, falling back to the recipient's language.
func (n *Notification) BodyIn(locale string) string {
	return pick(n.Body, locale, n.Language)
}

func pick(texts map[string]string, locale, fallback string) string {
	if s, ok := texts[locale]; ok {
		return s
	}
	return texts[fallback]
}

//go:generate mockgen -source=record.go -destination=mocks/record.go -package=mocks

// Store persists notification records.
type Store interface {
	// FindByKey returns ErrNotFound when no record has the key.
	FindByKey(ctx context.Context, key Key) (*Notification, error)
	// Create inserts n. It reports false without error when a record with the
	// same key already exists.
	Create(ctx context.Context, n *Notification) (bool, error)
	Get(ctx context.Context, id string) (*Notification, error)
	MarkEmailQueued(ctx context.Context, id string, at time.Time) error
	MarkPushSent(ctx context.Context, id string, at time.Time) error
	SaveSMSResult(ctx context.Context, id, messageID, failure string) error
}

// Directory answers who a recipient is and how they relate to a node.
type Directory interface {
	Recipient(ctx context.Context, userID string) (Recipient, error)
	// Membership returns HasRole=false when the user is not a member of nodeID.
	Membership(ctx context.Context, tenantID, userID, nodeID string) (Membership, error)
	// TenantBaseURL returns "" when the tenant has no URL of its own.
	TenantBaseURL(ctx context.Context, tenantID string) (string, error)
}
