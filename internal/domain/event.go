package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventKind tags the supply-chain object a notification is about.
// The set is closed; DecodeEvent knows how to rebuild each kind.
type EventKind string

const (
	KindConnection    EventKind = "connection"
	KindNodeMember    EventKind = "node_member"
	KindClaim         EventKind = "claim"
	KindTransaction   EventKind = "transaction"
	KindPurchaseOrder EventKind = "purchase_order"
	KindComment       EventKind = "comment"
)

// EventRef identifies an event object without loading it.
type EventRef struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id"`
}

func (r EventRef) String() string {
	return string(r.Kind) + ":" + r.ID
}

// Event is a supply-chain object that can trigger notifications.
type Event interface {
	Ref() EventRef
	Tenant() string
}

// ErrUnknownEventKind is returned by DecodeEvent for kinds outside the closed set.
var ErrUnknownEventKind = errors.New("unknown event kind")

var eventFactories = map[EventKind]func() Event{
	KindConnection:    func() Event { return &Connection{} },
	KindNodeMember:    func() Event { return &NodeMember{} },
	KindClaim:         func() Event { return &Claim{} },
	KindTransaction:   func() Event { return &Transaction{} },
	KindPurchaseOrder: func() Event { return &PurchaseOrder{} },
	KindComment:       func() Event { return &Comment{} },
}

// DecodeEvent rebuilds an event from its stored JSON snapshot.
func DecodeEvent(kind EventKind, data []byte) (Event, error) {
	factory, ok := eventFactories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, kind)
	}
	ev := factory()
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", kind, err)
	}
	return ev, nil
}

// EventType names a business fact published on the EventDispatcher.
type EventType string

const (
	EventConnectionInvited  EventType = "CONNECTION_INVITED"
	EventConnectionAccepted EventType = "CONNECTION_ACCEPTED"
	EventConnectionRejected EventType = "CONNECTION_REJECTED"

	EventNodeMemberAdded EventType = "NODE_MEMBER_ADDED"

	EventClaimAttached EventType = "CLAIM_ATTACHED"
	EventClaimVerified EventType = "CLAIM_VERIFIED"
	EventClaimRejected EventType = "CLAIM_REJECTED"

	EventTransactionReceived EventType = "TRANSACTION_RECEIVED"
	EventTransactionApproved EventType = "TRANSACTION_APPROVED"
	EventTransactionRejected EventType = "TRANSACTION_REJECTED"

	EventPurchaseOrderStateChanged EventType = "PURCHASE_ORDER_STATE_CHANGED"

	EventCommentAdded EventType = "COMMENT_ADDED"
)

// ValidationToken is a one-time token attached to links that must work
// without a session (e.g. an invitation sent to someone who has no account yet).
type ValidationToken struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// DomainEvent is the envelope published by domain workflows.
type DomainEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	TenantID  string    `json:"tenant_id"`
	Subject   Event     `json:"-"`
	// Recipients adds users outside the default audience, typically invitees.
	Recipients []string         `json:"recipients,omitempty"`
	Token      *ValidationToken `json:"token,omitempty"`
	Context    map[string]any   `json:"context,omitempty"`
	CreatedBy  string           `json:"created_by"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Envelope is the wire form of a DomainEvent. The subject travels as JSON
// alongside its kind so the receiver can rebuild the concrete type.
type Envelope struct {
	DomainEvent
	SubjectKind EventKind       `json:"subject_kind"`
	SubjectData json.RawMessage `json:"subject"`
}

// NewEnvelope wraps ev for transport.
func NewEnvelope(ev *DomainEvent) (Envelope, error) {
	if ev.Subject == nil {
		return Envelope{}, fmt.Errorf("event %s has no subject", ev.EventID)
	}
	data, err := json.Marshal(ev.Subject)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode subject of %s: %w", ev.EventID, err)
	}
	return Envelope{DomainEvent: *ev, SubjectKind: ev.Subject.Ref().Kind, SubjectData: data}, nil
}

// Decode rebuilds the DomainEvent with its typed subject.
func (e Envelope) Decode() (*DomainEvent, error) {
	subject, err := DecodeEvent(e.SubjectKind, e.SubjectData)
	if err != nil {
		return nil, err
	}
	ev := e.DomainEvent
	ev.Subject = subject
	return &ev, nil
}
