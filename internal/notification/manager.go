// Package notification decides who is told about a supply-chain event, on
// which channels, and with what content, then hands records to the channel
// sinks.
//
// The engine is synchronous. Asynchronous delivery is the job of the River
// workers in internal/jobs, which call back into Dispatcher.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/metrics"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// Localizer resolves locales and hands out printers for them. Rendering
// always receives the locale explicitly.
type Localizer interface {
	// Base is the locale every notification is materialized in.
	Base() string
	// Locales returns the supported match for preferred followed by Base,
	// without duplicates.
	Locales(preferred string) []string
	Printer(locale string) *message.Printer
}

// Request carries everything a domain workflow knows when it triggers a
// notification for one recipient.
type Request struct {
	RecipientID string
	// TenantID is the caller's current tenant; a variant may override it.
	TenantID string
	Event    domain.Event
	Token    *domain.ValidationToken
	Context  map[string]any
	// SendTo overrides the address the email goes to.
	SendTo string
}

// Manager creates notification records.
type Manager struct {
	store          Store
	directory      Directory
	localizer      Localizer
	defaultBaseURL string
	now            func() time.Time
	newID          func() string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithDefaultBaseURL sets the link base used when a tenant has none.
func WithDefaultBaseURL(base string) ManagerOption {
	return func(m *Manager) { m.defaultBaseURL = base }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager.
func NewManager(store Store, directory Directory, localizer Localizer, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:     store,
		directory: directory,
		localizer: localizer,
		now:       time.Now,
		newID: func() string {
			if id, err := uuid.NewV7(); err == nil {
				return id.String()
			}
			return uuid.NewString()
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Notify resolves eligibility for the recipient and returns the notification
// record for (recipient, tenant, variant, event, token), creating it when
// needed. It returns nil, nil when no channel is eligible; no row is written
// in that case. An existing record is returned unchanged.
func (m *Manager) Notify(ctx context.Context, v Variant, req Request) (*Notification, error) {
	if req.Event == nil {
		return nil, fmt.Errorf("notify %s: event is required", v.UID())
	}

	targetNode, err := v.TargetNode(req.Event)
	if err != nil {
		return nil, fmt.Errorf("notify %s: target node: %w", v.UID(), err)
	}
	tenantID := tenantOf(v, req.Event, req.TenantID)

	membership, err := m.directory.Membership(ctx, tenantID, req.RecipientID, targetNode)
	if err != nil {
		return nil, fmt.Errorf("notify %s: membership of %s in %s: %w", v.UID(), req.RecipientID, targetNode, err)
	}

	flags := Resolve(v.Policy(), membership)
	if !flags.Any() {
		metrics.NotificationOutcome(v.UID(), metrics.OutcomeSkipped)
		logger.Debug("notification skipped: no eligible channel",
			zap.String("type", v.UID()),
			zap.String("recipient", req.RecipientID),
			zap.String("event", req.Event.Ref().String()),
		)
		return nil, nil
	}

	key := Key{
		RecipientID: req.RecipientID,
		TenantID:    tenantID,
		Type:        v.UID(),
		Event:       req.Event.Ref(),
	}
	if req.Token != nil {
		key.TokenID = req.Token.ID
	}

	existing, err := m.store.FindByKey(ctx, key)
	switch {
	case err == nil:
		metrics.NotificationOutcome(v.UID(), metrics.OutcomeDuplicate)
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("notify %s: find existing: %w", v.UID(), err)
	}

	n, err := m.build(ctx, v, req, key, targetNode, flags)
	if err != nil {
		return nil, err
	}

	created, err := m.store.Create(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("notify %s: create: %w", v.UID(), err)
	}
	if !created {
		// lost the race to a concurrent trigger; the winner's row is the record
		metrics.NotificationOutcome(v.UID(), metrics.OutcomeDuplicate)
		winner, err := m.store.FindByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("notify %s: reload after conflict: %w", v.UID(), err)
		}
		return winner, nil
	}

	metrics.NotificationOutcome(v.UID(), metrics.OutcomeCreated)
	logger.Info("notification created",
		zap.String("notification_id", n.ID),
		zap.String("type", n.Type),
		zap.String("recipient", n.RecipientID),
		zap.String("tenant", n.TenantID),
		zap.Bool("email", n.Flags.Email),
		zap.Bool("push", n.Flags.Push),
		zap.Bool("sms", n.Flags.SMS),
	)
	return n, nil
}

func (m *Manager) build(ctx context.Context, v Variant, req Request, key Key, targetNode string, flags Flags) (*Notification, error) {
	recipient, err := m.directory.Recipient(ctx, req.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("notify %s: load recipient %s: %w", v.UID(), req.RecipientID, err)
	}
	actorNode, err := v.ActorNode(req.Event)
	if err != nil {
		return nil, fmt.Errorf("notify %s: actor node: %w", v.UID(), err)
	}
	supplyChain, err := v.SupplyChain(req.Event)
	if err != nil {
		return nil, fmt.Errorf("notify %s: supply chain: %w", v.UID(), err)
	}
	snapshot, err := json.Marshal(req.Event)
	if err != nil {
		return nil, fmt.Errorf("notify %s: snapshot event: %w", v.UID(), err)
	}

	now := m.now()
	n := &Notification{
		ID:            m.newID(),
		RecipientID:   key.RecipientID,
		TenantID:      key.TenantID,
		Type:          key.Type,
		Flags:         flags,
		Title:         make(map[string]string),
		Body:          make(map[string]string),
		ActorNodeID:   actorNode,
		TargetNodeID:  targetNode,
		SupplyChainID: supplyChain,
		Event:         key.Event,
		EventData:     snapshot,
		Context:       req.Context,
		TokenID:       key.TokenID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	content := Content{Recipient: recipient, Event: req.Event, Context: req.Context}
	locales := m.localizer.Locales(recipient.Language)
	n.Language = locales[0]
	for _, locale := range locales {
		p := m.localizer.Printer(locale)
		t, err := title(v, p, content)
		if err != nil {
			return nil, fmt.Errorf("notify %s: title (%s): %w", v.UID(), locale, err)
		}
		b, err := body(v, p, content)
		if err != nil {
			return nil, fmt.Errorf("notify %s: body (%s): %w", v.UID(), locale, err)
		}
		n.Title[locale] = t
		n.Body[locale] = b
	}
	n.ActionText = m.localizer.Printer(n.Language).Sprintf(v.ActionText())

	base, err := m.directory.TenantBaseURL(ctx, key.TenantID)
	if err != nil {
		return nil, fmt.Errorf("notify %s: tenant base url: %w", v.UID(), err)
	}
	if base == "" {
		base = m.defaultBaseURL
	}
	link, err := actionURL(base, urlPath(v, req.Event), n, req.Token, urlParams(v, content))
	if err != nil {
		return nil, fmt.Errorf("notify %s: action url: %w", v.UID(), err)
	}
	n.ActionURL = link

	n.RedirectID, n.RedirectType = redirect(v, req.Event)
	n.SendTo = req.SendTo
	if n.SendTo == "" {
		n.SendTo = sendTo(v, recipient)
	}
	return n, nil
}
