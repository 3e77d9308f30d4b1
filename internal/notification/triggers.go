package notification

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/pkg/logger"
	"tracehub.io/tracehub/internal/pkg/worker"
)

// Bindings maps each domain event type to the variant uid it notifies with.
var Bindings = map[domain.EventType]string{
	domain.EventConnectionInvited:         "connection_invited",
	domain.EventConnectionAccepted:        "connection_accepted",
	domain.EventConnectionRejected:        "connection_rejected",
	domain.EventNodeMemberAdded:           "node_member_added",
	domain.EventClaimAttached:             "claim_attached",
	domain.EventClaimVerified:             "claim_verified",
	domain.EventClaimRejected:             "claim_rejected",
	domain.EventTransactionReceived:       "transaction_received",
	domain.EventTransactionApproved:       "transaction_approved",
	domain.EventTransactionRejected:       "transaction_rejected",
	domain.EventPurchaseOrderStateChanged: "purchase_order_state_changed",
	domain.EventCommentAdded:              "comment_added",
}

// Members lists the users holding a role in a node.
type Members interface {
	NodeMembers(ctx context.Context, tenantID, nodeID string) ([]string, error)
}

// Triggers turns domain events into notifications for every member of the
// variant's target node plus any explicitly named recipients.
type Triggers struct {
	manager  *Manager
	registry *Registry
	members  Members
	pool     *worker.Pool
	enqueuer Enqueuer
}

// NewTriggers creates the trigger service.
func NewTriggers(manager *Manager, registry *Registry, members Members, pool *worker.Pool, enqueuer Enqueuer) *Triggers {
	return &Triggers{
		manager:  manager,
		registry: registry,
		members:  members,
		pool:     pool,
		enqueuer: enqueuer,
	}
}

// Register subscribes t to every bound event type. It fails when a binding
// names a variant that is not registered.
func (t *Triggers) Register(d *domain.EventDispatcher) error {
	types := make([]domain.EventType, 0, len(Bindings))
	for eventType, uid := range Bindings {
		if _, ok := t.registry.Lookup(uid); !ok {
			return fmt.Errorf("event %s is bound to unregistered notification type %q", eventType, uid)
		}
		types = append(types, eventType)
	}
	d.Subscribe("notification_triggers", t.Handle, types...)
	return nil
}

// Handle notifies the audience of one domain event. The user who caused the
// event is never notified about it. Per-recipient failures are logged and
// joined into the returned error; they do not stop the other recipients.
func (t *Triggers) Handle(ctx context.Context, ev *domain.DomainEvent) error {
	uid, ok := Bindings[ev.EventType]
	if !ok {
		return fmt.Errorf("no notification bound to event %s", ev.EventType)
	}
	v, ok := t.registry.Lookup(uid)
	if !ok {
		return fmt.Errorf("notification type %q not registered", uid)
	}

	recipients, err := t.audience(ctx, v, ev)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		logger.Debug("no recipients for event",
			zap.String("event_id", ev.EventID),
			zap.String("event_type", string(ev.EventType)),
		)
		return nil
	}

	return t.pool.Each(ctx, len(recipients), func(ctx context.Context, i int) error {
		n, err := t.manager.Notify(ctx, v, Request{
			RecipientID: recipients[i],
			TenantID:    ev.TenantID,
			Event:       ev.Subject,
			Token:       ev.Token,
			Context:     ev.Context,
		})
		if err != nil {
			logger.Error("failed to create notification",
				zap.String("event_id", ev.EventID),
				zap.String("type", uid),
				zap.String("recipient", recipients[i]),
				zap.Error(err),
			)
			return err
		}
		if n == nil {
			return nil
		}
		if err := t.enqueuer.EnqueueDispatch(ctx, n); err != nil {
			logger.Error("failed to enqueue notification dispatch",
				zap.String("notification_id", n.ID),
				zap.String("recipient", n.RecipientID),
				zap.Error(err),
			)
			return fmt.Errorf("dispatch %s: %w", n.ID, err)
		}
		return nil
	})
}

// audience returns the target node's members followed by the event's named
// recipients, without duplicates and without the event's author.
func (t *Triggers) audience(ctx context.Context, v Variant, ev *domain.DomainEvent) ([]string, error) {
	target, err := v.TargetNode(ev.Subject)
	if err != nil {
		return nil, fmt.Errorf("resolve target node for %s: %w", ev.EventID, err)
	}
	tenant := tenantOf(v, ev.Subject, ev.TenantID)
	members, err := t.members.NodeMembers(ctx, tenant, target)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", target, err)
	}

	seen := map[string]struct{}{ev.CreatedBy: {}}
	var out []string
	for _, id := range slices.Concat(members, ev.Recipients) {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
