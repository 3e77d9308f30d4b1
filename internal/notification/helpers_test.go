package notification_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/i18n"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

// memStore enforces the get-or-create key the way the unique index does.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]*notification.Notification
	byKey   map[notification.Key]string
	creates int
}

func newMemStore() *memStore {
	return &memStore{
		rows:  map[string]*notification.Notification{},
		byKey: map[notification.Key]string{},
	}
}

func (s *memStore) FindByKey(_ context.Context, key notification.Key) (*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[key]
	if !ok {
		return nil, notification.ErrNotFound
	}
	return s.rows[id], nil
}

func (s *memStore) Create(_ context.Context, n *notification.Notification) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if _, exists := s.byKey[n.Key()]; exists {
		return false, nil
	}
	s.rows[n.ID] = n
	s.byKey[n.Key()] = n.ID
	return true, nil
}

func (s *memStore) Get(_ context.Context, id string) (*notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.rows[id]
	if !ok {
		return nil, notification.ErrNotFound
	}
	return n, nil
}

func (s *memStore) MarkEmailQueued(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.rows[id]; ok {
		n.EmailQueuedAt = &at
	}
	return nil
}

func (s *memStore) MarkPushSent(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.rows[id]; ok {
		n.PushSentAt = &at
	}
	return nil
}

func (s *memStore) SaveSMSResult(_ context.Context, id, messageID, failure string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.rows[id]; ok {
		n.SMSMessageID, n.SMSFailure = messageID, failure
	}
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type fakeDirectory struct {
	recipients  map[string]notification.Recipient
	memberships map[string]notification.Membership
	baseURLs    map[string]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		recipients:  map[string]notification.Recipient{},
		memberships: map[string]notification.Membership{},
		baseURLs:    map[string]string{},
	}
}

func (d *fakeDirectory) addMember(userID, nodeID string, role notification.Role, active bool) {
	d.memberships[userID+"/"+nodeID] = notification.Membership{Role: role, HasRole: true, Active: active}
}

func (d *fakeDirectory) Recipient(_ context.Context, userID string) (notification.Recipient, error) {
	r, ok := d.recipients[userID]
	if !ok {
		return notification.Recipient{}, errors.New("no such user")
	}
	return r, nil
}

func (d *fakeDirectory) Membership(_ context.Context, _, userID, nodeID string) (notification.Membership, error) {
	return d.memberships[userID+"/"+nodeID], nil
}

func (d *fakeDirectory) TenantBaseURL(_ context.Context, tenantID string) (string, error) {
	return d.baseURLs[tenantID], nil
}

// claimVerified mirrors a real variant closely enough to exercise every hook.
type claimVerified struct {
	notification.UnimplementedVariant
	policy   notification.Policy
	titleErr error
}

func (claimVerified) UID() string           { return "claim_verified" }
func (claimVerified) ActionText() string    { return "View claim" }
func (claimVerified) EmailTemplate() string { return "claim" }

func (v claimVerified) Policy() notification.Policy { return v.policy }

func (claimVerified) ActorNode(ev domain.Event) (string, error) {
	return ev.(*domain.Claim).Verifier.ID, nil
}

func (claimVerified) TargetNode(ev domain.Event) (string, error) {
	return ev.(*domain.Claim).Node.ID, nil
}

func (claimVerified) SupplyChain(ev domain.Event) (string, error) {
	return ev.(*domain.Claim).SupplyChain.ID, nil
}

func (v claimVerified) Title(p *message.Printer, c notification.Content) (string, error) {
	if v.titleErr != nil {
		return "", v.titleErr
	}
	return p.Sprintf("Claim %s was verified", c.Event.(*domain.Claim).Name), nil
}

func (claimVerified) Body(p *message.Printer, c notification.Content) (string, error) {
	claim := c.Event.(*domain.Claim)
	return p.Sprintf("%s verified the claim %s for %s.", claim.Verifier.Name, claim.Name, claim.Node.Name), nil
}

func (claimVerified) URLPath(domain.Event) string { return "/claims" }

func (claimVerified) URLParams(c notification.Content) url.Values {
	return url.Values{"claim": {c.Event.Ref().ID}}
}

func (claimVerified) Redirect(ev domain.Event) (string, string) {
	return ev.Ref().ID, "claim"
}

// bareVariant overrides nothing it is required to.
type bareVariant struct {
	notification.UnimplementedVariant
}

func (bareVariant) UID() string                 { return "bare" }
func (bareVariant) ActionText() string          { return "View notification" }
func (bareVariant) Policy() notification.Policy { return notification.StrangerPolicy }

func emailIfActivePolicy() notification.Policy {
	email := map[notification.Role]notification.Verdict{}
	for _, r := range notification.AllRoles() {
		email[r] = notification.Disabled
	}
	email[notification.RoleNodeAdmin] = notification.IfActive
	return notification.Policy{
		Visibility: notification.Wildcard(notification.Enabled),
		Push:       notification.Wildcard(notification.IfActive),
		Email:      notification.PerRole(email),
		SMS:        notification.Wildcard(notification.Disabled),
	}
}

func testClaim() *domain.Claim {
	return &domain.Claim{
		ID:          "0190a4f2-7c1e-7d3a-9b1f-3c2d4e5f6a01",
		TenantID:    "tenant-1",
		Name:        "Organic",
		SupplyChain: domain.SupplyChainRef{ID: "sc-1", Name: "Cocoa"},
		Node:        domain.NodeRef{ID: "node-farm", Name: "Green Farm"},
		Verifier:    domain.NodeRef{ID: "node-cert", Name: "CertCo"},
		Status:      domain.ClaimVerified,
	}
}

func testBundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.New("en", []string{"en", "fr", "es"})
	require.NoError(t, err)
	return b
}
