package notification

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Role is a recipient's classification within a node.
type Role string

const (
	RoleNodeAdmin          Role = "node_admin"
	RoleConnectionManager  Role = "connection_manager"
	RoleTransactionManager Role = "transaction_manager"
	RoleReporter           Role = "reporter"

	// roleWildcard is never a real role; a PerRole matrix keyed by it is the
	// mixed form and fails validation.
	roleWildcard Role = "*"
)

// AllRoles returns every defined role. Every PerRole matrix must cover all of them.
func AllRoles() []Role {
	return []Role{RoleNodeAdmin, RoleConnectionManager, RoleTransactionManager, RoleReporter}
}

// ParseRole maps a stored membership role onto a Role.
func ParseRole(s string) (Role, bool) {
	for _, r := range AllRoles() {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Channel is a delivery surface.
type Channel string

const (
	ChannelVisibility Channel = "visibility"
	ChannelPush       Channel = "push"
	ChannelEmail      Channel = "email"
	ChannelSMS        Channel = "sms"
)

// AllChannels returns the four channels in a fixed order.
func AllChannels() []Channel {
	return []Channel{ChannelVisibility, ChannelPush, ChannelEmail, ChannelSMS}
}

// Verdict is the static policy decision for a role/channel pair.
type Verdict uint8

const (
	Disabled Verdict = iota + 1
	Enabled
	// IfActive defers to whether the recipient is active at resolution time.
	IfActive
)

func (v Verdict) String() string {
	switch v {
	case Disabled:
		return "disabled"
	case Enabled:
		return "enabled"
	case IfActive:
		return "if_active"
	default:
		return fmt.Sprintf("verdict(%d)", uint8(v))
	}
}

func (v Verdict) valid() bool {
	return v >= Disabled && v <= IfActive
}

// Matrix maps roles to verdicts for one channel. It is either a wildcard
// (one verdict for every role) or a per-role table; the zero Matrix is neither
// and fails validation.
type Matrix struct {
	wildcard bool
	all      Verdict
	perRole  map[Role]Verdict
}

// Wildcard returns a matrix giving v to every role.
func Wildcard(v Verdict) Matrix {
	return Matrix{wildcard: true, all: v}
}

// PerRole returns a matrix with an explicit verdict per role. The map is copied.
func PerRole(verdicts map[Role]Verdict) Matrix {
	m := make(map[Role]Verdict, len(verdicts))
	for r, v := range verdicts {
		m[r] = v
	}
	return Matrix{perRole: m}
}

// IsWildcard reports whether the matrix uses the wildcard form.
func (m Matrix) IsWildcard() bool {
	return m.wildcard
}

// Lookup returns the verdict for role. The wildcard entry wins when present.
func (m Matrix) Lookup(role Role) (Verdict, bool) {
	if m.wildcard {
		return m.all, true
	}
	v, ok := m.perRole[role]
	return v, ok
}

// Validate checks that the matrix is a well-formed wildcard or a total
// per-role table over AllRoles.
func (m Matrix) Validate() error {
	if m.wildcard {
		if len(m.perRole) > 0 {
			return fmt.Errorf("wildcard matrix must not carry per-role entries")
		}
		if !m.all.valid() {
			return fmt.Errorf("wildcard verdict %s is invalid", m.all)
		}
		return nil
	}
	if len(m.perRole) == 0 {
		return fmt.Errorf("matrix is empty")
	}
	if _, ok := m.perRole[roleWildcard]; ok {
		return fmt.Errorf("matrix mixes wildcard and per-role entries")
	}

	known := make(map[Role]bool, len(AllRoles()))
	var missing []string
	for _, r := range AllRoles() {
		known[r] = true
		if _, ok := m.perRole[r]; !ok {
			missing = append(missing, string(r))
		}
	}
	var unknown []string
	for r, v := range m.perRole {
		if !known[r] {
			unknown = append(unknown, string(r))
			continue
		}
		if !v.valid() {
			return fmt.Errorf("role %s has invalid verdict %s", r, v)
		}
	}
	sort.Strings(unknown)

	switch {
	case len(missing) > 0:
		return fmt.Errorf("matrix omits roles: %s", strings.Join(missing, ", "))
	case len(unknown) > 0:
		return fmt.Errorf("matrix has unknown roles: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Policy holds one matrix per channel.
type Policy struct {
	Visibility Matrix
	Push       Matrix
	Email      Matrix
	SMS        Matrix
}

// Matrix returns the matrix for channel c.
func (p Policy) Matrix(c Channel) Matrix {
	switch c {
	case ChannelVisibility:
		return p.Visibility
	case ChannelPush:
		return p.Push
	case ChannelEmail:
		return p.Email
	case ChannelSMS:
		return p.SMS
	default:
		return Matrix{}
	}
}

// Validate validates every channel matrix and reports all failures together.
func (p Policy) Validate() error {
	var result *multierror.Error
	for _, c := range AllChannels() {
		if err := p.Matrix(c).Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", c, err))
		}
	}
	return result.ErrorOrNil()
}

// StrangerPolicy replaces a variant's policy when the recipient holds no role
// in the target node: visible in app, push and email only when active, no SMS.
var StrangerPolicy = Policy{
	Visibility: Wildcard(Enabled),
	Push:       Wildcard(IfActive),
	Email:      Wildcard(IfActive),
	SMS:        Wildcard(Disabled),
}
