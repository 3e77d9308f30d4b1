package notification

// Membership is the eligibility resolution context for one recipient and one
// target node. It is computed per notification and never persisted.
type Membership struct {
	Role    Role
	HasRole bool
	Active  bool
}

// Flags are the resolved per-channel decisions.
type Flags struct {
	Visibility bool `json:"visibility"`
	Push       bool `json:"push"`
	Email      bool `json:"email"`
	SMS        bool `json:"sms"`
}

// Any reports whether at least one channel is eligible.
func (f Flags) Any() bool {
	return f.Visibility || f.Push || f.Email || f.SMS
}

// Resolve computes per-channel flags. A recipient without a role in the
// target node gets StrangerPolicy regardless of p.
func Resolve(p Policy, m Membership) Flags {
	if !m.HasRole {
		p = StrangerPolicy
	}
	return Flags{
		Visibility: decide(p.Visibility, m),
		Push:       decide(p.Push, m),
		Email:      decide(p.Email, m),
		SMS:        decide(p.SMS, m),
	}
}

func decide(matrix Matrix, m Membership) bool {
	v, ok := matrix.Lookup(m.Role)
	if !ok {
		return false
	}
	switch v {
	case Enabled:
		return true
	case IfActive:
		return m.Active
	default:
		return false
	}
}
