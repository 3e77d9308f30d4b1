package notification

import (
	"errors"
	"net/url"

	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
)

// ErrNotImplemented is returned by a variant that did not override one of the
// required node accessors. It indicates a programming error in the variant.
var ErrNotImplemented = errors.New("notification: variant method not implemented")

// InboxPath is the deep-link path used when a variant does not supply one.
const InboxPath = "/notifications"

// Variant is one notification type. Implementations are stateless values
// registered once at startup.
type Variant interface {
	// UID is the globally unique type identifier stored on each record.
	UID() string
	Policy() Policy
	// ActionText is the call-to-action label, as an English message key.
	ActionText() string
	// EmailTemplate names the HTML template under the email templates directory.
	EmailTemplate() string

	ActorNode(ev domain.Event) (string, error)
	TargetNode(ev domain.Event) (string, error)
	SupplyChain(ev domain.Event) (string, error)
}

// UnimplementedVariant can be embedded by variants; its node accessors
// return ErrNotImplemented.
type UnimplementedVariant struct{}

func (UnimplementedVariant) ActorNode(domain.Event) (string, error)   { return "", ErrNotImplemented }
func (UnimplementedVariant) TargetNode(domain.Event) (string, error)  { return "", ErrNotImplemented }
func (UnimplementedVariant) SupplyChain(domain.Event) (string, error) { return "", ErrNotImplemented }
func (UnimplementedVariant) EmailTemplate() string                    { return "generic" }

// Recipient is the user a notification is addressed to.
type Recipient struct {
	ID        string
	Email     string
	Phone     string
	FullName  string
	Language  string
	PushToken string
}

// Content is what the text hooks of a variant receive.
type Content struct {
	Recipient Recipient
	Event     domain.Event
	Context   map[string]any
}

// Optional hooks. The manager falls back to a default for each one a variant
// does not implement.
type (
	Titler interface {
		Title(p *message.Printer, c Content) (string, error)
	}
	Bodier interface {
		Body(p *message.Printer, c Content) (string, error)
	}
	URLPather interface {
		URLPath(ev domain.Event) string
	}
	URLParamer interface {
		URLParams(c Content) url.Values
	}
	SendToer interface {
		SendTo(r Recipient) string
	}
	Redirecter interface {
		Redirect(ev domain.Event) (id, kind string)
	}
	TenantResolver interface {
		Tenant(ev domain.Event) string
	}
)

func title(v Variant, p *message.Printer, c Content) (string, error) {
	if t, ok := v.(Titler); ok {
		return t.Title(p, c)
	}
	return genericText(p, c), nil
}

func body(v Variant, p *message.Printer, c Content) (string, error) {
	if b, ok := v.(Bodier); ok {
		return b.Body(p, c)
	}
	return genericText(p, c), nil
}

func genericText(p *message.Printer, c Content) string {
	return p.Sprintf("Notification for %s about %s", c.Recipient.FullName, c.Event.Ref().Kind)
}

func urlPath(v Variant, ev domain.Event) string {
	if u, ok := v.(URLPather); ok {
		if path := u.URLPath(ev); path != "" {
			return path
		}
	}
	return InboxPath
}

func urlParams(v Variant, c Content) url.Values {
	if u, ok := v.(URLParamer); ok {
		if params := u.URLParams(c); params != nil {
			return params
		}
	}
	return url.Values{}
}

func sendTo(v Variant, r Recipient) string {
	if s, ok := v.(SendToer); ok {
		return s.SendTo(r)
	}
	return r.Email
}

func redirect(v Variant, ev domain.Event) (string, string) {
	if r, ok := v.(Redirecter); ok {
		return r.Redirect(ev)
	}
	return "", ""
}

func tenantOf(v Variant, ev domain.Event, fallback string) string {
	if t, ok := v.(TenantResolver); ok {
		if tenant := t.Tenant(ev); tenant != "" {
			return tenant
		}
	}
	return fallback
}
