package variants

import (
	"net/url"

	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/idcodec"
)

// connectionBase covers the three connection variants; they differ in which
// side of the connection is told.
type connectionBase struct{}

func (connectionBase) ActionText() string    { return "View connection" }
func (connectionBase) EmailTemplate() string { return "connection" }

func (connectionBase) Policy() notification.Policy {
	return notification.Policy{
		Visibility: everyone,
		Push:       byRole(on, on, off, off),
		Email:      byRole(active, active, off, off),
		SMS:        nobody,
	}
}

func (connectionBase) SupplyChain(ev domain.Event) (string, error) {
	c, err := as[*domain.Connection](ev)
	if err != nil {
		return "", err
	}
	return c.SupplyChain.ID, nil
}

func (connectionBase) Tenant(ev domain.Event) string { return ev.Tenant() }

func (connectionBase) URLPath(domain.Event) string { return "/connections" }

func (connectionBase) URLParams(c notification.Content) url.Values {
	conn, err := as[*domain.Connection](c.Event)
	if err != nil {
		return nil
	}
	return url.Values{
		"connection":   {idcodec.Encode(conn.ID)},
		"supply_chain": {idcodec.Encode(conn.SupplyChain.ID)},
	}
}

func (connectionBase) Redirect(ev domain.Event) (string, string) {
	return ev.Ref().ID, string(domain.KindConnection)
}

// ConnectionInvited tells the target node that the source node wants to connect.
type ConnectionInvited struct{ connectionBase }

func (ConnectionInvited) UID() string { return "connection_invited" }

func (ConnectionInvited) ActorNode(ev domain.Event) (string, error) {
	c, err := as[*domain.Connection](ev)
	if err != nil {
		return "", err
	}
	return c.Source.ID, nil
}

func (ConnectionInvited) TargetNode(ev domain.Event) (string, error) {
	c, err := as[*domain.Connection](ev)
	if err != nil {
		return "", err
	}
	return c.Target.ID, nil
}

func (ConnectionInvited) Title(p *message.Printer, c notification.Content) (string, error) {
	conn, err := as[*domain.Connection](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s invited %s to connect", conn.Source.Name, conn.Target.Name), nil
}

func (ConnectionInvited) Body(p *message.Printer, c notification.Content) (string, error) {
	conn, err := as[*domain.Connection](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s wants to connect with %s in the %s supply chain.",
		conn.Source.Name, conn.Target.Name, conn.SupplyChain.Name), nil
}

// ConnectionAccepted tells the inviting node that its request was accepted.
type ConnectionAccepted struct{ connectionBase }

func (ConnectionAccepted) UID() string { return "connection_accepted" }

func (ConnectionAccepted) ActorNode(ev domain.Event) (string, error) {
	c, err := as[*domain.Connection](ev)
	if err != nil {
		return "", err
	}
	return c.Target.ID, nil
}

func (ConnectionAccepted) TargetNode(ev domain.Event) (string, error) {
	c, err := as[*domain.Connection](ev)
	if err != nil {
		return "", err
	}
	return c.Source.ID, nil
}

func (ConnectionAccepted) Title(p *message.Printer, c notification.Content) (string, error) {
	conn, err := as[*domain.Connection](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s accepted the connection request", conn.Target.Name), nil
}

func (ConnectionAccepted) Body(p *message.Printer, c notification.Content) (string, error) {
	conn, err := as[*domain.Connection](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s accepted your connection request in the %s supply chain.",
		conn.Target.Name, conn.SupplyChain.Name), nil
}

// ConnectionRejected tells the inviting node that its request was rejected.
type ConnectionRejected struct{ connectionBase }

func (ConnectionRejected) UID() string { return "connection_rejected" }

func (ConnectionRejected) Policy() notification.Policy {
	return notification.Policy{
		Visibility: everyone,
		Push:       byRole(active, active, off, off),
		Email:      byRole(active, active, off, off),
		SMS:        nobody,
	}
}

func (ConnectionRejected) ActorNode(ev domain.Event) (string, error) {
	return ConnectionAccepted{}.ActorNode(ev)
}

func (ConnectionRejected) TargetNode(ev domain.Event) (string, error) {
	return ConnectionAccepted{}.TargetNode(ev)
}

func (ConnectionRejected) Title(p *message.Printer, c notification.Content) (string, error) {
	conn, err := as[*domain.Connection](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s rejected the connection request", conn.Target.Name), nil
}

func (ConnectionRejected) Body(p *message.Printer, c notification.Content) (string, error) {
	conn, err := as[*domain.Connection](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s rejected your connection request in the %s supply chain.",
		conn.Target.Name, conn.SupplyChain.Name), nil
}
