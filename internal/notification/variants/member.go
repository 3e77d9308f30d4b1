package variants

import (
	"net/url"

	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/idcodec"
)

// NodeMemberAdded welcomes a user to a node. The recipient has just been
// given a role there, so every role is told on every channel but SMS.
type NodeMemberAdded struct{}

func (NodeMemberAdded) UID() string           { return "node_member_added" }
func (NodeMemberAdded) ActionText() string    { return "View node" }
func (NodeMemberAdded) EmailTemplate() string { return "member" }

func (NodeMemberAdded) Policy() notification.Policy {
	return notification.Policy{
		Visibility: everyone,
		Push:       ifActive,
		Email:      everyone,
		SMS:        nobody,
	}
}

// ActorNode is the node itself; membership changes are made by its admins.
func (NodeMemberAdded) ActorNode(ev domain.Event) (string, error) {
	m, err := as[*domain.NodeMember](ev)
	if err != nil {
		return "", err
	}
	return m.Node.ID, nil
}

func (NodeMemberAdded) TargetNode(ev domain.Event) (string, error) {
	return NodeMemberAdded{}.ActorNode(ev)
}

// SupplyChain is empty: a membership belongs to the node, not to a chain.
func (NodeMemberAdded) SupplyChain(ev domain.Event) (string, error) {
	if _, err := as[*domain.NodeMember](ev); err != nil {
		return "", err
	}
	return "", nil
}

func (NodeMemberAdded) Title(p *message.Printer, c notification.Content) (string, error) {
	m, err := as[*domain.NodeMember](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("You were added to %s", m.Node.Name), nil
}

func (NodeMemberAdded) Body(p *message.Printer, c notification.Content) (string, error) {
	m, err := as[*domain.NodeMember](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("You are now a member of %s with the %s role.", m.Node.Name, m.Role), nil
}

func (NodeMemberAdded) URLPath(domain.Event) string { return "/nodes" }

func (NodeMemberAdded) URLParams(c notification.Content) url.Values {
	m, err := as[*domain.NodeMember](c.Event)
	if err != nil {
		return nil
	}
	return url.Values{"node": {idcodec.Encode(m.Node.ID)}}
}

func (NodeMemberAdded) Redirect(ev domain.Event) (string, string) {
	m, err := as[*domain.NodeMember](ev)
	if err != nil {
		return "", ""
	}
	return m.Node.ID, "node"
}
