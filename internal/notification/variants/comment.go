package variants

import (
	"net/url"

	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/idcodec"
)

// CommentAdded tells the owner of an object that someone commented on it.
type CommentAdded struct{}

func (CommentAdded) UID() string           { return "comment_added" }
func (CommentAdded) ActionText() string    { return "View comment" }
func (CommentAdded) EmailTemplate() string { return "comment" }

func (CommentAdded) Policy() notification.Policy {
	return notification.Policy{
		Visibility: everyone,
		Push:       ifActive,
		Email:      byRole(active, active, active, off),
		SMS:        nobody,
	}
}

func (CommentAdded) ActorNode(ev domain.Event) (string, error) {
	c, err := as[*domain.Comment](ev)
	if err != nil {
		return "", err
	}
	return c.Author.ID, nil
}

func (CommentAdded) TargetNode(ev domain.Event) (string, error) {
	c, err := as[*domain.Comment](ev)
	if err != nil {
		return "", err
	}
	return c.Node.ID, nil
}

func (CommentAdded) SupplyChain(ev domain.Event) (string, error) {
	c, err := as[*domain.Comment](ev)
	if err != nil {
		return "", err
	}
	return c.SupplyChain.ID, nil
}

func (CommentAdded) Tenant(ev domain.Event) string { return ev.Tenant() }

func (CommentAdded) Title(p *message.Printer, c notification.Content) (string, error) {
	cm, err := as[*domain.Comment](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s commented on %s", cm.AuthorName, p.Sprintf(string(cm.Subject.Kind))), nil
}

func (CommentAdded) Body(p *message.Printer, c notification.Content) (string, error) {
	cm, err := as[*domain.Comment](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s wrote: %s", cm.AuthorName, cm.Message), nil
}

func (CommentAdded) URLPath(domain.Event) string { return "/comments" }

func (CommentAdded) URLParams(c notification.Content) url.Values {
	cm, err := as[*domain.Comment](c.Event)
	if err != nil {
		return nil
	}
	return url.Values{
		"comment": {idcodec.Encode(cm.ID)},
		"subject": {idcodec.Encode(cm.Subject.ID)},
		"kind":    {string(cm.Subject.Kind)},
	}
}

// Redirect points at the commented object rather than the comment.
func (CommentAdded) Redirect(ev domain.Event) (string, string) {
	cm, err := as[*domain.Comment](ev)
	if err != nil {
		return "", ""
	}
	return cm.Subject.ID, string(cm.Subject.Kind)
}
