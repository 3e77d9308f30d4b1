package handlers

import (
	"time"

	"golang.org/x/text/language"

	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/idcodec"
)

// EventRef identifies the domain object a notification is about.
type EventRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Notification is the inbox item payload.
type Notification struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Language     string     `json:"language"`
	IsRead       bool       `json:"is_read"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	ActionURL    string     `json:"action_url,omitempty"`
	ActionText   string     `json:"action_text,omitempty"`
	ActorNode    string     `json:"actor_node,omitempty"`
	TargetNode   string     `json:"target_node,omitempty"`
	SupplyChain  string     `json:"supply_chain,omitempty"`
	RedirectID   string     `json:"redirect_id,omitempty"`
	RedirectType string     `json:"redirect_type,omitempty"`
	Event        EventRef   `json:"event"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Pagination describes the slice of the inbox returned.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// NotificationList is the list response.
type NotificationList struct {
	Items      []Notification `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

// NodeSummary is one row of the summary response.
type NodeSummary struct {
	Node   string `json:"node"`
	Unread int    `json:"unread"`
	Total  int    `json:"total"`
}

// NotificationSummary is the summary response.
type NotificationSummary struct {
	Items []NodeSummary `json:"items"`
}

// MarkReadRequest selects notifications by id or all of them.
type MarkReadRequest struct {
	IDs []string `json:"ids"`
	All *bool    `json:"all"`
}

// MarkReadResult reports how many notifications changed.
type MarkReadResult struct {
	Updated int `json:"updated"`
}

// notificationToAPI renders n in the best locale for accept, falling back to
// the language the notification was created in.
func notificationToAPI(n *notification.Notification, accept []language.Tag) Notification {
	locale := pickLocale(n, accept)
	return Notification{
		ID:           idcodec.Encode(n.ID),
		Type:         n.Type,
		Title:        n.TitleIn(locale),
		Body:         n.BodyIn(locale),
		Language:     locale,
		IsRead:       n.IsRead,
		ReadAt:       n.ReadAt,
		ActionURL:    n.ActionURL,
		ActionText:   n.ActionText,
		ActorNode:    encodeOptional(n.ActorNodeID),
		TargetNode:   encodeOptional(n.TargetNodeID),
		SupplyChain:  encodeOptional(n.SupplyChainID),
		RedirectID:   encodeOptional(n.RedirectID),
		RedirectType: n.RedirectType,
		Event:        EventRef{Kind: string(n.Event.Kind), ID: idcodec.Encode(n.Event.ID)},
		CreatedAt:    n.CreatedAt,
	}
}

func pickLocale(n *notification.Notification, accept []language.Tag) string {
	for _, tag := range accept {
		for tag != language.Und {
			if _, ok := n.Title[tag.String()]; ok {
				return tag.String()
			}
			tag = tag.Parent()
		}
	}
	return n.Language
}

func encodeOptional(id string) string {
	if id == "" {
		return ""
	}
	return idcodec.Encode(id)
}
