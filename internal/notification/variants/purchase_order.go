package variants

import (
	"net/url"

	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/idcodec"
)

// PurchaseOrderStateChanged tells the counterparty of whoever moved the
// order to its new state.
type PurchaseOrderStateChanged struct{}

func (PurchaseOrderStateChanged) UID() string           { return "purchase_order_state_changed" }
func (PurchaseOrderStateChanged) ActionText() string    { return "View purchase order" }
func (PurchaseOrderStateChanged) EmailTemplate() string { return "purchase_order" }

func (PurchaseOrderStateChanged) Policy() notification.Policy {
	return notification.Policy{
		Visibility: byRole(on, on, on, off),
		Push:       byRole(on, active, on, off),
		Email:      byRole(active, active, active, off),
		SMS:        nobody,
	}
}

func (PurchaseOrderStateChanged) ActorNode(ev domain.Event) (string, error) {
	po, err := as[*domain.PurchaseOrder](ev)
	if err != nil {
		return "", err
	}
	return po.UpdatedBy, nil
}

func (PurchaseOrderStateChanged) TargetNode(ev domain.Event) (string, error) {
	po, err := as[*domain.PurchaseOrder](ev)
	if err != nil {
		return "", err
	}
	return po.Counterparty().ID, nil
}

func (PurchaseOrderStateChanged) SupplyChain(ev domain.Event) (string, error) {
	po, err := as[*domain.PurchaseOrder](ev)
	if err != nil {
		return "", err
	}
	return po.SupplyChain.ID, nil
}

func (PurchaseOrderStateChanged) Tenant(ev domain.Event) string { return ev.Tenant() }

func (PurchaseOrderStateChanged) Title(p *message.Printer, c notification.Content) (string, error) {
	po, err := as[*domain.PurchaseOrder](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("Purchase order %s is now %s", po.Number, p.Sprintf(string(po.Status))), nil
}

func (PurchaseOrderStateChanged) Body(p *message.Printer, c notification.Content) (string, error) {
	po, err := as[*domain.PurchaseOrder](c.Event)
	if err != nil {
		return "", err
	}
	actor := po.Buyer
	if po.UpdatedBy == po.Supplier.ID {
		actor = po.Supplier
	}
	return p.Sprintf("%s marked purchase order %s as %s.", actor.Name, po.Number, p.Sprintf(string(po.Status))), nil
}

func (PurchaseOrderStateChanged) URLPath(domain.Event) string { return "/purchase-orders" }

func (PurchaseOrderStateChanged) URLParams(c notification.Content) url.Values {
	po, err := as[*domain.PurchaseOrder](c.Event)
	if err != nil {
		return nil
	}
	return url.Values{"purchase_order": {idcodec.Encode(po.ID)}}
}

func (PurchaseOrderStateChanged) Redirect(ev domain.Event) (string, string) {
	po, err := as[*domain.PurchaseOrder](ev)
	if err != nil {
		return "", ""
	}
	return po.ID, string(domain.KindPurchaseOrder)
}
