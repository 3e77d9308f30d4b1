package variants

import (
	"net/url"

	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/idcodec"
)

type transactionBase struct{}

func (transactionBase) ActionText() string    { return "View transaction" }
func (transactionBase) EmailTemplate() string { return "transaction" }

func (transactionBase) SupplyChain(ev domain.Event) (string, error) {
	t, err := as[*domain.Transaction](ev)
	if err != nil {
		return "", err
	}
	return t.SupplyChain.ID, nil
}

func (transactionBase) Tenant(ev domain.Event) string { return ev.Tenant() }

func (transactionBase) URLPath(domain.Event) string { return "/transactions" }

func (transactionBase) URLParams(c notification.Content) url.Values {
	t, err := as[*domain.Transaction](c.Event)
	if err != nil {
		return nil
	}
	return url.Values{
		"transaction":  {idcodec.Encode(t.ID)},
		"supply_chain": {idcodec.Encode(t.SupplyChain.ID)},
	}
}

func (transactionBase) Redirect(ev domain.Event) (string, string) {
	return ev.Ref().ID, string(domain.KindTransaction)
}

// TransactionReceived tells the destination node that a batch is on its way.
// It is the only variant that may text node admins.
type TransactionReceived struct{ transactionBase }

func (TransactionReceived) UID() string { return "transaction_received" }

func (TransactionReceived) Policy() notification.Policy {
	return notification.Policy{
		Visibility: byRole(on, off, on, on),
		Push:       byRole(on, off, on, off),
		Email:      byRole(active, off, on, off),
		SMS:        byRole(active, off, off, off),
	}
}

func (TransactionReceived) ActorNode(ev domain.Event) (string, error) {
	t, err := as[*domain.Transaction](ev)
	if err != nil {
		return "", err
	}
	return t.Source.ID, nil
}

func (TransactionReceived) TargetNode(ev domain.Event) (string, error) {
	t, err := as[*domain.Transaction](ev)
	if err != nil {
		return "", err
	}
	return t.Destination.ID, nil
}

func (TransactionReceived) Title(p *message.Printer, c notification.Content) (string, error) {
	t, err := as[*domain.Transaction](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s sent you transaction %s", t.Source.Name, t.Number), nil
}

func (TransactionReceived) Body(p *message.Printer, c notification.Content) (string, error) {
	t, err := as[*domain.Transaction](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s sent %v %s of %s to %s.", t.Source.Name, t.Quantity, t.Unit, t.Product, t.Destination.Name), nil
}

// transactionOutcome reports the destination's decision back to the source.
type transactionOutcome struct{ transactionBase }

func (transactionOutcome) Policy() notification.Policy {
	return notification.Policy{
		Visibility: byRole(on, off, on, on),
		Push:       byRole(active, off, on, off),
		Email:      byRole(active, off, active, off),
		SMS:        nobody,
	}
}

func (transactionOutcome) ActorNode(ev domain.Event) (string, error) {
	return TransactionReceived{}.TargetNode(ev)
}

func (transactionOutcome) TargetNode(ev domain.Event) (string, error) {
	return TransactionReceived{}.ActorNode(ev)
}

// TransactionApproved tells the source node its transaction was approved.
type TransactionApproved struct{ transactionOutcome }

func (TransactionApproved) UID() string { return "transaction_approved" }

func (TransactionApproved) Title(p *message.Printer, c notification.Content) (string, error) {
	t, err := as[*domain.Transaction](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("Transaction %s was approved", t.Number), nil
}

func (TransactionApproved) Body(p *message.Printer, c notification.Content) (string, error) {
	t, err := as[*domain.Transaction](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s approved transaction %s.", t.Destination.Name, t.Number), nil
}

// TransactionRejected tells the source node its transaction was rejected.
type TransactionRejected struct{ transactionOutcome }

func (TransactionRejected) UID() string { return "transaction_rejected" }

func (TransactionRejected) Title(p *message.Printer, c notification.Content) (string, error) {
	t, err := as[*domain.Transaction](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("Transaction %s was rejected", t.Number), nil
}

func (TransactionRejected) Body(p *message.Printer, c notification.Content) (string, error) {
	t, err := as[*domain.Transaction](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s rejected transaction %s.", t.Destination.Name, t.Number), nil
}
