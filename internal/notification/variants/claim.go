package variants

import (
	"net/url"

	"golang.org/x/text/message"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/idcodec"
)

type claimBase struct{}

func (claimBase) ActionText() string    { return "View claim" }
func (claimBase) EmailTemplate() string { return "claim" }

func (claimBase) SupplyChain(ev domain.Event) (string, error) {
	c, err := as[*domain.Claim](ev)
	if err != nil {
		return "", err
	}
	return c.SupplyChain.ID, nil
}

func (claimBase) Tenant(ev domain.Event) string { return ev.Tenant() }

func (claimBase) URLPath(domain.Event) string { return "/claims" }

func (claimBase) URLParams(c notification.Content) url.Values {
	claim, err := as[*domain.Claim](c.Event)
	if err != nil {
		return nil
	}
	return url.Values{
		"claim": {idcodec.Encode(claim.ID)},
		"node":  {idcodec.Encode(claim.Node.ID)},
	}
}

func (claimBase) Redirect(ev domain.Event) (string, string) {
	return ev.Ref().ID, string(domain.KindClaim)
}

// verifierSide reports claim outcomes to the node that owns the claim.
type verifierSide struct{ claimBase }

func (verifierSide) Policy() notification.Policy {
	return notification.Policy{
		Visibility: everyone,
		Push:       byRole(on, off, active, off),
		Email:      byRole(on, off, active, off),
		SMS:        nobody,
	}
}

func (verifierSide) ActorNode(ev domain.Event) (string, error) {
	c, err := as[*domain.Claim](ev)
	if err != nil {
		return "", err
	}
	return c.Verifier.ID, nil
}

func (verifierSide) TargetNode(ev domain.Event) (string, error) {
	c, err := as[*domain.Claim](ev)
	if err != nil {
		return "", err
	}
	return c.Node.ID, nil
}

// ClaimAttached asks the verifier node to review a claim.
type ClaimAttached struct{ claimBase }

func (ClaimAttached) UID() string { return "claim_attached" }

func (ClaimAttached) Policy() notification.Policy {
	return notification.Policy{
		Visibility: byRole(on, off, on, off),
		Push:       byRole(on, off, active, off),
		Email:      byRole(active, off, active, off),
		SMS:        nobody,
	}
}

func (ClaimAttached) ActorNode(ev domain.Event) (string, error) {
	return verifierSide{}.TargetNode(ev)
}

func (ClaimAttached) TargetNode(ev domain.Event) (string, error) {
	return verifierSide{}.ActorNode(ev)
}

func (ClaimAttached) Title(p *message.Printer, c notification.Content) (string, error) {
	claim, err := as[*domain.Claim](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s attached the claim %s", claim.Node.Name, claim.Name), nil
}

func (ClaimAttached) Body(p *message.Printer, c notification.Content) (string, error) {
	claim, err := as[*domain.Claim](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s asks %s to verify the claim %s.", claim.Node.Name, claim.Verifier.Name, claim.Name), nil
}

// ClaimVerified tells the claim owner it was verified.
type ClaimVerified struct{ verifierSide }

func (ClaimVerified) UID() string { return "claim_verified" }

func (ClaimVerified) Title(p *message.Printer, c notification.Content) (string, error) {
	claim, err := as[*domain.Claim](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("Claim %s was verified", claim.Name), nil
}

func (ClaimVerified) Body(p *message.Printer, c notification.Content) (string, error) {
	claim, err := as[*domain.Claim](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s verified the claim %s for %s.", claim.Verifier.Name, claim.Name, claim.Node.Name), nil
}

// ClaimRejected tells the claim owner it was rejected.
type ClaimRejected struct{ verifierSide }

func (ClaimRejected) UID() string { return "claim_rejected" }

func (ClaimRejected) Title(p *message.Printer, c notification.Content) (string, error) {
	claim, err := as[*domain.Claim](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("Claim %s was rejected", claim.Name), nil
}

func (ClaimRejected) Body(p *message.Printer, c notification.Content) (string, error) {
	claim, err := as[*domain.Claim](c.Event)
	if err != nil {
		return "", err
	}
	return p.Sprintf("%s rejected the claim %s for %s.", claim.Verifier.Name, claim.Name, claim.Node.Name), nil
}
