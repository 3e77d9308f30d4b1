package domain

// NodeRef is the part of a node that notification content needs.
type NodeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SupplyChainRef names the tenant-defined chain an object belongs to.
type SupplyChainRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Connection links a source node to a target node within a supply chain.
// The source sends the invitation; the target accepts or rejects it.
type Connection struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	SupplyChain SupplyChainRef   `json:"supply_chain"`
	Source      NodeRef          `json:"source"`
	Target      NodeRef          `json:"target"`
	Status      ConnectionStatus `json:"status"`
}

func (c *Connection) Ref() EventRef { return EventRef{Kind: KindConnection, ID: c.ID} }
func (c *Connection) Tenant() string { return c.TenantID }

// NodeMember is a user's membership in a node.
type NodeMember struct {
	ID       string  `json:"id"`
	TenantID string  `json:"tenant_id"`
	Node     NodeRef `json:"node"`
	UserID   string  `json:"user_id"`
	Role     string  `json:"role"`
	AddedBy  string  `json:"added_by"`
}

func (m *NodeMember) Ref() EventRef { return EventRef{Kind: KindNodeMember, ID: m.ID} }
func (m *NodeMember) Tenant() string { return m.TenantID }

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimVerified ClaimStatus = "verified"
	ClaimRejected ClaimStatus = "rejected"
)

// Claim is a certification or assessment attached to a node and reviewed by
// a verifier node.
type Claim struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	Name        string         `json:"name"`
	SupplyChain SupplyChainRef `json:"supply_chain"`
	Node        NodeRef        `json:"node"`
	Verifier    NodeRef        `json:"verifier"`
	Status      ClaimStatus    `json:"status"`
	Note        string         `json:"note,omitempty"`
}

func (c *Claim) Ref() EventRef { return EventRef{Kind: KindClaim, ID: c.ID} }
func (c *Claim) Tenant() string { return c.TenantID }

type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionApproved TransactionStatus = "approved"
	TransactionRejected TransactionStatus = "rejected"
)

// Transaction transfers a product batch from Source to Destination.
type Transaction struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenant_id"`
	Number      string            `json:"number"`
	SupplyChain SupplyChainRef    `json:"supply_chain"`
	Source      NodeRef           `json:"source"`
	Destination NodeRef           `json:"destination"`
	Product     string            `json:"product"`
	Quantity    float64           `json:"quantity"`
	Unit        string            `json:"unit"`
	Status      TransactionStatus `json:"status"`
	Reason      string            `json:"reason,omitempty"`
}

func (t *Transaction) Ref() EventRef { return EventRef{Kind: KindTransaction, ID: t.ID} }
func (t *Transaction) Tenant() string { return t.TenantID }

type PurchaseOrderStatus string

const (
	PurchaseOrderSent      PurchaseOrderStatus = "sent"
	PurchaseOrderAccepted  PurchaseOrderStatus = "accepted"
	PurchaseOrderDeclined  PurchaseOrderStatus = "declined"
	PurchaseOrderCancelled PurchaseOrderStatus = "cancelled"
	PurchaseOrderFulfilled PurchaseOrderStatus = "fulfilled"
)

// PurchaseOrder is placed by Buyer with Supplier. UpdatedBy is the node whose
// action caused the latest state change.
type PurchaseOrder struct {
	ID          string              `json:"id"`
	TenantID    string              `json:"tenant_id"`
	Number      string              `json:"number"`
	SupplyChain SupplyChainRef      `json:"supply_chain"`
	Buyer       NodeRef             `json:"buyer"`
	Supplier    NodeRef             `json:"supplier"`
	UpdatedBy   string              `json:"updated_by"`
	Status      PurchaseOrderStatus `json:"status"`
}

// Ref names one state of the order rather than the order itself. An order
// that moves through several states raises a distinct event for each.
func (p *PurchaseOrder) Ref() EventRef {
	return EventRef{Kind: KindPurchaseOrder, ID: p.ID + ":" + string(p.Status)}
}

func (p *PurchaseOrder) Tenant() string { return p.TenantID }

// Counterparty returns the node on the other side of UpdatedBy.
func (p *PurchaseOrder) Counterparty() NodeRef {
	if p.UpdatedBy == p.Buyer.ID {
		return p.Supplier
	}
	return p.Buyer
}

// Comment is left by Author on an object owned by Node.
type Comment struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	SupplyChain SupplyChainRef `json:"supply_chain"`
	Author      NodeRef        `json:"author"`
	AuthorName  string         `json:"author_name"`
	Node        NodeRef        `json:"node"`
	Subject     EventRef       `json:"subject"`
	Message     string         `json:"message"`
}

func (c *Comment) Ref() EventRef { return EventRef{Kind: KindComment, ID: c.ID} }
func (c *Comment) Tenant() string { return c.TenantID }
