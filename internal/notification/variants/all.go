package variants

import "tracehub.io/tracehub/internal/notification"

// All returns one value of every notification type.
func All() []notification.Variant {
	return []notification.Variant{
		ConnectionInvited{},
		ConnectionAccepted{},
		ConnectionRejected{},
		NodeMemberAdded{},
		ClaimAttached{},
		ClaimVerified{},
		ClaimRejected{},
		TransactionReceived{},
		TransactionApproved{},
		TransactionRejected{},
		PurchaseOrderStateChanged{},
		CommentAdded{},
	}
}

// Registry builds the registry of every notification type.
func Registry() (*notification.Registry, error) {
	return notification.NewRegistry(All()...)
}
