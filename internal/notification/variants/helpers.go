// Package variants holds the concrete notification types. All lists them in
// registration order.
package variants

import (
	"fmt"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
)

// as asserts the event type a variant was built for.
func as[T domain.Event](ev domain.Event) (T, error) {
	t, ok := ev.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("unexpected event %T, want %T", ev, zero)
	}
	return t, nil
}

// byRole builds a per-role matrix in AllRoles order.
func byRole(admin, connection, transaction, reporter notification.Verdict) notification.Matrix {
	return notification.PerRole(map[notification.Role]notification.Verdict{
		notification.RoleNodeAdmin:          admin,
		notification.RoleConnectionManager:  connection,
		notification.RoleTransactionManager: transaction,
		notification.RoleReporter:           reporter,
	})
}

var (
	everyone = notification.Wildcard(notification.Enabled)
	nobody   = notification.Wildcard(notification.Disabled)
	ifActive = notification.Wildcard(notification.IfActive)
)

const (
	on     = notification.Enabled
	off    = notification.Disabled
	active = notification.IfActive
)
