// Package jobs defines the River job types that deliver notifications.
//
// Jobs carry identifiers, not records: the dispatch job loads the
// notification by id so a retried job always sees the channel outcomes
// already stored.
package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// Queue names.
const (
	QueueNotifications = "notifications"
	QueueMail          = "mail"
)

// Inserter is the subset of river.Client used to enqueue jobs.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// DispatchQueue implements notification.Enqueuer with the
// dispatch_notification job.
type DispatchQueue struct {
	inserter Inserter
}

// NewDispatchQueue creates a DispatchQueue.
func NewDispatchQueue(inserter Inserter) *DispatchQueue {
	return &DispatchQueue{inserter: inserter}
}

// EnqueueDispatch inserts a dispatch job for n. A job already pending for the
// same notification absorbs the insert.
func (q *DispatchQueue) EnqueueDispatch(ctx context.Context, n *notification.Notification) error {
	res, err := q.inserter.Insert(ctx, DispatchNotificationArgs{NotificationID: n.ID}, nil)
	if err != nil {
		return fmt.Errorf("insert dispatch job for %s: %w", n.ID, err)
	}
	if res != nil && res.UniqueSkippedAsDuplicate {
		logger.Debug("dispatch job already pending",
			zap.String("notification_id", n.ID),
		)
	}
	return nil
}

// MailQueue implements notification.MailSink with the send_email job.
type MailQueue struct {
	inserter Inserter
}

// NewMailQueue creates a MailQueue.
func NewMailQueue(inserter Inserter) *MailQueue {
	return &MailQueue{inserter: inserter}
}

// Enqueue inserts a send_email job for m.
func (q *MailQueue) Enqueue(ctx context.Context, m notification.Mail) error {
	if _, err := q.inserter.Insert(ctx, SendEmailArgs{Mail: m}, nil); err != nil {
		return fmt.Errorf("insert send_email job for %s: %w", m.To, err)
	}
	return nil
}

var (
	_ notification.Enqueuer = (*DispatchQueue)(nil)
	_ notification.MailSink = (*MailQueue)(nil)
)
