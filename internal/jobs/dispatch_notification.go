package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// DispatchNotificationArgs carries only the notification id.
type DispatchNotificationArgs struct {
	NotificationID string `json:"notification_id"`
}

// Kind returns the job kind identifier for notification dispatch.
func (DispatchNotificationArgs) Kind() string { return "dispatch_notification" }

// InsertOpts keeps at most one pending dispatch per notification.
func (DispatchNotificationArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueNotifications,
		MaxAttempts: 5,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByQueue: true,
		},
	}
}

type notificationLoader interface {
	Get(ctx context.Context, id string) (*notification.Notification, error)
}

// DispatchNotificationWorker runs the channel sends for one stored
// notification. Channels already recorded on the row are not repeated, so a
// retry only redoes what failed.
type DispatchNotificationWorker struct {
	river.WorkerDefaults[DispatchNotificationArgs]
	store  notificationLoader
	sender notification.Enqueuer
}

// NewDispatchNotificationWorker creates the worker. sender is normally a
// notification.InlineSender, which performs the sends on the job goroutine.
func NewDispatchNotificationWorker(store notificationLoader, sender notification.Enqueuer) *DispatchNotificationWorker {
	return &DispatchNotificationWorker{store: store, sender: sender}
}

// Work loads the notification and sends it.
func (w *DispatchNotificationWorker) Work(ctx context.Context, job *river.Job[DispatchNotificationArgs]) error {
	if w == nil || w.store == nil || w.sender == nil {
		return fmt.Errorf("dispatch notification worker is not initialized")
	}
	id := job.Args.NotificationID

	n, err := w.store.Get(ctx, id)
	if errors.Is(err, notification.ErrNotFound) {
		logger.Warn("dispatch skipped: notification no longer exists",
			zap.String("notification_id", id),
		)
		return river.JobCancel(err)
	}
	if err != nil {
		return fmt.Errorf("load notification %s: %w", id, err)
	}

	if err := w.sender.EnqueueDispatch(ctx, n); err != nil {
		logger.Warn("notification dispatch failed",
			zap.String("notification_id", id),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)
		return err
	}
	return nil
}
