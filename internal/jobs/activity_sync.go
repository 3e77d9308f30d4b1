package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/pkg/logger"
)

// ActivitySyncInterval is how often the periodic activity_sync job runs.
const ActivitySyncInterval = 15 * time.Minute

// ActivitySyncArgs is a periodic job that copies Redis last-seen times into
// users.last_active_at and drops entries older than the activity window.
type ActivitySyncArgs struct{}

// Kind returns the job kind identifier for activity sync.
func (ActivitySyncArgs) Kind() string { return "activity_sync" }

// InsertOpts ensures at most one sync is enqueued per interval.
func (ActivitySyncArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: ActivitySyncInterval,
			ByQueue:  true,
			ByArgs:   true,
		},
	}
}

// ActivitySource is the hot store of recent user activity.
type ActivitySource interface {
	SeenSince(ctx context.Context, since time.Time) (map[string]time.Time, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// ActivityRecorder persists last-seen times.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, seen map[string]time.Time) (int, error)
}

// ActivitySyncWorker moves activity from Redis to PostgreSQL.
type ActivitySyncWorker struct {
	river.WorkerDefaults[ActivitySyncArgs]
	source   ActivitySource
	recorder ActivityRecorder
	window   time.Duration
	now      func() time.Time
}

// NewActivitySyncWorker creates the worker. window bounds both what is read
// and what is kept in Redis.
func NewActivitySyncWorker(source ActivitySource, recorder ActivityRecorder, window time.Duration) *ActivitySyncWorker {
	return &ActivitySyncWorker{
		source:   source,
		recorder: recorder,
		window:   window,
		now:      time.Now,
	}
}

// Work copies then prunes.
func (w *ActivitySyncWorker) Work(ctx context.Context, _ *river.Job[ActivitySyncArgs]) error {
	if w == nil || w.source == nil || w.recorder == nil {
		return fmt.Errorf("activity sync worker is not initialized")
	}

	cutoff := w.now().UTC().Add(-w.window)
	seen, err := w.source.SeenSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("read activity since %s: %w", cutoff.Format(time.RFC3339), err)
	}
	updated, err := w.recorder.RecordActivity(ctx, seen)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	pruned, err := w.source.Prune(ctx, cutoff)
	if err != nil {
		// the copy already succeeded; stale entries are retried next run
		logger.Warn("failed to prune activity entries", zap.Error(err))
	}

	logger.Info("activity sync completed",
		zap.Int("seen", len(seen)),
		zap.Int("updated_rows", updated),
		zap.Int64("pruned", pruned),
		zap.String("cutoff", cutoff.Format(time.RFC3339)),
	)
	return nil
}
