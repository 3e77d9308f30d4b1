package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// DomainEventArgs carries one published supply-chain event. Producers in
// other services insert it into the shared River tables.
type DomainEventArgs struct {
	Envelope domain.Envelope `json:"envelope"`
}

// Kind returns the job kind identifier for domain event intake.
func (DomainEventArgs) Kind() string { return "domain_event" }

// InsertOpts returns default insert options for domain events.
func (DomainEventArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueNotifications,
		MaxAttempts: 3,
	}
}

// EventDispatcher routes a decoded event to its handlers.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event *domain.DomainEvent) error
}

// DomainEventWorker decodes the envelope and dispatches it in process. The
// notification triggers are the registered handlers.
type DomainEventWorker struct {
	river.WorkerDefaults[DomainEventArgs]
	dispatcher EventDispatcher
}

// NewDomainEventWorker creates the worker.
func NewDomainEventWorker(dispatcher EventDispatcher) *DomainEventWorker {
	return &DomainEventWorker{dispatcher: dispatcher}
}

// Work decodes and dispatches. A malformed envelope is cancelled, not retried.
func (w *DomainEventWorker) Work(ctx context.Context, job *river.Job[DomainEventArgs]) error {
	if w == nil || w.dispatcher == nil {
		return fmt.Errorf("domain event worker is not initialized")
	}
	ev, err := job.Args.Envelope.Decode()
	if err != nil {
		logger.Warn("dropping undecodable domain event",
			zap.String("event_id", job.Args.Envelope.EventID),
			zap.String("subject_kind", string(job.Args.Envelope.SubjectKind)),
			zap.Error(err),
		)
		return river.JobCancel(err)
	}

	logger.Info("Processing domain event",
		zap.String("event_id", ev.EventID),
		zap.String("event_type", string(ev.EventType)),
		zap.Int("attempt", job.Attempt),
	)
	return w.dispatcher.Dispatch(ctx, ev)
}

// EventQueue publishes domain events through the domain_event job.
type EventQueue struct {
	inserter Inserter
}

// NewEventQueue creates an EventQueue.
func NewEventQueue(inserter Inserter) *EventQueue {
	return &EventQueue{inserter: inserter}
}

// Publish enqueues ev.
func (q *EventQueue) Publish(ctx context.Context, ev *domain.DomainEvent) error {
	env, err := domain.NewEnvelope(ev)
	if err != nil {
		return err
	}
	if _, err := q.inserter.Insert(ctx, DomainEventArgs{Envelope: env}, nil); err != nil {
		return fmt.Errorf("insert domain_event job for %s: %w", ev.EventID, err)
	}
	return nil
}
