package domain

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/pkg/logger"
)

// EventHandler processes a domain event.
type EventHandler func(ctx context.Context, event *DomainEvent) error

type subscription struct {
	name    string
	handler EventHandler
}

// EventDispatcher fans a domain event out to its subscribers in process.
// Delivery is best effort: every subscriber runs even when an earlier one
// fails or panics.
type EventDispatcher struct {
	mu   sync.RWMutex
	subs map[EventType][]subscription
}

func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{subs: make(map[EventType][]subscription)}
}

// Subscribe adds handler under name for each of the given event types.
func (d *EventDispatcher) Subscribe(name string, handler EventHandler, types ...EventType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range types {
		d.subs[t] = append(d.subs[t], subscription{name: name, handler: handler})
	}
}

// Registered reports whether eventType has any subscriber.
func (d *EventDispatcher) Registered(eventType EventType) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs[eventType]) > 0
}

// Dispatch runs the subscribers of event in subscription order and returns
// all of their failures together. An event nobody listens to is dropped with
// a warning.
func (d *EventDispatcher) Dispatch(ctx context.Context, event *DomainEvent) error {
	if event.Subject == nil {
		return fmt.Errorf("event %s has no subject", event.EventID)
	}

	d.mu.RLock()
	subs := d.subs[event.EventType]
	d.mu.RUnlock()

	if len(subs) == 0 {
		logger.Warn("domain event has no subscribers",
			zap.String("event_type", string(event.EventType)),
			zap.String("event_id", event.EventID),
		)
		return nil
	}

	var result *multierror.Error
	for _, s := range subs {
		if err := s.run(ctx, event); err != nil {
			logger.Error("domain event subscriber failed",
				zap.String("subscriber", s.name),
				zap.String("event_type", string(event.EventType)),
				zap.String("event_id", event.EventID),
				zap.String("subject", event.Subject.Ref().String()),
				zap.Error(err),
			)
			result = multierror.Append(result, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return result.ErrorOrNil()
}

func (s subscription) run(ctx context.Context, event *DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.handler(ctx, event)
}
