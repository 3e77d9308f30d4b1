package notification

import (
	"context"
	"errors"
)

// Enqueuer hands a stored notification to the delivery path. The River
// queue in internal/jobs is the production implementation.
type Enqueuer interface {
	EnqueueDispatch(ctx context.Context, n *Notification) error
}

// InlineSender delivers on the caller's goroutine. It is used when async
// dispatch is turned off and in tests.
type InlineSender struct {
	Dispatcher *Dispatcher
	// SMS also runs SendSMS after Send.
	SMS bool
}

// EnqueueDispatch sends n immediately.
func (s InlineSender) EnqueueDispatch(ctx context.Context, n *Notification) error {
	err := s.Dispatcher.Send(ctx, n)
	if s.SMS {
		err = errors.Join(err, s.Dispatcher.SendSMS(ctx, n))
	}
	return err
}
