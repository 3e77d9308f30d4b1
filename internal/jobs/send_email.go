package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// SendEmailArgs carries one rendered email.
type SendEmailArgs struct {
	Mail notification.Mail `json:"mail"`
}

// Kind returns the job kind identifier for email delivery.
func (SendEmailArgs) Kind() string { return "send_email" }

// InsertOpts returns default insert options for email jobs.
func (SendEmailArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueMail,
		MaxAttempts: 8,
	}
}

// Mailer delivers one email synchronously.
type Mailer interface {
	Send(ctx context.Context, m notification.Mail) error
}

// SendEmailWorker hands queued mail to the SMTP transport.
type SendEmailWorker struct {
	river.WorkerDefaults[SendEmailArgs]
	mailer Mailer
}

// NewSendEmailWorker creates the worker.
func NewSendEmailWorker(mailer Mailer) *SendEmailWorker {
	return &SendEmailWorker{mailer: mailer}
}

// Work sends the email.
func (w *SendEmailWorker) Work(ctx context.Context, job *river.Job[SendEmailArgs]) error {
	if w == nil || w.mailer == nil {
		return fmt.Errorf("send email worker is not initialized")
	}
	m := job.Args.Mail
	if m.To == "" {
		return river.JobCancel(fmt.Errorf("email %q has no recipient", m.Subject))
	}
	if err := w.mailer.Send(ctx, m); err != nil {
		return fmt.Errorf("send email to %s: %w", m.To, err)
	}
	logger.Info("email sent",
		zap.String("to", m.To),
		zap.Int("attempt", job.Attempt),
	)
	return nil
}
