package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/metrics"
	"tracehub.io/tracehub/internal/pkg/logger"
)

// MinPhoneLength is the shortest phone number SMS is attempted for.
const MinPhoneLength = 7

//go:generate mockgen -source=dispatch.go -destination=mocks/dispatch.go -package=mocks

// Mail is one outgoing email.
type Mail struct {
	Subject string `json:"subject"`
	To      string `json:"to"`
	HTML    string `json:"html"`
}

// MailSink queues mail for asynchronous delivery and returns immediately.
type MailSink interface {
	Enqueue(ctx context.Context, m Mail) error
}

// SMSSink hands a message to the SMS provider and returns its message id.
type SMSSink interface {
	Send(ctx context.Context, phone, body string) (string, error)
}

// PushMessage is one mobile push.
type PushMessage struct {
	NotificationID string
	Token          string
	Title          string
	Body           string
	URL            string
}

// PushSink delivers mobile pushes.
type PushSink interface {
	Push(ctx context.Context, msg PushMessage) error
}

// NopPush is the default push sink.
type NopPush struct{}

func (NopPush) Push(context.Context, PushMessage) error { return nil }

// Dispatcher performs channel sends for stored notifications.
type Dispatcher struct {
	registry  *Registry
	store     Store
	directory Directory
	renderer  *EmailRenderer
	localizer Localizer
	mail      MailSink
	sms       SMSSink
	push      PushSink
	now       func() time.Time
}

// DispatcherDeps groups the Dispatcher collaborators.
type DispatcherDeps struct {
	Registry  *Registry
	Store     Store
	Directory Directory
	Renderer  *EmailRenderer
	Localizer Localizer
	Mail      MailSink
	SMS       SMSSink
	Push      PushSink
}

// NewDispatcher creates a Dispatcher. A nil Push sink becomes NopPush.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	push := deps.Push
	if push == nil {
		push = NopPush{}
	}
	return &Dispatcher{
		registry:  deps.Registry,
		store:     deps.Store,
		directory: deps.Directory,
		renderer:  deps.Renderer,
		localizer: deps.Localizer,
		mail:      deps.Mail,
		sms:       deps.SMS,
		push:      push,
		now:       time.Now,
	}
}

// Send runs the email and push paths for n. The two are independent: a
// failure in one does not skip the other, and both errors are returned
// joined. A channel already recorded as done on n is not repeated. SMS is not
// part of Send; see SendSMS.
func (d *Dispatcher) Send(ctx context.Context, n *Notification) error {
	return errors.Join(d.sendEmail(ctx, n), d.sendPush(ctx, n))
}

// SendByID loads the notification and calls Send.
func (d *Dispatcher) SendByID(ctx context.Context, id string) error {
	n, err := d.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load notification %s: %w", id, err)
	}
	return d.Send(ctx, n)
}

func (d *Dispatcher) sendEmail(ctx context.Context, n *Notification) error {
	start := time.Now()
	if !n.Flags.Email || n.SendTo == "" || n.EmailQueuedAt != nil {
		metrics.ChannelSend(string(ChannelEmail), metrics.StatusSkipped, start)
		return nil
	}

	err := d.queueEmail(ctx, n)
	metrics.ChannelSend(string(ChannelEmail), metrics.StatusOf(err), start)
	if err != nil {
		return fmt.Errorf("email %s: %w", n.ID, err)
	}
	return nil
}

func (d *Dispatcher) queueEmail(ctx context.Context, n *Notification) error {
	v, ok := d.registry.Lookup(n.Type)
	if !ok {
		return fmt.Errorf("unknown notification type %q", n.Type)
	}
	ev, err := domain.DecodeEvent(n.Event.Kind, n.EventData)
	if err != nil {
		return err
	}

	locale := n.Language
	if locale == "" {
		locale = d.localizer.Base()
	}
	html, err := d.renderer.Render(locale, v.EmailTemplate(), EmailData{
		Title:        n.TitleIn(locale),
		Body:         n.BodyIn(locale),
		ActionURL:    n.ActionURL,
		ActionText:   n.ActionText,
		ActionObject: ev,
		Notification: n,
		Context:      n.Context,
	})
	if err != nil {
		return err
	}

	if err := d.mail.Enqueue(ctx, Mail{Subject: n.TitleIn(locale), To: n.SendTo, HTML: html}); err != nil {
		return err
	}
	now := d.now()
	n.EmailQueuedAt = &now
	if err := d.store.MarkEmailQueued(ctx, n.ID, now); err != nil {
		logger.Warn("failed to record email dispatch",
			zap.String("notification_id", n.ID),
			zap.Error(err),
		)
	}
	return nil
}

func (d *Dispatcher) sendPush(ctx context.Context, n *Notification) error {
	start := time.Now()
	if !n.Flags.Push || n.PushSentAt != nil {
		metrics.ChannelSend(string(ChannelPush), metrics.StatusSkipped, start)
		return nil
	}

	recipient, err := d.directory.Recipient(ctx, n.RecipientID)
	if err != nil {
		metrics.ChannelSend(string(ChannelPush), metrics.StatusFailed, start)
		return fmt.Errorf("push %s: load recipient: %w", n.ID, err)
	}
	if recipient.PushToken == "" {
		metrics.ChannelSend(string(ChannelPush), metrics.StatusSkipped, start)
		return nil
	}

	err = d.push.Push(ctx, PushMessage{
		NotificationID: n.ID,
		Token:          recipient.PushToken,
		Title:          n.TitleIn(n.Language),
		Body:           n.BodyIn(n.Language),
		URL:            n.ActionURL,
	})
	metrics.ChannelSend(string(ChannelPush), metrics.StatusOf(err), start)
	if err != nil {
		return fmt.Errorf("push %s: %w", n.ID, err)
	}
	now := d.now()
	n.PushSentAt = &now
	if err := d.store.MarkPushSent(ctx, n.ID, now); err != nil {
		logger.Warn("failed to record push dispatch",
			zap.String("notification_id", n.ID),
			zap.Error(err),
		)
	}
	return nil
}

// SendSMS sends the SMS for n when eligible and the recipient has a usable
// phone number. A provider failure is stored on the record as text and is
// not returned; only a failure to record the outcome is. A recorded outcome
// is never overwritten.
func (d *Dispatcher) SendSMS(ctx context.Context, n *Notification) error {
	start := time.Now()
	if !n.Flags.SMS || n.SMSMessageID != "" || n.SMSFailure != "" {
		metrics.ChannelSend(string(ChannelSMS), metrics.StatusSkipped, start)
		return nil
	}
	recipient, err := d.directory.Recipient(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("sms %s: load recipient: %w", n.ID, err)
	}
	if len(recipient.Phone) < MinPhoneLength {
		metrics.ChannelSend(string(ChannelSMS), metrics.StatusSkipped, start)
		return nil
	}

	messageID, sendErr := d.sms.Send(ctx, recipient.Phone, n.BodyIn(n.Language))
	metrics.ChannelSend(string(ChannelSMS), metrics.StatusOf(sendErr), start)

	var failure string
	if sendErr != nil {
		failure = sendErr.Error()
		logger.Error("sms send failed",
			zap.String("notification_id", n.ID),
			zap.String("recipient", n.RecipientID),
			zap.Error(sendErr),
		)
	}
	n.SMSMessageID, n.SMSFailure = messageID, failure
	if err := d.store.SaveSMSResult(ctx, n.ID, messageID, failure); err != nil {
		return fmt.Errorf("sms %s: save result: %w", n.ID, err)
	}
	return nil
}
