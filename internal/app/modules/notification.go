package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/api/handlers"
	"tracehub.io/tracehub/internal/channel/mail"
	"tracehub.io/tracehub/internal/channel/push"
	"tracehub.io/tracehub/internal/channel/sms"
	"tracehub.io/tracehub/internal/config"
	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/jobs"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/notification/variants"
	"tracehub.io/tracehub/internal/pkg/logger"
	"tracehub.io/tracehub/internal/repository/postgres"
)

const defaultActivityWindow = 30 * 24 * time.Hour

// NotificationModule wires the notification engine: storage, the channel
// sinks, the trigger service and its River workers.
type NotificationModule struct {
	infra *Infrastructure

	store      *postgres.NotificationStore
	directory  *postgres.Directory
	dispatcher *notification.Dispatcher
	inline     notification.InlineSender
	mailer     jobs.Mailer
	events     *domain.EventDispatcher
	window     time.Duration

	// Events publishes domain events onto the domain_event queue.
	Events *jobs.EventQueue
}

// NewNotificationModule builds the notification engine on top of infra.
func NewNotificationModule(ctx context.Context, infra *Infrastructure) (*NotificationModule, error) {
	if infra == nil || infra.DB == nil || infra.Config == nil {
		return nil, fmt.Errorf("infrastructure is not initialized")
	}
	cfg := infra.Config

	registry, err := variants.Registry()
	if err != nil {
		return nil, fmt.Errorf("build variant registry: %w", err)
	}
	renderer, err := notification.NewEmailRenderer(infra.Localizer)
	if err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}
	for _, v := range registry.All() {
		if !renderer.Has(v.EmailTemplate()) {
			return nil, fmt.Errorf("notification type %s: email template %q not found", v.UID(), v.EmailTemplate())
		}
	}

	window := cfg.Redis.ActivityWindow
	if window <= 0 {
		window = defaultActivityWindow
	}
	var source postgres.ActivitySource
	if infra.Activity != nil {
		source = infra.Activity
	}

	store := postgres.NewNotificationStore(infra.DB.DB)
	directory := postgres.NewDirectory(infra.DB.DB, source, window)

	smsSink, err := newSMSSink(cfg.SMS)
	if err != nil {
		return nil, err
	}
	var pushSink notification.PushSink = notification.NopPush{}
	if cfg.Push.CredentialsFile != "" {
		fcm, err := push.NewFCM(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("init push: %w", err)
		}
		pushSink = fcm
	}

	inserter := infra.Inserter()
	dispatcher := notification.NewDispatcher(notification.DispatcherDeps{
		Registry:  registry,
		Store:     store,
		Directory: directory,
		Renderer:  renderer,
		Localizer: infra.Localizer,
		Mail:      jobs.NewMailQueue(inserter),
		SMS:       smsSink,
		Push:      pushSink,
	})
	inline := notification.InlineSender{Dispatcher: dispatcher, SMS: cfg.Notification.SMSEnabled}

	var enqueuer notification.Enqueuer = inline
	if cfg.Notification.DispatchAsync {
		enqueuer = jobs.NewDispatchQueue(inserter)
	}

	manager := notification.NewManager(store, directory, infra.Localizer,
		notification.WithDefaultBaseURL(cfg.Notification.BaseURL),
	)
	events := domain.NewEventDispatcher()
	triggers := notification.NewTriggers(manager, registry, directory, infra.Pools.Dispatch, enqueuer)
	if err := triggers.Register(events); err != nil {
		return nil, fmt.Errorf("register notification triggers: %w", err)
	}

	var mailer jobs.Mailer = logMailer{}
	if cfg.Mail.Enabled() {
		mailer = mail.NewSender(mail.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	}

	logger.Info("Notification module initialized",
		zap.Int("variants", registry.Len()),
		zap.Bool("dispatch_async", cfg.Notification.DispatchAsync),
		zap.Bool("sms_enabled", cfg.Notification.SMSEnabled),
		zap.Bool("mail_enabled", cfg.Mail.Enabled()),
		zap.Bool("push_enabled", cfg.Push.CredentialsFile != ""),
	)

	return &NotificationModule{
		infra:      infra,
		store:      store,
		directory:  directory,
		dispatcher: dispatcher,
		inline:     inline,
		mailer:     mailer,
		events:     events,
		window:     window,
		Events:     jobs.NewEventQueue(inserter),
	}, nil
}

func newSMSSink(cfg config.SMSConfig) (notification.SMSSink, error) {
	if cfg.Provider != "aliyun" {
		return sms.Disabled{}, nil
	}
	client, err := sms.NewAliyun(sms.AliyunConfig{
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
		RegionID:        cfg.RegionID,
		SignName:        cfg.SignName,
		TemplateCode:    cfg.TemplateCode,
	})
	if err != nil {
		return nil, fmt.Errorf("init sms: %w", err)
	}
	return client, nil
}

// Name implements Module.
func (m *NotificationModule) Name() string { return "notification" }

// ContributeServerDeps implements Module.
func (m *NotificationModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	if m == nil || deps == nil {
		return
	}
	deps.Inbox = m.store
}

// RegisterWorkers implements Module.
func (m *NotificationModule) RegisterWorkers(workers *river.Workers) {
	if m == nil || workers == nil {
		return
	}
	river.AddWorker(workers, jobs.NewDispatchNotificationWorker(m.store, m.inline))
	river.AddWorker(workers, jobs.NewSendEmailWorker(m.mailer))
	river.AddWorker(workers, jobs.NewDomainEventWorker(m.events))
	if m.infra.Activity != nil {
		river.AddWorker(workers, jobs.NewActivitySyncWorker(m.infra.Activity, m.directory, m.window))
	}
}

// Shutdown implements Module.
func (m *NotificationModule) Shutdown(context.Context) error {
	return nil
}

// logMailer stands in for SMTP when mail.host is unset.
type logMailer struct{}

func (logMailer) Send(_ context.Context, m notification.Mail) error {
	text, err := mail.PlainText(m.HTML)
	if err != nil {
		return err
	}
	logger.Info("mail transport disabled, email logged only",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
	)
	logger.Debug("email body", zap.String("text", text))
	return nil
}
