package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

type recordingInserter struct {
	args []river.JobArgs
	err  error
	dup  bool
}

func (r *recordingInserter) Insert(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.args = append(r.args, args)
	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: int64(len(r.args))}, UniqueSkippedAsDuplicate: r.dup}, nil
}

func jobOf[T river.JobArgs](args T) *river.Job[T] {
	return &river.Job[T]{JobRow: &rivertype.JobRow{Attempt: 1}, Args: args}
}

func TestArgsKindsAndQueues(t *testing.T) {
	t.Parallel()

	type insertable interface {
		river.JobArgs
		InsertOpts() river.InsertOpts
	}
	tests := []struct {
		args  insertable
		kind  string
		queue string
	}{
		{DispatchNotificationArgs{}, "dispatch_notification", QueueNotifications},
		{SendEmailArgs{}, "send_email", QueueMail},
		{ActivitySyncArgs{}, "activity_sync", river.QueueDefault},
		{DomainEventArgs{}, "domain_event", QueueNotifications},
	}
	for _, tt := range tests {
		if got := tt.args.Kind(); got != tt.kind {
			t.Fatalf("Kind() = %q, want %q", got, tt.kind)
		}
		if got := tt.args.InsertOpts().Queue; got != tt.queue {
			t.Fatalf("%s queue = %q, want %q", tt.kind, got, tt.queue)
		}
	}

	if !(DispatchNotificationArgs{}).InsertOpts().UniqueOpts.ByArgs {
		t.Fatal("dispatch_notification UniqueOpts.ByArgs = false, want true")
	}
	if got := (ActivitySyncArgs{}).InsertOpts().UniqueOpts.ByPeriod; got != ActivitySyncInterval {
		t.Fatalf("activity_sync ByPeriod = %s, want %s", got, ActivitySyncInterval)
	}
}

func TestDispatchQueue(t *testing.T) {
	t.Parallel()

	ins := &recordingInserter{}
	q := NewDispatchQueue(ins)
	require.NoError(t, q.EnqueueDispatch(context.Background(), &notification.Notification{ID: "n-1"}))
	require.Equal(t, []river.JobArgs{DispatchNotificationArgs{NotificationID: "n-1"}}, ins.args)

	ins.dup = true
	require.NoError(t, q.EnqueueDispatch(context.Background(), &notification.Notification{ID: "n-1"}))

	failing := NewDispatchQueue(&recordingInserter{err: errors.New("pool closed")})
	err := failing.EnqueueDispatch(context.Background(), &notification.Notification{ID: "n-2"})
	require.ErrorContains(t, err, "n-2")
}

func TestMailQueue(t *testing.T) {
	t.Parallel()

	ins := &recordingInserter{}
	m := notification.Mail{Subject: "Hi", To: "a@b.example", HTML: "<p>x</p>"}
	require.NoError(t, NewMailQueue(ins).Enqueue(context.Background(), m))
	require.Equal(t, []river.JobArgs{SendEmailArgs{Mail: m}}, ins.args)
}

type fakeLoader struct {
	n   *notification.Notification
	err error
}

func (f fakeLoader) Get(context.Context, string) (*notification.Notification, error) {
	return f.n, f.err
}

type recordingSender struct {
	got []*notification.Notification
	err error
}

func (s *recordingSender) EnqueueDispatch(_ context.Context, n *notification.Notification) error {
	s.got = append(s.got, n)
	return s.err
}

func TestDispatchNotificationWorker(t *testing.T) {
	t.Parallel()

	n := &notification.Notification{ID: "n-1"}

	t.Run("sends loaded record", func(t *testing.T) {
		sender := &recordingSender{}
		w := NewDispatchNotificationWorker(fakeLoader{n: n}, sender)
		require.NoError(t, w.Work(context.Background(), jobOf(DispatchNotificationArgs{NotificationID: "n-1"})))
		require.Equal(t, []*notification.Notification{n}, sender.got)
	})

	t.Run("send failure retries", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("smtp down")}
		w := NewDispatchNotificationWorker(fakeLoader{n: n}, sender)
		err := w.Work(context.Background(), jobOf(DispatchNotificationArgs{NotificationID: "n-1"}))
		require.ErrorContains(t, err, "smtp down")
	})

	t.Run("missing record cancels", func(t *testing.T) {
		sender := &recordingSender{}
		w := NewDispatchNotificationWorker(fakeLoader{err: notification.ErrNotFound}, sender)
		err := w.Work(context.Background(), jobOf(DispatchNotificationArgs{NotificationID: "gone"}))
		require.ErrorIs(t, err, notification.ErrNotFound)
		require.Empty(t, sender.got)
	})

	t.Run("uninitialized", func(t *testing.T) {
		var w *DispatchNotificationWorker
		err := w.Work(context.Background(), jobOf(DispatchNotificationArgs{}))
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})
}

type recordingMailer struct {
	sent []notification.Mail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, mail notification.Mail) error {
	m.sent = append(m.sent, mail)
	return m.err
}

func TestSendEmailWorker(t *testing.T) {
	t.Parallel()

	mail := notification.Mail{Subject: "Claim verified", To: "ana@farm.example", HTML: "<p>ok</p>"}

	mailer := &recordingMailer{}
	require.NoError(t, NewSendEmailWorker(mailer).Work(context.Background(), jobOf(SendEmailArgs{Mail: mail})))
	require.Equal(t, []notification.Mail{mail}, mailer.sent)

	failing := NewSendEmailWorker(&recordingMailer{err: errors.New("421 try later")})
	require.ErrorContains(t, failing.Work(context.Background(), jobOf(SendEmailArgs{Mail: mail})), "421 try later")

	noRecipient := &recordingMailer{}
	err := NewSendEmailWorker(noRecipient).Work(context.Background(), jobOf(SendEmailArgs{Mail: notification.Mail{Subject: "x"}}))
	require.Error(t, err)
	require.Empty(t, noRecipient.sent)
}

type fakeActivitySource struct {
	seen     map[string]time.Time
	since    time.Time
	prunedTo time.Time
	pruneErr error
	readErr  error
}

func (f *fakeActivitySource) SeenSince(_ context.Context, since time.Time) (map[string]time.Time, error) {
	f.since = since
	return f.seen, f.readErr
}

func (f *fakeActivitySource) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	f.prunedTo = cutoff
	return 3, f.pruneErr
}

type fakeRecorder struct {
	got map[string]time.Time
	err error
}

func (f *fakeRecorder) RecordActivity(_ context.Context, seen map[string]time.Time) (int, error) {
	f.got = seen
	return len(seen), f.err
}

func TestActivitySyncWorker(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	window := 24 * time.Hour
	seen := map[string]time.Time{"u-1": now.Add(-time.Hour)}

	t.Run("copies then prunes", func(t *testing.T) {
		src := &fakeActivitySource{seen: seen}
		rec := &fakeRecorder{}
		w := NewActivitySyncWorker(src, rec, window)
		w.now = func() time.Time { return now }

		require.NoError(t, w.Work(context.Background(), jobOf(ActivitySyncArgs{})))
		require.Equal(t, seen, rec.got)
		require.Equal(t, now.Add(-window), src.since)
		require.Equal(t, now.Add(-window), src.prunedTo)
	})

	t.Run("prune failure is not fatal", func(t *testing.T) {
		src := &fakeActivitySource{seen: seen, pruneErr: errors.New("redis timeout")}
		w := NewActivitySyncWorker(src, &fakeRecorder{}, window)
		require.NoError(t, w.Work(context.Background(), jobOf(ActivitySyncArgs{})))
	})

	t.Run("record failure skips prune", func(t *testing.T) {
		src := &fakeActivitySource{seen: seen}
		w := NewActivitySyncWorker(src, &fakeRecorder{err: errors.New("deadlock")}, window)
		require.ErrorContains(t, w.Work(context.Background(), jobOf(ActivitySyncArgs{})), "deadlock")
		require.True(t, src.prunedTo.IsZero())
	})

	t.Run("uninitialized", func(t *testing.T) {
		w := &ActivitySyncWorker{}
		err := w.Work(context.Background(), nil)
		if err == nil || !strings.Contains(err.Error(), "not initialized") {
			t.Fatalf("Work() error = %v, want contains %q", err, "not initialized")
		}
	})
}

type recordingDispatcher struct {
	got []*domain.DomainEvent
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev *domain.DomainEvent) error {
	d.got = append(d.got, ev)
	return d.err
}

func TestEventQueueAndDomainEventWorker(t *testing.T) {
	t.Parallel()

	ins := &recordingInserter{}
	ev := &domain.DomainEvent{
		EventID:   "ev-1",
		EventType: domain.EventTransactionReceived,
		Subject:   &domain.Transaction{ID: "tx-1", Number: "TX-7"},
		CreatedBy: "u-1",
	}
	require.NoError(t, NewEventQueue(ins).Publish(context.Background(), ev))
	require.Len(t, ins.args, 1)
	args, ok := ins.args[0].(DomainEventArgs)
	require.True(t, ok)

	dispatcher := &recordingDispatcher{}
	require.NoError(t, NewDomainEventWorker(dispatcher).Work(context.Background(), jobOf(args)))
	require.Len(t, dispatcher.got, 1)
	tx, ok := dispatcher.got[0].Subject.(*domain.Transaction)
	require.True(t, ok)
	require.Equal(t, "TX-7", tx.Number)
	require.Equal(t, "u-1", dispatcher.got[0].CreatedBy)
}

func TestDomainEventWorker_Undecodable(t *testing.T) {
	t.Parallel()

	dispatcher := &recordingDispatcher{}
	args := DomainEventArgs{Envelope: domain.Envelope{SubjectKind: "invoice", SubjectData: []byte(`{}`)}}
	err := NewDomainEventWorker(dispatcher).Work(context.Background(), jobOf(args))
	require.ErrorIs(t, err, domain.ErrUnknownEventKind)
	require.Empty(t, dispatcher.got)
}

func TestEventQueue_RequiresSubject(t *testing.T) {
	t.Parallel()

	ins := &recordingInserter{}
	require.Error(t, NewEventQueue(ins).Publish(context.Background(), &domain.DomainEvent{EventID: "ev-1"}))
	require.Empty(t, ins.args)
}

func TestErrorHandler_LogsAndKeepsRetrySchedule(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	defer logger.Replace(zap.New(core))()

	job := &rivertype.JobRow{ID: 42, Kind: DispatchNotificationArgs{}.Kind(), Queue: QueueNotifications, Attempt: 2, MaxAttempts: 5}
	h := ErrorHandler{}

	require.Nil(t, h.HandleError(context.Background(), job, errors.New("smtp 421")))
	require.Nil(t, h.HandlePanic(context.Background(), job, "nil map", "goroutine 1 [running]"))

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "job attempt failed", entries[0].Message)
	require.Equal(t, int64(42), entries[0].ContextMap()["job_id"])
	require.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
