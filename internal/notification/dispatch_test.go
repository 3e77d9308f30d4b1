package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tracehub.io/tracehub/internal/domain"
	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/notification/mocks"
	"tracehub.io/tracehub/internal/pkg/logger"
)

type dispatchFixture struct {
	store *memStore
	dir   *fakeDirectory
	mail  *mocks.MockMailSink
	sms   *mocks.MockSMSSink
	push  *mocks.MockPushSink
	d     *notification.Dispatcher
}

func newDispatchFixture(t *testing.T) *dispatchFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	bundle := testBundle(t)
	renderer, err := notification.NewEmailRenderer(bundle)
	require.NoError(t, err)

	f := &dispatchFixture{
		store: newMemStore(),
		dir:   newFakeDirectory(),
		mail:  mocks.NewMockMailSink(ctrl),
		sms:   mocks.NewMockSMSSink(ctrl),
		push:  mocks.NewMockPushSink(ctrl),
	}
	f.dir.recipients["user-ana"] = notification.Recipient{
		ID: "user-ana", Email: "ana@farm.example", Phone: "+33612345678", Language: "fr", PushToken: "fcm-token",
	}
	f.d = notification.NewDispatcher(notification.DispatcherDeps{
		Registry:  notification.MustNewRegistry(claimVerified{policy: emailIfActivePolicy()}),
		Store:     f.store,
		Directory: f.dir,
		Renderer:  renderer,
		Localizer: bundle,
		Mail:      f.mail,
		SMS:       f.sms,
		Push:      f.push,
	})
	return f
}

func storedClaimNotification(t *testing.T, flags notification.Flags) *notification.Notification {
	t.Helper()
	claim := testClaim()
	data, err := json.Marshal(claim)
	require.NoError(t, err)
	return &notification.Notification{
		ID:          "n-1",
		RecipientID: "user-ana",
		TenantID:    "tenant-1",
		Type:        "claim_verified",
		Flags:       flags,
		Language:    "fr",
		Title:       map[string]string{"fr": "La revendication Organic a été vérifiée", "en": "Claim Organic was verified"},
		Body:        map[string]string{"fr": "CertCo a vérifié la revendication Organic pour Green Farm.", "en": "CertCo verified the claim Organic for Green Farm."},
		ActionURL:   "https://cocoa.tracehub.example/claims?claim=" + claim.ID,
		ActionText:  "Voir la revendication",
		Event:       claim.Ref(),
		EventData:   data,
		SendTo:      "ana@farm.example",
	}
}

func TestSend_EmailDisabledSkipsMailSink(t *testing.T) {
	f := newDispatchFixture(t)
	n := storedClaimNotification(t, notification.Flags{Visibility: true})

	// no EXPECT on mail or push: any call fails the test
	require.NoError(t, f.d.Send(context.Background(), n))
}

func TestSend_EmailEnabledEnqueuesOnce(t *testing.T) {
	f := newDispatchFixture(t)
	n := storedClaimNotification(t, notification.Flags{Visibility: true, Email: true})
	f.store.rows[n.ID] = n

	var got notification.Mail
	f.mail.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m notification.Mail) error {
		got = m
		return nil
	}).Times(1)

	require.NoError(t, f.d.Send(context.Background(), n))
	require.Equal(t, "La revendication Organic a été vérifiée", got.Subject)
	require.Equal(t, "ana@farm.example", got.To)
	require.Contains(t, got.HTML, `lang="fr"`)
	require.Contains(t, got.HTML, "CertCo a vérifié la revendication Organic pour Green Farm.")
	require.Contains(t, got.HTML, "Vérificateur")
	require.NotNil(t, f.store.rows[n.ID].EmailQueuedAt)
}

func TestSend_ChannelsAreIndependent(t *testing.T) {
	f := newDispatchFixture(t)
	n := storedClaimNotification(t, notification.Flags{Visibility: true, Email: true, Push: true})
	queueDown := errors.New("queue unavailable")

	f.mail.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(queueDown)
	f.push.EXPECT().Push(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg notification.PushMessage) error {
		require.Equal(t, "fcm-token", msg.Token)
		require.Equal(t, "La revendication Organic a été vérifiée", msg.Title)
		return nil
	})

	err := f.d.Send(context.Background(), n)
	require.ErrorIs(t, err, queueDown)
}

func TestSend_RedeliveryDoesNotRepeatChannels(t *testing.T) {
	f := newDispatchFixture(t)
	n := storedClaimNotification(t, notification.Flags{Visibility: true, Email: true, Push: true})
	f.store.rows[n.ID] = n

	f.mail.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	f.push.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	require.NoError(t, f.d.Send(context.Background(), n))
	require.NoError(t, f.d.SendByID(context.Background(), n.ID))
	require.NotNil(t, n.PushSentAt)
}

func TestSend_NeverCallsSMS(t *testing.T) {
	f := newDispatchFixture(t)
	n := storedClaimNotification(t, notification.Flags{SMS: true})

	require.NoError(t, f.d.Send(context.Background(), n))
}

func TestSend_PushWithoutTokenIsSkipped(t *testing.T) {
	f := newDispatchFixture(t)
	r := f.dir.recipients["user-ana"]
	r.PushToken = ""
	f.dir.recipients["user-ana"] = r

	n := storedClaimNotification(t, notification.Flags{Push: true})
	require.NoError(t, f.d.Send(context.Background(), n))
}

func TestSendSMS_Gating(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		flag  bool
	}{
		{name: "flag off", phone: "+33612345678", flag: false},
		{name: "no phone", phone: "", flag: true},
		{name: "phone too short", phone: "123456", flag: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDispatchFixture(t)
			r := f.dir.recipients["user-ana"]
			r.Phone = tt.phone
			f.dir.recipients["user-ana"] = r

			n := storedClaimNotification(t, notification.Flags{SMS: tt.flag})
			// sink has no expectations
			require.NoError(t, f.d.SendSMS(context.Background(), n))
		})
	}
}

func TestSendSMS_RecordsProviderResult(t *testing.T) {
	f := newDispatchFixture(t)
	n := storedClaimNotification(t, notification.Flags{SMS: true})
	f.store.rows[n.ID] = n

	f.sms.EXPECT().Send(gomock.Any(), "+33612345678", n.Body["fr"]).Return("biz-123", nil)

	require.NoError(t, f.d.SendSMS(context.Background(), n))
	require.Equal(t, "biz-123", f.store.rows[n.ID].SMSMessageID)
	require.Empty(t, f.store.rows[n.ID].SMSFailure)
}

func TestSendSMS_ProviderFailureIsCaptured(t *testing.T) {
	f := newDispatchFixture(t)
	n := storedClaimNotification(t, notification.Flags{SMS: true})
	f.store.rows[n.ID] = n

	f.sms.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("isv.MOBILE_NUMBER_ILLEGAL"))

	core, logs := observer.New(zapcore.ErrorLevel)
	defer logger.Replace(zap.New(core))()

	require.NoError(t, f.d.SendSMS(context.Background(), n))
	require.Equal(t, "isv.MOBILE_NUMBER_ILLEGAL", f.store.rows[n.ID].SMSFailure)

	failed := logs.FilterMessage("sms send failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, n.ID, failed[0].ContextMap()["notification_id"])
}

func TestSendSMS_DoesNotOverwriteRecordedOutcome(t *testing.T) {
	f := newDispatchFixture(t)
	n := storedClaimNotification(t, notification.Flags{SMS: true})
	n.SMSFailure = "isv.BUSINESS_LIMIT_CONTROL"

	require.NoError(t, f.d.SendSMS(context.Background(), n))
	require.Equal(t, "isv.BUSINESS_LIMIT_CONTROL", n.SMSFailure)
}

func TestEmailRenderer_LocaleIsExplicit(t *testing.T) {
	bundle := testBundle(t)
	renderer, err := notification.NewEmailRenderer(bundle)
	require.NoError(t, err)
	claim := testClaim()

	fr, err := renderer.Render("fr", "claim", notification.EmailData{Title: "t", Body: "b", ActionObject: claim})
	require.NoError(t, err)
	require.Contains(t, fr, "Vérificateur")

	// transaction template against a claim fails to render
	_, err = renderer.Render("fr", "transaction", notification.EmailData{ActionObject: claim})
	require.Error(t, err)

	en, err := renderer.Render("en", "claim", notification.EmailData{Title: "t", Body: "b", ActionObject: claim})
	require.NoError(t, err)
	require.Contains(t, en, "Verifier")
	require.False(t, strings.Contains(en, "Vérificateur"))
	require.Equal(t, "en", bundle.Base())
}

func TestEmailRenderer_UnknownTemplate(t *testing.T) {
	renderer, err := notification.NewEmailRenderer(testBundle(t))
	require.NoError(t, err)
	require.False(t, renderer.Has("invoice"))

	_, err = renderer.Render("en", "invoice", notification.EmailData{})
	require.Error(t, err)
}

// An active admin with an IfActive email verdict gets one record with email
// enabled, and sending it queues exactly one mail to the recipient's address.
func TestEndToEnd_ActiveAdminReceivesEmail(t *testing.T) {
	f := newDispatchFixture(t)
	f.dir.addMember("user-ana", "node-farm", notification.RoleNodeAdmin, true)
	m := notification.NewManager(f.store, f.dir, testBundle(t), notification.WithDefaultBaseURL("https://app.tracehub.example"))

	n, err := m.Notify(context.Background(), claimVerified{policy: emailIfActivePolicy()}, notification.Request{
		RecipientID: "user-ana", TenantID: "tenant-1", Event: testClaim(),
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	require.True(t, n.Flags.Email)
	require.Equal(t, 1, f.store.count())

	f.mail.EXPECT().Enqueue(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, mail notification.Mail) error {
		require.Equal(t, "ana@farm.example", mail.To)
		return nil
	}).Times(1)
	f.push.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	require.NoError(t, f.d.SendByID(context.Background(), n.ID))
}

func TestDecodeSnapshotRoundTrip(t *testing.T) {
	n := storedClaimNotification(t, notification.Flags{})
	ev, err := domain.DecodeEvent(n.Event.Kind, n.EventData)
	require.NoError(t, err)
	require.Equal(t, "Organic", ev.(*domain.Claim).Name)
}
