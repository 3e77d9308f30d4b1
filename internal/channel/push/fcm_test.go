package push

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/require"

	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

type fakeMessenger struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeMessenger) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.sent = append(f.sent, m)
	if f.err != nil {
		return "", f.err
	}
	return "projects/p/messages/1", nil
}

func TestFCMPush(t *testing.T) {
	fake := &fakeMessenger{}
	f := &FCM{client: fake}

	err := f.Push(context.Background(), notification.PushMessage{
		NotificationID: "n-1",
		Token:          "device-token",
		Title:          "Transaction received",
		Body:           "ExportCo sent 40 bags",
		URL:            "https://app.example/transactions?transaction=t1",
	})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)

	m := fake.sent[0]
	require.Equal(t, "device-token", m.Token)
	require.Equal(t, "Transaction received", m.Notification.Title)
	require.Equal(t, "ExportCo sent 40 bags", m.Notification.Body)
	require.Equal(t, "n-1", m.Data["notification_id"])
	require.Equal(t, "https://app.example/transactions?transaction=t1", m.Data["url"])
}

func TestFCMPush_Error(t *testing.T) {
	f := &FCM{client: &fakeMessenger{err: errors.New("quota exceeded")}}
	err := f.Push(context.Background(), notification.PushMessage{NotificationID: "n-1", Token: "x"})
	require.ErrorContains(t, err, "quota exceeded")
}
