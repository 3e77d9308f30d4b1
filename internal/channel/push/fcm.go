// Package push delivers notification pushes through Firebase Cloud Messaging.
package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"tracehub.io/tracehub/internal/notification"
	"tracehub.io/tracehub/internal/pkg/logger"
)

type messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM implements notification.PushSink.
type FCM struct {
	client messenger
}

// NewFCM initializes a Firebase app from a service account file.
func NewFCM(ctx context.Context, credentialsFile string) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &FCM{client: client}, nil
}

// Push sends msg to its device token.
func (f *FCM) Push(ctx context.Context, msg notification.PushMessage) error {
	id, err := f.client.Send(ctx, message(msg))
	if err != nil {
		if messaging.IsUnregistered(err) {
			logger.Warn("push token unregistered",
				zap.String("notification_id", msg.NotificationID),
			)
		}
		return fmt.Errorf("fcm send: %w", err)
	}
	logger.Debug("push sent",
		zap.String("notification_id", msg.NotificationID),
		zap.String("fcm_message_id", id),
	)
	return nil
}

func message(msg notification.PushMessage) *messaging.Message {
	return &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: map[string]string{
			"notification_id": msg.NotificationID,
			"url":             msg.URL,
		},
	}
}
