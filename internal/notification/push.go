package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"toolshed-backend/internal/domain"
	"toolshed-backend/internal/logger"
)

type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier publishes to the firebase topic of the member. Devices of a
// member subscribe to MemberTopic(id).
type PushNotifier struct {
	client messageSender
}

func NewPushNotifier(ctx context.Context, credentialsFile string) (*PushNotifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return &PushNotifier{client: client}, nil
}

func MemberTopic(memberID int32) string {
	return fmt.Sprintf("member-%d", memberID)
}

func (p *PushNotifier) Notify(ctx context.Context, n domain.Notification) error {
	if n.MemberID == 0 {
		return nil
	}

	data := map[string]string{"type": string(n.Type)}
	for k, v := range n.Attributes {
		data[k] = v
	}
	msg := &messaging.Message{
		Topic:        MemberTopic(n.MemberID),
		Notification: &messaging.Notification{Title: n.Title, Body: n.Message},
		Data:         data,
	}

	id, err := p.client.Send(ctx, msg)
	logger.ExternalServiceResult("firebase", "send", err, "topic", msg.Topic, "message_id", id)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	return nil
}
