package service

import (
	"context"

	"collabolab/internal/push"
)

// Pusher delivers messages to devices and topics. push.Hub is the production
// implementation.
type Pusher interface {
	Send(ctx context.Context, token string, msg push.Message) error
	SendToTopic(ctx context.Context, topic string, msg push.Message) error
	Subscribe(ctx context.Context, token, topic string) error
	Unsubscribe(ctx context.Context, token, topic string) error
}

var _ Pusher = (*push.Hub)(nil)
