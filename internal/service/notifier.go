package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collabolab/internal/logger"
	"collabolab/internal/metrics"
	"collabolab/internal/model"
	"collabolab/internal/push"
	"collabolab/internal/repository"

	"github.com/google/uuid"
)

type Notification struct {
	Title       string
	Description string
}

// Notifier pushes notifications to devices and records them in the
// recipient's update history. Push is best effort; the history write is not.
type Notifier struct {
	store   repository.Store
	pusher  Pusher
	timeout time.Duration
	log     *logger.Logger
}

func NewNotifier(store repository.Store, pusher Pusher, timeout time.Duration, log *logger.Logger) *Notifier {
	return &Notifier{store: store, pusher: pusher, timeout: timeout, log: log}
}

func (n *Notifier) NotifyUser(ctx context.Context, userID uuid.UUID, note Notification) error {
	user, err := n.store.Users().GetByID(ctx, userID)
	if err != nil {
		return wrapNotFound(err)
	}
	return n.notify(ctx, user, note)
}

func (n *Notifier) notify(ctx context.Context, user *model.User, note Notification) error {
	n.send(ctx, user.DeviceToken, push.Message{Title: note.Title, Body: note.Description})

	update := &model.UserUpdate{
		ID:          uuid.New(),
		UserID:      user.ID,
		ViewType:    model.ViewTypeOneTime,
		Title:       note.Title,
		Description: note.Description,
	}
	if err := n.store.Updates().Append(ctx, update); err != nil {
		return fmt.Errorf("record update: %w", err)
	}
	metrics.NotificationsTotal.Inc()
	return nil
}

func (n *Notifier) send(ctx context.Context, token string, msg push.Message) {
	if token == "" {
		metrics.PushSendsTotal.WithLabelValues("device", "skipped").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err := n.pusher.Send(ctx, token, msg)
	switch {
	case err == nil:
		metrics.PushSendsTotal.WithLabelValues("device", "ok").Inc()
	case errors.Is(err, push.ErrNotConnected):
		metrics.PushSendsTotal.WithLabelValues("device", "offline").Inc()
	default:
		metrics.PushSendsTotal.WithLabelValues("device", "error").Inc()
		n.log.WithContext(ctx).Warn("push to device failed", "error", fmt.Errorf("%w: %w", ErrDeliveryFailure, err))
	}
}

// BroadcastToTopic sends to every device subscribed to topic. Nothing is persisted.
func (n *Notifier) BroadcastToTopic(ctx context.Context, topic string, msg push.Message) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.pusher.SendToTopic(ctx, topic, msg); err != nil {
		metrics.PushSendsTotal.WithLabelValues("topic", "error").Inc()
		n.log.WithContext(ctx).Warn("push to topic failed", "topic", topic, "error", fmt.Errorf("%w: %w", ErrDeliveryFailure, err))
		return
	}
	metrics.PushSendsTotal.WithLabelValues("topic", "ok").Inc()
}

func (n *Notifier) Subscribe(ctx context.Context, token, topic string) {
	if token == "" {
		return
	}
	if err := n.pusher.Subscribe(ctx, token, topic); err != nil {
		n.log.WithContext(ctx).Warn("topic subscribe failed", "topic", topic, "error", err)
	}
}

func (n *Notifier) Unsubscribe(ctx context.Context, token, topic string) {
	if token == "" {
		return
	}
	if err := n.pusher.Unsubscribe(ctx, token, topic); err != nil {
		n.log.WithContext(ctx).Warn("topic unsubscribe failed", "topic", topic, "error", err)
	}
}
