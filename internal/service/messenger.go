package service

import (
	"context"
	"fmt"

	"collabolab/internal/logger"
	"collabolab/internal/model"
	"collabolab/internal/push"
	"collabolab/internal/repository"

	"github.com/google/uuid"
)

const defaultChatLimit = 100

// Messenger writes to project chat logs.
type Messenger struct {
	store    repository.Store
	notifier *Notifier
	log      *logger.Logger
}

func NewMessenger(store repository.Store, notifier *Notifier, log *logger.Logger) *Messenger {
	return &Messenger{store: store, notifier: notifier, log: log}
}

// PostSystemMessage appends a message authored by the service. No push is sent.
func (m *Messenger) PostSystemMessage(ctx context.Context, projectID uuid.UUID, text string) error {
	msg := &model.ChatMessage{
		ID:        uuid.New(),
		ProjectID: projectID,
		Text:      text,
		From:      model.SystemAuthor,
	}
	if err := m.store.Chat().Append(ctx, msg); err != nil {
		return fmt.Errorf("post system message: %w", err)
	}
	m.log.WithContext(ctx).Debug("system message posted", "project_id", projectID, "text", text)
	return nil
}

// PostUserMessage appends a member's message and announces it on the project
// topic. An empty from falls back to the author's profile name.
func (m *Messenger) PostUserMessage(ctx context.Context, projectID, authorID uuid.UUID, from, text string) (*model.ChatMessage, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidInput)
	}

	project, err := m.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if !project.HasMember(authorID) {
		return nil, ErrUnauthorized
	}

	if from == "" {
		author, err := m.store.Users().GetByID(ctx, authorID)
		if err != nil {
			return nil, wrapNotFound(err)
		}
		from = author.Name
	}

	msg := &model.ChatMessage{
		ID:        uuid.New(),
		ProjectID: projectID,
		Text:      text,
		From:      from,
		UserID:    &authorID,
	}
	if err := m.store.Chat().Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}

	m.notifier.BroadcastToTopic(ctx, project.Topic(), push.Message{
		Title: "New message in " + project.Name,
		Body:  from + " sent a new message",
		Data:  map[string]string{"projectId": projectID.String()},
	})
	return msg, nil
}

func (m *Messenger) ListMessages(ctx context.Context, projectID, callerID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	project, err := m.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if !project.HasMember(callerID) {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > defaultChatLimit {
		limit = defaultChatLimit
	}
	return m.store.Chat().List(ctx, projectID, limit)
}
