package service

import (
	"context"

	"collabolab/internal/logger"
	"collabolab/internal/metrics"
	"collabolab/internal/model"
	"collabolab/internal/repository"

	"github.com/google/uuid"
)

type Invites struct {
	store      repository.Store
	membership *Membership
	notifier   *Notifier
	messenger  *Messenger
	// requireInvite rejects acceptance when no invite record exists.
	requireInvite bool
	log           *logger.Logger
}

func NewInvites(store repository.Store, membership *Membership, notifier *Notifier, messenger *Messenger, requireInvite bool, log *logger.Logger) *Invites {
	return &Invites{
		store:         store,
		membership:    membership,
		notifier:      notifier,
		messenger:     messenger,
		requireInvite: requireInvite,
		log:           log,
	}
}

// Create records an invite for the user and notifies them. Re-inviting
// overwrites the previous invite.
func (s *Invites) Create(ctx context.Context, projectID, inviteeID uuid.UUID) error {
	project, err := s.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return wrapNotFound(err)
	}
	invitee, err := s.store.Users().GetByID(ctx, inviteeID)
	if err != nil {
		return wrapNotFound(err)
	}
	if project.HasMember(inviteeID) {
		return ErrAlreadyExists
	}

	invite := &model.Invite{
		UserID:      inviteeID,
		ProjectID:   projectID,
		Name:        project.Name,
		Description: project.Description,
	}
	if err := s.store.Invites().Put(ctx, invite); err != nil {
		return err
	}

	err = s.notifier.notify(ctx, invitee, Notification{
		Title:       "Project invite",
		Description: "You have been invited to join " + project.Name,
	})
	if err != nil {
		metrics.CascadeFailuresTotal.WithLabelValues("notify").Inc()
		s.log.WithContext(ctx).Warn("invite notification failed", "project_id", projectID, "user_id", inviteeID, "error", err)
	}
	return nil
}

func (s *Invites) Accept(ctx context.Context, userID, projectID uuid.UUID) error {
	if s.requireInvite {
		if _, err := s.store.Invites().Get(ctx, userID, projectID); err != nil {
			return wrapNotFound(err)
		}
	}

	_, user, joined, err := s.membership.join(ctx, projectID, userID)
	if err != nil {
		return err
	}

	log := s.log.WithContext(ctx)
	if err := s.store.Invites().Delete(ctx, userID, projectID); err != nil {
		metrics.CascadeFailuresTotal.WithLabelValues("invite_cleanup").Inc()
		log.Warn("invite not deleted", "project_id", projectID, "user_id", userID, "error", err)
	}

	if joined {
		if err := s.messenger.PostSystemMessage(ctx, projectID, user.Name+" has joined the project"); err != nil {
			metrics.CascadeFailuresTotal.WithLabelValues("system_message").Inc()
			log.Warn("join message not posted", "project_id", projectID, "error", err)
		}
	}
	return nil
}

func (s *Invites) Decline(ctx context.Context, userID, projectID uuid.UUID) error {
	return s.store.Invites().Delete(ctx, userID, projectID)
}

func (s *Invites) List(ctx context.Context, userID uuid.UUID) ([]model.Invite, error) {
	return s.store.Invites().ListForUser(ctx, userID)
}
