package service

import (
	"context"
	"fmt"

	"collabolab/internal/logger"
	"collabolab/internal/metrics"
	"collabolab/internal/model"
	"collabolab/internal/repository"

	"github.com/google/uuid"
)

type Projects struct {
	store    repository.Store
	notifier *Notifier
	log      *logger.Logger
}

func NewProjects(store repository.Store, notifier *Notifier, log *logger.Logger) *Projects {
	return &Projects{store: store, notifier: notifier, log: log}
}

// Create makes a project owned and joined by ownerID, with every capability
// granted to the owner. deviceToken overrides the owner's stored token for
// the topic subscription.
func (s *Projects) Create(ctx context.Context, ownerID uuid.UUID, name, description, deviceToken string) (*model.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	project := &model.Project{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Members:     model.NewIDList(ownerID),
	}

	var owner *model.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetForUpdate(ctx, ownerID)
		if err != nil {
			return err
		}
		if err := tx.Projects().Create(ctx, project); err != nil {
			return err
		}
		if u.AddProject(project.ID) {
			if err := tx.Users().SetProjects(ctx, u.ID, u.Projects); err != nil {
				return err
			}
		}
		owner = u
		return tx.Permissions().Put(ctx, model.OwnerPermission(project.ID, ownerID))
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}

	if deviceToken == "" {
		deviceToken = owner.DeviceToken
	}
	s.notifier.Subscribe(ctx, deviceToken, project.Topic())

	metrics.MembershipOpsTotal.WithLabelValues("create_project").Inc()
	s.log.WithContext(ctx).Info("project created", "project_id", project.ID, "user_id", ownerID)
	return project, nil
}

// Get returns the project if the caller is a member.
func (s *Projects) Get(ctx context.Context, callerID, projectID uuid.UUID) (*model.Project, error) {
	project, err := s.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if !project.HasMember(callerID) {
		return nil, ErrUnauthorized
	}
	return project, nil
}
