package service

import (
	"context"
	"errors"
	"fmt"

	"collabolab/internal/logger"
	"collabolab/internal/model"
	"collabolab/internal/repository"

	"github.com/google/uuid"
)

type Permissions struct {
	store repository.Store
	log   *logger.Logger
}

func NewPermissions(store repository.Store, log *logger.Logger) *Permissions {
	return &Permissions{store: store, log: log}
}

// RequireMember fails with ErrUnauthorized unless userID is in the project.
func (s *Permissions) RequireMember(ctx context.Context, projectID, userID uuid.UUID) (*model.Project, error) {
	project, err := s.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	if !project.HasMember(userID) {
		return nil, ErrUnauthorized
	}
	return project, nil
}

// Require fails with ErrUnauthorized unless userID holds capability c in the
// project. The owner holds every capability.
func (s *Permissions) Require(ctx context.Context, projectID, userID uuid.UUID, c model.Capability) error {
	project, err := s.RequireMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if project.OwnerID == userID {
		return nil
	}

	perm, err := s.store.Permissions().Get(ctx, projectID, userID)
	if errors.Is(err, repository.ErrPermissionNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if !perm.Has(c) {
		return ErrUnauthorized
	}
	return nil
}

// Get returns the permission record of userID. The caller must be a member.
func (s *Permissions) Get(ctx context.Context, callerID, projectID, userID uuid.UUID) (*model.Permission, error) {
	if _, err := s.RequireMember(ctx, projectID, callerID); err != nil {
		return nil, err
	}
	perm, err := s.store.Permissions().Get(ctx, projectID, userID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return perm, nil
}

// Set changes the listed flags of a member's record. The caller needs the
// manage permissions capability and the owner's record cannot change.
func (s *Permissions) Set(ctx context.Context, callerID, projectID, userID uuid.UUID, flags map[model.Capability]bool) (*model.Permission, error) {
	for c := range flags {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown capability %q", ErrInvalidInput, c)
		}
	}
	if err := s.Require(ctx, projectID, callerID, model.CapManagePermissions); err != nil {
		return nil, err
	}

	var perm *model.Permission
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if project.OwnerID == userID {
			return ErrUnauthorized
		}
		if !project.HasMember(userID) {
			return fmt.Errorf("%w: user is not a member", ErrNotFound)
		}

		p, err := tx.Permissions().Get(ctx, projectID, userID)
		if errors.Is(err, repository.ErrPermissionNotFound) {
			p = model.DefaultPermission(projectID, userID)
		} else if err != nil {
			return err
		}
		for c, v := range flags {
			p.Set(c, v)
		}
		perm = p
		return tx.Permissions().Put(ctx, p)
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}

	s.log.WithContext(ctx).Audit("permissions changed", "project_id", projectID, "user_id", userID, "by", callerID)
	return perm, nil
}
