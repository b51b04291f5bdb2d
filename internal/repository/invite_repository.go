package repository

import (
	"context"
	"errors"

	"collabolab/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InviteRepository struct {
	db *gorm.DB
}

var _ InviteStore = (*InviteRepository)(nil)

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Put overwrites an existing invite for the same user and project.
func (r *InviteRepository) Put(ctx context.Context, invite *model.Invite) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "created_at"}),
		}).
		Create(invite).Error
}

func (r *InviteRepository) Get(ctx context.Context, userID, projectID uuid.UUID) (*model.Invite, error) {
	var invite model.Invite
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&invite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *InviteRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Invite, error) {
	var invites []model.Invite
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&invites).Error
	return invites, err
}

// Delete is a no-op when the invite does not exist.
func (r *InviteRepository) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Delete(&model.Invite{}).Error
}
