package repository

import (
	"context"

	"collabolab/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UpdateRepository struct {
	db *gorm.DB
}

var _ UpdateStore = (*UpdateRepository)(nil)

func NewUpdateRepository(db *gorm.DB) *UpdateRepository {
	return &UpdateRepository{db: db}
}

func (r *UpdateRepository) Append(ctx context.Context, update *model.UserUpdate) error {
	return r.db.WithContext(ctx).Create(update).Error
}

// ListForUser returns the user's notification history, newest first.
func (r *UpdateRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.UserUpdate, error) {
	var updates []model.UserUpdate
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&updates).Error
	if err != nil {
		return nil, err
	}
	return updates, nil
}
