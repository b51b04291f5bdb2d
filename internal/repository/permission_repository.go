package repository

import (
	"context"
	"errors"

	"collabolab/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PermissionRepository struct {
	db *gorm.DB
}

var _ PermissionStore = (*PermissionRepository)(nil)

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

var permissionKey = []clause.Column{{Name: "project_id"}, {Name: "user_id"}}

// Put creates the record or overwrites every flag of an existing one.
func (r *PermissionRepository) Put(ctx context.Context, perm *model.Permission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: permissionKey, UpdateAll: true}).
		Create(perm).Error
}

func (r *PermissionRepository) Ensure(ctx context.Context, perm *model.Permission) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: permissionKey, DoNothing: true}).
		Create(perm).Error
}

func (r *PermissionRepository) Get(ctx context.Context, projectID, userID uuid.UUID) (*model.Permission, error) {
	var perm model.Permission
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&perm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

// Delete is a no-op when the record does not exist.
func (r *PermissionRepository) Delete(ctx context.Context, projectID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.Permission{}).Error
}

func (r *PermissionRepository) ListWithCapability(ctx context.Context, projectID uuid.UUID, c model.Capability) ([]model.Permission, error) {
	column := c.Column()
	if column == "" {
		return nil, ErrUnknownCapability
	}

	var perms []model.Permission
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: true}).
		Find(&perms).Error
	if err != nil {
		return nil, err
	}
	return perms, nil
}
