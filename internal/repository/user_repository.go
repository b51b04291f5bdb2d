package repository

import (
	"context"
	"errors"
	"strings"

	"collabolab/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

var _ UserStore = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.Projects == nil {
		user.Projects = model.NewIDList()
	}
	user.Email = strings.ToLower(user.Email)
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *UserRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *UserRepository) first(db *gorm.DB, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByProject returns the users whose projects list contains projectID,
// ordered by id.
func (r *UserRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Where("projects @> ?::jsonb", model.NewIDList(projectID)).Order("id").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Search matches text as a case-insensitive substring of name or email.
func (r *UserRepository) Search(ctx context.Context, text string, limit int) ([]model.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	q := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Order("name")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var users []model.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) SetProjects(ctx context.Context, id uuid.UUID, projects model.IDList) error {
	if projects == nil {
		projects = model.NewIDList()
	}
	return r.updateColumn(ctx, id, "projects", projects)
}

func (r *UserRepository) SetDeviceToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.updateColumn(ctx, id, "device_token", token)
}

func (r *UserRepository) updateColumn(ctx context.Context, id uuid.UUID, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes the user with the invites and updates addressed to it.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", id).Delete(&model.Invite{}).Error; err != nil {
		return err
	}
	if err := db.Where("user_id = ?", id).Delete(&model.UserUpdate{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
