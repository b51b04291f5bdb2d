package repository

import (
	"context"
	"errors"

	"collabolab/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepository struct {
	db *gorm.DB
}

var _ ProjectStore = (*ProjectRepository)(nil)

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	if project.Members == nil {
		project.Members = model.NewIDList()
	}
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *ProjectRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *ProjectRepository) first(db *gorm.DB, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	result := db.First(&project, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, result.Error
	}
	return &project, nil
}

func (r *ProjectRepository) SetMembers(ctx context.Context, id uuid.UUID, members model.IDList) error {
	if members == nil {
		members = model.NewIDList()
	}
	result := r.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id).Update("members", members)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	// Children first, the project row last.
	children := []any{&model.Task{}, &model.Permission{}, &model.ChatMessage{}, &model.Invite{}}
	for _, child := range children {
		if err := db.Where("project_id = ?", id).Delete(child).Error; err != nil {
			return err
		}
	}

	result := db.Where("id = ?", id).Delete(&model.Project{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}
