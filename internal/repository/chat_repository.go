package repository

import (
	"context"
	"slices"

	"collabolab/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

var _ ChatStore = (*ChatRepository)(nil)

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Append(ctx context.Context, msg *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// List returns the most recent messages of the project, oldest first.
func (r *ChatRepository) List(ctx context.Context, projectID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	q := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var msgs []model.ChatMessage
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	slices.Reverse(msgs)
	return msgs, nil
}
