package model

import (
	"time"

	"github.com/google/uuid"
)

// SystemAuthor is the From value of messages posted by the service itself.
const SystemAuthor = "System"

// ChatMessage is an immutable entry of a project's message log.
type ChatMessage struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProjectID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Text      string     `gorm:"not null"`
	From      string     `gorm:"column:from_name;not null"`
	UserID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"index"`
}

func (m *ChatMessage) IsSystem() bool {
	return m.UserID == nil
}
