package model

import (
	"time"

	"github.com/google/uuid"
)

// ViewTypeOneTime marks an update the client shows once.
const ViewTypeOneTime = "one time"

// UserUpdate is a persisted notification. It is written whether or not the
// push delivery succeeded.
type UserUpdate struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ViewType    string    `gorm:"not null"`
	Title       string    `gorm:"not null"`
	Description string
	CreatedAt   time.Time
}
