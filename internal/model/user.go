package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the profile document of an account. Projects is the user-side copy of
// the membership relation and must mirror Project.Members.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Email       string    `gorm:"uniqueIndex;not null"`
	Phone       string
	Projects    IDList `gorm:"type:jsonb;not null"`
	DeviceToken string
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Identity is the credential record of an account, kept apart from the profile.
type Identity struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (u *User) HasProject(projectID uuid.UUID) bool {
	return ContainsID(u.Projects, projectID)
}

// AddProject reports whether the list changed.
func (u *User) AddProject(projectID uuid.UUID) bool {
	var added bool
	u.Projects, added = AddID(u.Projects, projectID)
	return added
}

// RemoveProject reports whether the list changed.
func (u *User) RemoveProject(projectID uuid.UUID) bool {
	var removed bool
	u.Projects, removed = RemoveID(u.Projects, projectID)
	return removed
}
