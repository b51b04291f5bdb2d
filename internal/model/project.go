package model

import (
	"time"

	"github.com/google/uuid"
)

// Project is a collaborative workspace. The owner is always listed in Members.
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Members     IDList    `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Project) HasMember(userID uuid.UUID) bool {
	return ContainsID(p.Members, userID)
}

func (p *Project) AddMember(userID uuid.UUID) bool {
	var added bool
	p.Members, added = AddID(p.Members, userID)
	return added
}

func (p *Project) RemoveMember(userID uuid.UUID) bool {
	var removed bool
	p.Members, removed = RemoveID(p.Members, userID)
	return removed
}

// Topic is the push channel every member device is subscribed to.
func (p *Project) Topic() string {
	return p.ID.String()
}

// Invite is a pending offer to join a project, snapshotting the project's
// name and description at the time of the invitation.
type Invite struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string
	CreatedAt   time.Time
}
