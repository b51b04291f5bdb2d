package model

import (
	"time"

	"github.com/google/uuid"
)

// Capability names a single permission flag. The values are the wire keys of
// the permission record.
type Capability string

const (
	CapCreateTask        Capability = "create task"
	CapEditTask          Capability = "edit task"
	CapDeleteTask        Capability = "delete task"
	CapReviewTask        Capability = "review task"
	CapManagePermissions Capability = "manage permissions"
	CapKickMember        Capability = "kick member"
	CapInvite            Capability = "invite"
)

// Capabilities lists every flag in record order.
var Capabilities = []Capability{
	CapCreateTask,
	CapEditTask,
	CapDeleteTask,
	CapReviewTask,
	CapManagePermissions,
	CapKickMember,
	CapInvite,
}

var capabilityColumns = map[Capability]string{
	CapCreateTask:        "create_task",
	CapEditTask:          "edit_task",
	CapDeleteTask:        "delete_task",
	CapReviewTask:        "review_task",
	CapManagePermissions: "manage_permissions",
	CapKickMember:        "kick_member",
	CapInvite:            "invite",
}

// Column returns the permissions table column backing the flag, or "" for an
// unknown capability.
func (c Capability) Column() string {
	return capabilityColumns[c]
}

func (c Capability) Valid() bool {
	_, ok := capabilityColumns[c]
	return ok
}

// Permission is the capability grant of one member in one project. A record
// exists exactly while the user is a member.
type Permission struct {
	ProjectID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	CreateTask        bool      `gorm:"not null;default:false" json:"create task"`
	EditTask          bool      `gorm:"not null;default:false" json:"edit task"`
	DeleteTask        bool      `gorm:"not null;default:false" json:"delete task"`
	ReviewTask        bool      `gorm:"not null;default:false" json:"review task"`
	ManagePermissions bool      `gorm:"not null;default:false" json:"manage permissions"`
	KickMember        bool      `gorm:"not null;default:false" json:"kick member"`
	Invite            bool      `gorm:"not null;default:false" json:"invite"`
	UpdatedAt         time.Time `json:"-"`
}

// DefaultPermission is granted to members joining through an invite.
func DefaultPermission(projectID, userID uuid.UUID) *Permission {
	return &Permission{ProjectID: projectID, UserID: userID}
}

// OwnerPermission grants every capability.
func OwnerPermission(projectID, userID uuid.UUID) *Permission {
	p := DefaultPermission(projectID, userID)
	for _, c := range Capabilities {
		p.Set(c, true)
	}
	return p
}

func (p *Permission) Has(c Capability) bool {
	switch c {
	case CapCreateTask:
		return p.CreateTask
	case CapEditTask:
		return p.EditTask
	case CapDeleteTask:
		return p.DeleteTask
	case CapReviewTask:
		return p.ReviewTask
	case CapManagePermissions:
		return p.ManagePermissions
	case CapKickMember:
		return p.KickMember
	case CapInvite:
		return p.Invite
	}
	return false
}

func (p *Permission) Set(c Capability, v bool) {
	switch c {
	case CapCreateTask:
		p.CreateTask = v
	case CapEditTask:
		p.EditTask = v
	case CapDeleteTask:
		p.DeleteTask = v
	case CapReviewTask:
		p.ReviewTask = v
	case CapManagePermissions:
		p.ManagePermissions = v
	case CapKickMember:
		p.KickMember = v
	case CapInvite:
		p.Invite = v
	}
}
