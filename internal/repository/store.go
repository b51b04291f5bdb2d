package repository

import (
	"context"

	"collabolab/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetForUpdate reads the user and holds a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error)
	// ListByProject returns the users whose projects list names projectID.
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.User, error)
	Search(ctx context.Context, text string, limit int) ([]model.User, error)
	SetProjects(ctx context.Context, id uuid.UUID, projects model.IDList) error
	SetDeviceToken(ctx context.Context, id uuid.UUID, token string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type IdentityStore interface {
	Create(ctx context.Context, identity *model.Identity) error
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProjectStore interface {
	Create(ctx context.Context, project *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Project, error)
	SetMembers(ctx context.Context, id uuid.UUID, members model.IDList) error
	// Delete removes the project together with its tasks, permissions,
	// chat messages and invites.
	Delete(ctx context.Context, id uuid.UUID) error
}

type PermissionStore interface {
	Put(ctx context.Context, perm *model.Permission) error
	// Ensure writes perm only if no record exists for the pair yet.
	Ensure(ctx context.Context, perm *model.Permission) error
	Get(ctx context.Context, projectID, userID uuid.UUID) (*model.Permission, error)
	Delete(ctx context.Context, projectID, userID uuid.UUID) error
	ListWithCapability(ctx context.Context, projectID uuid.UUID, c model.Capability) ([]model.Permission, error)
}

type InviteStore interface {
	Put(ctx context.Context, invite *model.Invite) error
	Get(ctx context.Context, userID, projectID uuid.UUID) (*model.Invite, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Invite, error)
	Delete(ctx context.Context, userID, projectID uuid.UUID) error
}

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, projectID, taskID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, projectID, taskID uuid.UUID) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	ListAssigned(ctx context.Context, projectID, userID uuid.UUID) ([]model.Task, error)
	// Unassign clears the assignee of every task the user holds in the project.
	Unassign(ctx context.Context, projectID, userID uuid.UUID) (int64, error)
}

type ChatStore interface {
	Append(ctx context.Context, msg *model.ChatMessage) error
	List(ctx context.Context, projectID uuid.UUID, limit int) ([]model.ChatMessage, error)
}

type UpdateStore interface {
	Append(ctx context.Context, update *model.UserUpdate) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.UserUpdate, error)
}

// Store groups the repositories. Inside WithinTx every repository of the
// passed Store shares one transaction.
type Store interface {
	Users() UserStore
	Identities() IdentityStore
	Projects() ProjectStore
	Permissions() PermissionStore
	Invites() InviteStore
	Tasks() TaskStore
	Chat() ChatStore
	Updates() UpdateStore
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserStore             { return NewUserRepository(s.db) }
func (s *GormStore) Identities() IdentityStore     { return NewIdentityRepository(s.db) }
func (s *GormStore) Projects() ProjectStore       { return NewProjectRepository(s.db) }
func (s *GormStore) Permissions() PermissionStore { return NewPermissionRepository(s.db) }
func (s *GormStore) Invites() InviteStore         { return NewInviteRepository(s.db) }
func (s *GormStore) Tasks() TaskStore             { return NewTaskRepository(s.db) }
func (s *GormStore) Chat() ChatStore              { return NewChatRepository(s.db) }
func (s *GormStore) Updates() UpdateStore         { return NewUpdateRepository(s.db) }

func (s *GormStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
