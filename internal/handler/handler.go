package handler

import (
	"context"
	"errors"
	"net/http"

	"collabolab/internal/middleware"
	"collabolab/internal/model"
	"collabolab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountService is implemented by service.Accounts.
type AccountService interface {
	CreateUser(ctx context.Context, in service.SignUp) (uuid.UUID, error)
	Login(ctx context.Context, email, password string) (string, uuid.UUID, error)
	SearchUsers(ctx context.Context, text string, projectID uuid.UUID) ([]model.User, error)
	RegisterDevice(ctx context.Context, userID uuid.UUID, token string) error
	ListUpdates(ctx context.Context, userID uuid.UUID) ([]model.UserUpdate, error)
}

// NotificationService is implemented by service.Notifier.
type NotificationService interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, note service.Notification) error
}

// MembershipService is implemented by service.Membership.
type MembershipService interface {
	LeaveProject(ctx context.Context, projectID, userID uuid.UUID, reason service.LeaveReason) error
	DeleteProject(ctx context.Context, callerID, projectID uuid.UUID) error
	DeleteUser(ctx context.Context, callerID, userID uuid.UUID) error
}

// ProjectService is implemented by service.Projects.
type ProjectService interface {
	Create(ctx context.Context, ownerID uuid.UUID, name, description, deviceToken string) (*model.Project, error)
	Get(ctx context.Context, callerID, projectID uuid.UUID) (*model.Project, error)
}

// InviteService is implemented by service.Invites.
type InviteService interface {
	Create(ctx context.Context, projectID, inviteeID uuid.UUID) error
	Accept(ctx context.Context, userID, projectID uuid.UUID) error
	Decline(ctx context.Context, userID, projectID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]model.Invite, error)
}

// PermissionService is implemented by service.Permissions.
type PermissionService interface {
	RequireMember(ctx context.Context, projectID, userID uuid.UUID) (*model.Project, error)
	Require(ctx context.Context, projectID, userID uuid.UUID, c model.Capability) error
	Get(ctx context.Context, callerID, projectID, userID uuid.UUID) (*model.Permission, error)
	Set(ctx context.Context, callerID, projectID, userID uuid.UUID, flags map[model.Capability]bool) (*model.Permission, error)
}

// ChatService is implemented by service.Messenger.
type ChatService interface {
	PostUserMessage(ctx context.Context, projectID, authorID uuid.UUID, from, text string) (*model.ChatMessage, error)
	ListMessages(ctx context.Context, projectID, callerID uuid.UUID, limit int) ([]model.ChatMessage, error)
}

// TaskService is implemented by service.Tasks.
type TaskService interface {
	Assign(ctx context.Context, projectID, userID uuid.UUID) error
	Update(ctx context.Context, projectID, taskID uuid.UUID) error
	SendTaskForReview(ctx context.Context, projectID uuid.UUID) error
	Approve(ctx context.Context, projectID, taskID uuid.UUID) error
	GetUserTasks(ctx context.Context, userID uuid.UUID) ([]string, error)
	List(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	Get(ctx context.Context, projectID, taskID uuid.UUID) (*model.Task, error)
	Create(ctx context.Context, projectID, creatorID uuid.UUID, in service.TaskInput) (*model.Task, error)
	Edit(ctx context.Context, projectID, taskID uuid.UUID, patch service.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, projectID, taskID uuid.UUID) error
}

var (
	_ AccountService      = (*service.Accounts)(nil)
	_ NotificationService = (*service.Notifier)(nil)
	_ MembershipService   = (*service.Membership)(nil)
	_ ProjectService      = (*service.Projects)(nil)
	_ InviteService       = (*service.Invites)(nil)
	_ PermissionService   = (*service.Permissions)(nil)
	_ ChatService         = (*service.Messenger)(nil)
	_ TaskService         = (*service.Tasks)(nil)
)

// MessageResponse is the body of operations that only report success.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// currentUser returns the authenticated user id or aborts with 401.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body and answers 400 when it is malformed.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid input"})
		return false
	}
	return true
}

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidAssignee),
		errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Unauthorized"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrOwnerCannotLeave):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
