package handler

import (
	"net/http"
	"time"

	"collabolab/internal/model"
	"collabolab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	projects    ProjectService
	membership  MembershipService
	invites     InviteService
	permissions PermissionService
	chat        ChatService
}

func NewProjectHandler(
	projects ProjectService,
	membership MembershipService,
	invites InviteService,
	permissions PermissionService,
	chat ChatService,
) *ProjectHandler {
	return &ProjectHandler{
		projects:    projects,
		membership:  membership,
		invites:     invites,
		permissions: permissions,
		chat:        chat,
	}
}

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	FCMToken    string `json:"fcmToken"`
}

type CreateProjectResponse struct {
	ProjectID uuid.UUID `json:"projectId"`
}

// ProjectRequest addresses a project and nothing else.
type ProjectRequest struct {
	ProjectID uuid.UUID `json:"projectId" binding:"required"`
}

// MemberRequest addresses one user within a project.
type MemberRequest struct {
	ProjectID uuid.UUID `json:"projectId" binding:"required"`
	UserID    uuid.UUID `json:"userId" binding:"required"`
}

type RemoveFromProjectRequest struct {
	ProjectID    uuid.UUID `json:"projectId" binding:"required"`
	UserID       uuid.UUID `json:"userId" binding:"required"`
	UserDecision bool      `json:"userDecision"`
}

type SetPermissionsRequest struct {
	ProjectID uuid.UUID       `json:"projectId" binding:"required"`
	UserID    uuid.UUID       `json:"userId" binding:"required"`
	Flags     map[string]bool `json:"flags" binding:"required"`
}

type SendChatMessageRequest struct {
	ProjectID uuid.UUID `json:"projectId" binding:"required"`
	Text      string    `json:"text" binding:"required"`
	From      string    `json:"from"`
}

type SendChatMessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type ListChatRequest struct {
	ProjectID uuid.UUID `json:"projectId" binding:"required"`
	Limit     int       `json:"limit" binding:"min=0"`
}

type ProjectResponse struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     uuid.UUID   `json:"ownerId"`
	Members     []uuid.UUID `json:"members"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type InviteResponse struct {
	ProjectID   uuid.UUID `json:"projectId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListInvitesResponse struct {
	Invites []InviteResponse `json:"invites"`
}

type ChatMessageResponse struct {
	ID        uuid.UUID  `json:"id"`
	Text      string     `json:"text"`
	From      string     `json:"from"`
	UserID    *uuid.UUID `json:"userId,omitempty"`
	System    bool       `json:"system"`
	CreatedAt time.Time  `json:"createdAt"`
}

type ListChatResponse struct {
	Messages []ChatMessageResponse `json:"messages"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projects.Create(c.Request.Context(), userID, req.Name, req.Description, req.FCMToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateProjectResponse{ProjectID: project.ID})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projects.Get(c.Request.Context(), userID, req.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.membership.DeleteProject(c.Request.Context(), userID, req.ProjectID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Project deleted"})
}

func (h *ProjectHandler) InviteUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req MemberRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.permissions.Require(ctx, req.ProjectID, userID, model.CapInvite); err != nil {
		respondError(c, err)
		return
	}
	if err := h.invites.Create(ctx, req.ProjectID, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User invited"})
}

func (h *ProjectHandler) AcceptInvite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.invites.Accept(c.Request.Context(), userID, req.ProjectID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Invite accepted"})
}

func (h *ProjectHandler) DeclineInvite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.invites.Decline(c.Request.Context(), userID, req.ProjectID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Invite declined"})
}

func (h *ProjectHandler) ListInvites(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	invites, err := h.invites.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ListInvitesResponse{Invites: make([]InviteResponse, 0, len(invites))}
	for _, inv := range invites {
		resp.Invites = append(resp.Invites, InviteResponse{
			ProjectID:   inv.ProjectID,
			Name:        inv.Name,
			Description: inv.Description,
			CreatedAt:   inv.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// RemoveFromProject lets a member leave (userDecision) or removes another
// member, which needs the kick member capability.
func (h *ProjectHandler) RemoveFromProject(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	var req RemoveFromProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	reason := service.LeaveRemoved
	if req.UserDecision {
		if req.UserID != callerID {
			respondError(c, service.ErrUnauthorized)
			return
		}
		reason = service.LeaveVoluntary
	} else if err := h.permissions.Require(ctx, req.ProjectID, callerID, model.CapKickMember); err != nil {
		respondError(c, err)
		return
	}

	if err := h.membership.LeaveProject(ctx, req.ProjectID, req.UserID, reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User removed from project"})
}

func (h *ProjectHandler) GetPermissions(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	var req MemberRequest
	if !bindJSON(c, &req) {
		return
	}

	perm, err := h.permissions.Get(c.Request.Context(), callerID, req.ProjectID, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, perm)
}

func (h *ProjectHandler) SetPermissions(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	var req SetPermissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	flags := make(map[model.Capability]bool, len(req.Flags))
	for k, v := range req.Flags {
		flags[model.Capability(k)] = v
	}
	if _, err := h.permissions.Set(c.Request.Context(), callerID, req.ProjectID, req.UserID, flags); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Permissions updated"})
}

func (h *ProjectHandler) SendChatMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req SendChatMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.chat.PostUserMessage(c.Request.Context(), req.ProjectID, userID, req.From, req.Text); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SendChatMessageResponse{Message: "Message sent"})
}

func (h *ProjectHandler) ListChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ListChatRequest
	if !bindJSON(c, &req) {
		return
	}

	msgs, err := h.chat.ListMessages(c.Request.Context(), req.ProjectID, userID, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ListChatResponse{Messages: make([]ChatMessageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp.Messages = append(resp.Messages, ChatMessageResponse{
			ID:        m.ID,
			Text:      m.Text,
			From:      m.From,
			UserID:    m.UserID,
			System:    m.IsSystem(),
			CreatedAt: m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func toProjectResponse(p *model.Project) ProjectResponse {
	members := make([]uuid.UUID, len(p.Members))
	copy(members, p.Members)
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		Members:     members,
		CreatedAt:   p.CreatedAt,
	}
}
