package handler

import (
	"errors"
	"net/http"
	"time"

	"collabolab/internal/model"
	"collabolab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AccountHandler struct {
	accounts   AccountService
	notifier   NotificationService
	membership MembershipService
}

func NewAccountHandler(accounts AccountService, notifier NotificationService, membership MembershipService) *AccountHandler {
	return &AccountHandler{accounts: accounts, notifier: notifier, membership: membership}
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

type CreateUserResponse struct {
	UID uuid.UUID `json:"uid"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string    `json:"token"`
	UID   uuid.UUID `json:"uid"`
}

type SearchUserRequest struct {
	Text      string    `json:"text"`
	ProjectID uuid.UUID `json:"projectId"`
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type SearchUserResponse struct {
	Users []UserResponse `json:"users"`
}

type RegisterDeviceRequest struct {
	FCMToken string `json:"fcmToken" binding:"required"`
}

type NotifyUserRequest struct {
	UserID      uuid.UUID `json:"userId" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
}

type DeleteUserRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

// UpdateResponse is one entry of the notification history.
type UpdateResponse struct {
	ID          uuid.UUID `json:"id"`
	ViewType    string    `json:"viewType"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListUpdatesResponse struct {
	Updates []UpdateResponse `json:"updates"`
}

func (h *AccountHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	uid, err := h.accounts.CreateUser(c.Request.Context(), service.SignUp{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if errors.Is(err, service.ErrAlreadyExists) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "User already exists"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateUserResponse{UID: uid})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, uid, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, UID: uid})
}

func (h *AccountHandler) SearchUser(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var req SearchUserRequest
	if !bindJSON(c, &req) {
		return
	}

	users, err := h.accounts.SearchUsers(c.Request.Context(), req.Text, req.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := SearchUserResponse{Users: make([]UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, UserResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) RegisterDevice(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req RegisterDeviceRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.RegisterDevice(c.Request.Context(), userID, req.FCMToken); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Device registered"})
}

func (h *AccountHandler) ListUpdates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	updates, err := h.accounts.ListUpdates(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ListUpdatesResponse{Updates: make([]UpdateResponse, 0, len(updates))}
	for _, u := range updates {
		resp.Updates = append(resp.Updates, toUpdateResponse(u))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) NotifyUser(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	var req NotifyUserRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.notifier.NotifyUser(c.Request.Context(), req.UserID, service.Notification{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Notification sent"})
}

func (h *AccountHandler) DeleteUser(c *gin.Context) {
	callerID, ok := currentUser(c)
	if !ok {
		return
	}
	var req DeleteUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.membership.DeleteUser(c.Request.Context(), callerID, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted"})
}

func toUpdateResponse(u model.UserUpdate) UpdateResponse {
	return UpdateResponse{
		ID:          u.ID,
		ViewType:    u.ViewType,
		Title:       u.Title,
		Description: u.Description,
		CreatedAt:   u.CreatedAt,
	}
}
