package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"collabolab/internal/middleware"
	"collabolab/internal/model"
	"collabolab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockAccounts struct{ mock.Mock }

func (m *MockAccounts) CreateUser(ctx context.Context, in service.SignUp) (uuid.UUID, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAccounts) Login(ctx context.Context, email, password string) (string, uuid.UUID, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Get(1).(uuid.UUID), args.Error(2)
}

func (m *MockAccounts) SearchUsers(ctx context.Context, text string, projectID uuid.UUID) ([]model.User, error) {
	args := m.Called(ctx, text, projectID)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *MockAccounts) RegisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *MockAccounts) ListUpdates(ctx context.Context, userID uuid.UUID) ([]model.UserUpdate, error) {
	args := m.Called(ctx, userID)
	updates, _ := args.Get(0).([]model.UserUpdate)
	return updates, args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, note service.Notification) error {
	return m.Called(ctx, userID, note).Error(0)
}

type MockMembership struct{ mock.Mock }

func (m *MockMembership) LeaveProject(ctx context.Context, projectID, userID uuid.UUID, reason service.LeaveReason) error {
	return m.Called(ctx, projectID, userID, reason).Error(0)
}

func (m *MockMembership) DeleteProject(ctx context.Context, callerID, projectID uuid.UUID) error {
	return m.Called(ctx, callerID, projectID).Error(0)
}

func (m *MockMembership) DeleteUser(ctx context.Context, callerID, userID uuid.UUID) error {
	return m.Called(ctx, callerID, userID).Error(0)
}

type MockProjects struct{ mock.Mock }

func (m *MockProjects) Create(ctx context.Context, ownerID uuid.UUID, name, description, deviceToken string) (*model.Project, error) {
	args := m.Called(ctx, ownerID, name, description, deviceToken)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *MockProjects) Get(ctx context.Context, callerID, projectID uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, callerID, projectID)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

type MockInvites struct{ mock.Mock }

func (m *MockInvites) Create(ctx context.Context, projectID, inviteeID uuid.UUID) error {
	return m.Called(ctx, projectID, inviteeID).Error(0)
}

func (m *MockInvites) Accept(ctx context.Context, userID, projectID uuid.UUID) error {
	return m.Called(ctx, userID, projectID).Error(0)
}

func (m *MockInvites) Decline(ctx context.Context, userID, projectID uuid.UUID) error {
	return m.Called(ctx, userID, projectID).Error(0)
}

func (m *MockInvites) List(ctx context.Context, userID uuid.UUID) ([]model.Invite, error) {
	args := m.Called(ctx, userID)
	invites, _ := args.Get(0).([]model.Invite)
	return invites, args.Error(1)
}

type MockPermissions struct{ mock.Mock }

func (m *MockPermissions) RequireMember(ctx context.Context, projectID, userID uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, projectID, userID)
	p, _ := args.Get(0).(*model.Project)
	return p, args.Error(1)
}

func (m *MockPermissions) Require(ctx context.Context, projectID, userID uuid.UUID, c model.Capability) error {
	return m.Called(ctx, projectID, userID, c).Error(0)
}

func (m *MockPermissions) Get(ctx context.Context, callerID, projectID, userID uuid.UUID) (*model.Permission, error) {
	args := m.Called(ctx, callerID, projectID, userID)
	p, _ := args.Get(0).(*model.Permission)
	return p, args.Error(1)
}

func (m *MockPermissions) Set(ctx context.Context, callerID, projectID, userID uuid.UUID, flags map[model.Capability]bool) (*model.Permission, error) {
	args := m.Called(ctx, callerID, projectID, userID, flags)
	p, _ := args.Get(0).(*model.Permission)
	return p, args.Error(1)
}

type MockChat struct{ mock.Mock }

func (m *MockChat) PostUserMessage(ctx context.Context, projectID, authorID uuid.UUID, from, text string) (*model.ChatMessage, error) {
	args := m.Called(ctx, projectID, authorID, from, text)
	msg, _ := args.Get(0).(*model.ChatMessage)
	return msg, args.Error(1)
}

func (m *MockChat) ListMessages(ctx context.Context, projectID, callerID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	args := m.Called(ctx, projectID, callerID, limit)
	msgs, _ := args.Get(0).([]model.ChatMessage)
	return msgs, args.Error(1)
}

type MockTasks struct{ mock.Mock }

func (m *MockTasks) Assign(ctx context.Context, projectID, userID uuid.UUID) error {
	return m.Called(ctx, projectID, userID).Error(0)
}

func (m *MockTasks) Update(ctx context.Context, projectID, taskID uuid.UUID) error {
	return m.Called(ctx, projectID, taskID).Error(0)
}

func (m *MockTasks) SendTaskForReview(ctx context.Context, projectID uuid.UUID) error {
	return m.Called(ctx, projectID).Error(0)
}

func (m *MockTasks) Approve(ctx context.Context, projectID, taskID uuid.UUID) error {
	return m.Called(ctx, projectID, taskID).Error(0)
}

func (m *MockTasks) GetUserTasks(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	paths, _ := args.Get(0).([]string)
	return paths, args.Error(1)
}

func (m *MockTasks) List(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	args := m.Called(ctx, projectID)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockTasks) Get(ctx context.Context, projectID, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, projectID, taskID)
	task, _ := args.Get(0).(*model.Task)
	return task, args.Error(1)
}

func (m *MockTasks) Create(ctx context.Context, projectID, creatorID uuid.UUID, in service.TaskInput) (*model.Task, error) {
	args := m.Called(ctx, projectID, creatorID, in)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockTasks) Edit(ctx context.Context, projectID, taskID uuid.UUID, patch service.TaskPatch) (*model.Task, error) {
	args := m.Called(ctx, projectID, taskID, patch)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockTasks) Delete(ctx context.Context, projectID, taskID uuid.UUID) error {
	return m.Called(ctx, projectID, taskID).Error(0)
}

// asUser stands in for JWTAuthMiddleware.
type MockDevices struct{ mock.Mock }

func (m *MockDevices) VerifyDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

// MockPushChannel stands in for the websocket hub and answers 200 instead
// of upgrading.
type MockPushChannel struct{ mock.Mock }

func (m *MockPushChannel) ServeWS(c *gin.Context) {
	m.Called(c.Query("token"))
	c.Status(http.StatusOK)
}

func asUser(id uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, id)
		c.Next()
	}
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decode[T any](resp *httptest.ResponseRecorder) T {
	var out T
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	return out
}
