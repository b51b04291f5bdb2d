package handler

import (
	"net/http"
	"time"

	"collabolab/internal/model"
	"collabolab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks       TaskService
	permissions PermissionService
}

func NewTaskHandler(tasks TaskService, permissions PermissionService) *TaskHandler {
	return &TaskHandler{tasks: tasks, permissions: permissions}
}

// TaskRequest addresses one task of a project.
type TaskRequest struct {
	ProjectID uuid.UUID `json:"projectId" binding:"required"`
	TaskID    uuid.UUID `json:"taskId" binding:"required"`
}

type AssignTaskRequest struct {
	ProjectID uuid.UUID `json:"projectId" binding:"required"`
	UserID    uuid.UUID `json:"userId" binding:"required"`
}

type CreateTaskRequest struct {
	ProjectID   uuid.UUID `json:"projectId" binding:"required"`
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	AssignedTo  string    `json:"assignedTo"`
}

type CreateTaskResponse struct {
	TaskID uuid.UUID `json:"taskId"`
}

type EditTaskRequest struct {
	ProjectID   uuid.UUID `json:"projectId" binding:"required"`
	TaskID      uuid.UUID `json:"taskId" binding:"required"`
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	AssignedTo  *string   `json:"assignedTo"`
}

type UserTasksResponse struct {
	Tasks []string `json:"tasks"`
}

// TaskResponse is the wire form of a task. AssignedTo carries the
// unassigned sentinel when nobody holds the task.
type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"projectId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	AssignedTo  string    `json:"assignedTo"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	Path        string    `json:"path"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ListTasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

func newTaskResponse(t *model.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		AssignedTo:  model.FormatAssignee(t.AssignedTo),
		CreatedBy:   t.CreatedBy,
		Path:        t.Path(),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.permissions.RequireMember(ctx, req.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}
	tasks, err := h.tasks.List(ctx, req.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ListTasksResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.permissions.RequireMember(ctx, req.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}
	task, err := h.tasks.Get(ctx, req.ProjectID, req.TaskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *TaskHandler) SendToReview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.permissions.RequireMember(ctx, req.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}
	if err := h.tasks.SendTaskForReview(ctx, req.ProjectID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task sent for review"})
}

func (h *TaskHandler) Approve(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.permissions.Require(ctx, req.ProjectID, userID, model.CapReviewTask); err != nil {
		respondError(c, err)
		return
	}
	if err := h.tasks.Approve(ctx, req.ProjectID, req.TaskID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task approved"})
}

func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.permissions.RequireMember(ctx, req.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}
	if err := h.tasks.Update(ctx, req.ProjectID, req.TaskID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task updated"})
}

func (h *TaskHandler) Assign(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AssignTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.permissions.RequireMember(ctx, req.ProjectID, userID); err != nil {
		respondError(c, err)
		return
	}
	if err := h.tasks.Assign(ctx, req.ProjectID, req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task assigned"})
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.permissions.Require(ctx, req.ProjectID, userID, model.CapCreateTask); err != nil {
		respondError(c, err)
		return
	}
	task, err := h.tasks.Create(ctx, req.ProjectID, userID, service.TaskInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreateTaskResponse{TaskID: task.ID})
}

func (h *TaskHandler) Edit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req EditTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.permissions.Require(ctx, req.ProjectID, userID, model.CapEditTask); err != nil {
		respondError(c, err)
		return
	}
	_, err := h.tasks.Edit(ctx, req.ProjectID, req.TaskID, service.TaskPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task edited"})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.permissions.Require(ctx, req.ProjectID, userID, model.CapDeleteTask); err != nil {
		respondError(c, err)
		return
	}
	if err := h.tasks.Delete(ctx, req.ProjectID, req.TaskID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted"})
}

func (h *TaskHandler) UserTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	paths, err := h.tasks.GetUserTasks(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, UserTasksResponse{Tasks: paths})
}
