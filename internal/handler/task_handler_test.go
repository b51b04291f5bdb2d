package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"collabolab/internal/handler"
	"collabolab/internal/model"
	"collabolab/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupTasks(caller uuid.UUID) (*gin.Engine, *MockTasks, *MockPermissions) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tasks := new(MockTasks)
	perms := new(MockPermissions)
	h := handler.NewTaskHandler(tasks, perms)

	r.Use(asUser(caller))
	r.POST("/sendTaskToReview", h.SendToReview)
	r.POST("/approveTask", h.Approve)
	r.POST("/updateTask", h.Update)
	r.POST("/assignTask", h.Assign)
	r.POST("/createTask", h.Create)
	r.POST("/editTask", h.Edit)
	r.POST("/deleteTask", h.Delete)
	r.POST("/getUserTasks", h.UserTasks)
	r.POST("/listTasks", h.List)
	r.POST("/getTask", h.Get)
	return r, tasks, perms
}

func TestCreateTask(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("Require", mock.Anything, projectID, caller, model.CapCreateTask).Return(nil)
	task := &model.Task{ID: uuid.New(), ProjectID: projectID, Name: "Write docs"}
	tasks.On("Create", mock.Anything, projectID, caller, service.TaskInput{
		Name:       "Write docs",
		Status:     model.StatusToDo,
		AssignedTo: model.UnassignedUserID,
	}).Return(task, nil)

	resp := postJSON(router, "/createTask", handler.CreateTaskRequest{
		ProjectID:  projectID,
		Name:       "Write docs",
		Status:     model.StatusToDo,
		AssignedTo: model.UnassignedUserID,
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, task.ID, decode[handler.CreateTaskResponse](resp).TaskID)
	tasks.AssertExpectations(t)
}

func TestCreateTask_WithoutCapability(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("Require", mock.Anything, projectID, caller, model.CapCreateTask).Return(service.ErrUnauthorized)

	resp := postJSON(router, "/createTask", handler.CreateTaskRequest{ProjectID: projectID, Name: "x"})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	tasks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateTask_InvalidAssignee(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("Require", mock.Anything, projectID, caller, model.CapCreateTask).Return(nil)
	tasks.On("Create", mock.Anything, projectID, caller, mock.Anything).Return(nil, service.ErrInvalidAssignee)

	resp := postJSON(router, "/createTask", handler.CreateTaskRequest{ProjectID: projectID, Name: "x", AssignedTo: "nobody"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEditTask_PartialPatch(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	taskID := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("Require", mock.Anything, projectID, caller, model.CapEditTask).Return(nil)
	tasks.On("Edit", mock.Anything, projectID, taskID, mock.MatchedBy(func(p service.TaskPatch) bool {
		return p.Status != nil && *p.Status == model.StatusInProgress &&
			p.Name == nil && p.Description == nil && p.AssignedTo == nil
	})).Return(&model.Task{ID: taskID}, nil)

	resp := postJSON(router, "/editTask", map[string]any{
		"projectId": projectID,
		"taskId":    taskID,
		"status":    model.StatusInProgress,
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	tasks.AssertExpectations(t)
}

func TestEditTask_InvalidStatus(t *testing.T) {
	caller := uuid.New()
	req := handler.TaskRequest{ProjectID: uuid.New(), TaskID: uuid.New()}
	router, tasks, perms := setupTasks(caller)
	perms.On("Require", mock.Anything, req.ProjectID, caller, model.CapEditTask).Return(nil)
	tasks.On("Edit", mock.Anything, req.ProjectID, req.TaskID, mock.Anything).Return(nil, service.ErrInvalidStatus)

	resp := postJSON(router, "/editTask", map[string]any{"projectId": req.ProjectID, "taskId": req.TaskID, "status": "Done?"})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteTask(t *testing.T) {
	caller := uuid.New()
	req := handler.TaskRequest{ProjectID: uuid.New(), TaskID: uuid.New()}
	router, tasks, perms := setupTasks(caller)
	perms.On("Require", mock.Anything, req.ProjectID, caller, model.CapDeleteTask).Return(nil)
	tasks.On("Delete", mock.Anything, req.ProjectID, req.TaskID).Return(nil)

	resp := postJSON(router, "/deleteTask", req)

	assert.Equal(t, http.StatusOK, resp.Code)
	tasks.AssertExpectations(t)
}

func TestDeleteTask_Missing(t *testing.T) {
	caller := uuid.New()
	req := handler.TaskRequest{ProjectID: uuid.New(), TaskID: uuid.New()}
	router, tasks, perms := setupTasks(caller)
	perms.On("Require", mock.Anything, req.ProjectID, caller, model.CapDeleteTask).Return(nil)
	tasks.On("Delete", mock.Anything, req.ProjectID, req.TaskID).Return(service.ErrNotFound)

	resp := postJSON(router, "/deleteTask", req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestApproveTask_NeedsReviewCapability(t *testing.T) {
	caller := uuid.New()
	req := handler.TaskRequest{ProjectID: uuid.New(), TaskID: uuid.New()}
	router, tasks, perms := setupTasks(caller)
	perms.On("Require", mock.Anything, req.ProjectID, caller, model.CapReviewTask).Return(nil)
	tasks.On("Approve", mock.Anything, req.ProjectID, req.TaskID).Return(nil)

	resp := postJSON(router, "/approveTask", req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Task approved", decode[handler.MessageResponse](resp).Message)
}

func TestSendTaskToReview(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("RequireMember", mock.Anything, projectID, caller).Return(&model.Project{ID: projectID}, nil)
	tasks.On("SendTaskForReview", mock.Anything, projectID).Return(nil)

	resp := postJSON(router, "/sendTaskToReview", handler.ProjectRequest{ProjectID: projectID})

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Task sent for review", decode[handler.MessageResponse](resp).Message)
}

func TestSendTaskToReview_NotMember(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("RequireMember", mock.Anything, projectID, caller).Return(nil, service.ErrUnauthorized)

	resp := postJSON(router, "/sendTaskToReview", handler.ProjectRequest{ProjectID: projectID})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	tasks.AssertNotCalled(t, "SendTaskForReview", mock.Anything, mock.Anything)
}

func TestUpdateAndAssignTask(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	taskID := uuid.New()
	assignee := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("RequireMember", mock.Anything, projectID, caller).Return(&model.Project{ID: projectID}, nil)
	tasks.On("Update", mock.Anything, projectID, taskID).Return(nil)
	tasks.On("Assign", mock.Anything, projectID, assignee).Return(nil)

	resp := postJSON(router, "/updateTask", handler.TaskRequest{ProjectID: projectID, TaskID: taskID})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Task updated", decode[handler.MessageResponse](resp).Message)

	resp = postJSON(router, "/assignTask", handler.AssignTaskRequest{ProjectID: projectID, UserID: assignee})
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Task assigned", decode[handler.MessageResponse](resp).Message)

	tasks.AssertExpectations(t)
}

func TestGetUserTasks(t *testing.T) {
	caller := uuid.New()
	router, tasks, _ := setupTasks(caller)
	paths := []string{"projects/a/tasks/1", "projects/b/tasks/2"}
	tasks.On("GetUserTasks", mock.Anything, caller).Return(paths, nil)

	resp := postJSON(router, "/getUserTasks", struct{}{})

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, paths, decode[handler.UserTasksResponse](resp).Tasks)
}

func TestGetUserTasks_Failure(t *testing.T) {
	caller := uuid.New()
	router, tasks, _ := setupTasks(caller)
	tasks.On("GetUserTasks", mock.Anything, caller).Return(nil, errors.New("query failed"))

	resp := postJSON(router, "/getUserTasks", struct{}{})

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestListTasks(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("RequireMember", mock.Anything, projectID, caller).Return(&model.Project{ID: projectID}, nil)
	assignee := uuid.New()
	tasks.On("List", mock.Anything, projectID).Return([]model.Task{
		{ID: uuid.New(), ProjectID: projectID, Name: "Draft", Status: model.StatusToDo},
		{ID: uuid.New(), ProjectID: projectID, Name: "Ship", Status: model.StatusInReview, AssignedTo: &assignee},
	}, nil)

	resp := postJSON(router, "/listTasks", handler.ProjectRequest{ProjectID: projectID})

	assert.Equal(t, http.StatusOK, resp.Code)
	got := decode[handler.ListTasksResponse](resp).Tasks
	if assert.Len(t, got, 2) {
		assert.Equal(t, "Draft", got[0].Name)
		assert.Equal(t, model.UnassignedUserID, got[0].AssignedTo)
		assert.Equal(t, assignee.String(), got[1].AssignedTo)
		assert.Equal(t, "projects/"+projectID.String()+"/tasks/"+got[1].ID.String(), got[1].Path)
	}
}

func TestListTasks_NotMember(t *testing.T) {
	caller := uuid.New()
	projectID := uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("RequireMember", mock.Anything, projectID, caller).Return(nil, service.ErrUnauthorized)

	resp := postJSON(router, "/listTasks", handler.ProjectRequest{ProjectID: projectID})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	tasks.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGetTask(t *testing.T) {
	caller := uuid.New()
	projectID, taskID := uuid.New(), uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("RequireMember", mock.Anything, projectID, caller).Return(&model.Project{ID: projectID}, nil)
	tasks.On("Get", mock.Anything, projectID, taskID).Return(&model.Task{
		ID: taskID, ProjectID: projectID, Name: "Draft", Status: model.StatusInProgress, CreatedBy: caller,
	}, nil)

	resp := postJSON(router, "/getTask", handler.TaskRequest{ProjectID: projectID, TaskID: taskID})

	assert.Equal(t, http.StatusOK, resp.Code)
	got := decode[handler.TaskResponse](resp)
	assert.Equal(t, taskID, got.ID)
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Equal(t, model.UnassignedUserID, got.AssignedTo)
	assert.Equal(t, caller, got.CreatedBy)
}

func TestGetTask_NotFound(t *testing.T) {
	caller := uuid.New()
	projectID, taskID := uuid.New(), uuid.New()
	router, tasks, perms := setupTasks(caller)
	perms.On("RequireMember", mock.Anything, projectID, caller).Return(&model.Project{ID: projectID}, nil)
	tasks.On("Get", mock.Anything, projectID, taskID).Return(nil, service.ErrNotFound)

	resp := postJSON(router, "/getTask", handler.TaskRequest{ProjectID: projectID, TaskID: taskID})

	assert.Equal(t, http.StatusNotFound, resp.Code)
}
