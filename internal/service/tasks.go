package service

import (
	"context"
	"fmt"

	"collabolab/internal/logger"
	"collabolab/internal/model"
	"collabolab/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const reviewFanout = 8

type Tasks struct {
	store     repository.Store
	notifier  *Notifier
	messenger *Messenger
	log       *logger.Logger
}

func NewTasks(store repository.Store, notifier *Notifier, messenger *Messenger, log *logger.Logger) *Tasks {
	return &Tasks{store: store, notifier: notifier, messenger: messenger, log: log}
}

// TaskInput is the client-supplied content of a new task. AssignedTo takes a
// user id, the unassigned sentinel or "".
type TaskInput struct {
	Name        string
	Description string
	Status      string
	AssignedTo  string
}

// TaskPatch holds the fields to change; nil fields are left as they are.
type TaskPatch struct {
	Name        *string
	Description *string
	Status      *string
	AssignedTo  *string
}

// Assign tells the user a task was assigned to them in the project.
func (s *Tasks) Assign(ctx context.Context, projectID, userID uuid.UUID) error {
	project, err := s.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return wrapNotFound(err)
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return wrapNotFound(err)
	}
	return s.notifier.notify(ctx, user, Notification{
		Title:       "New Task",
		Description: "a task has been assigned to you in " + project.Name,
	})
}

// Update tells the assignee the task changed. Unassigned tasks notify nobody.
func (s *Tasks) Update(ctx context.Context, projectID, taskID uuid.UUID) error {
	task, err := s.store.Tasks().GetByID(ctx, projectID, taskID)
	if err != nil {
		return wrapNotFound(err)
	}
	if task.AssignedTo == nil {
		return nil
	}
	return s.notifier.NotifyUser(ctx, *task.AssignedTo, Notification{
		Title:       "Task updated",
		Description: `task "` + task.Name + `" information has been updated`,
	})
}

// SendTaskForReview notifies every member allowed to review tasks. Individual
// delivery failures are logged.
func (s *Tasks) SendTaskForReview(ctx context.Context, projectID uuid.UUID) error {
	project, err := s.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		return wrapNotFound(err)
	}
	reviewers, err := s.store.Permissions().ListWithCapability(ctx, projectID, model.CapReviewTask)
	if err != nil {
		return err
	}

	note := Notification{
		Title:       "Task for review",
		Description: "A task has been sent for review in " + project.Name,
	}

	var g errgroup.Group
	g.SetLimit(reviewFanout)
	for _, perm := range reviewers {
		perm := perm
		g.Go(func() error {
			if err := s.notifier.NotifyUser(ctx, perm.UserID, note); err != nil {
				s.log.WithContext(ctx).Warn("review notification failed", "project_id", projectID, "user_id", perm.UserID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Approve notifies the assignee and announces the completion in the project
// chat. The task status is left to the client.
func (s *Tasks) Approve(ctx context.Context, projectID, taskID uuid.UUID) error {
	task, err := s.store.Tasks().GetByID(ctx, projectID, taskID)
	if err != nil {
		return wrapNotFound(err)
	}
	if task.AssignedTo == nil {
		return nil
	}
	assignee, err := s.store.Users().GetByID(ctx, *task.AssignedTo)
	if err != nil {
		return wrapNotFound(err)
	}

	err = s.notifier.notify(ctx, assignee, Notification{
		Title:       "Task approved",
		Description: "Your task has been approved",
	})
	if err != nil {
		return err
	}

	text := assignee.Name + ` has completed "` + task.Name + `" task`
	if err := s.messenger.PostSystemMessage(ctx, projectID, text); err != nil {
		s.log.WithContext(ctx).Warn("approval message not posted", "project_id", projectID, "task_id", taskID, "error", err)
	}
	return nil
}

// GetUserTasks returns the paths of the user's open tasks across all their
// projects, in the order of the user's project list.
func (s *Tasks) GetUserTasks(ctx context.Context, userID uuid.UUID) ([]string, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, wrapNotFound(err)
	}

	perProject := make([][]string, len(user.Projects))
	g, gctx := errgroup.WithContext(ctx)
	for i, projectID := range user.Projects {
		i, projectID := i, projectID
		g.Go(func() error {
			tasks, err := s.store.Tasks().ListAssigned(gctx, projectID, userID)
			if err != nil {
				return fmt.Errorf("project %s: %w", projectID, err)
			}
			for _, t := range tasks {
				if t.Status != model.StatusComplete {
					perProject[i] = append(perProject[i], t.Path())
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	paths := []string{}
	for _, p := range perProject {
		paths = append(paths, p...)
	}
	return paths, nil
}

// List returns the project's tasks, oldest first.
func (s *Tasks) List(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	if _, err := s.store.Projects().GetByID(ctx, projectID); err != nil {
		return nil, wrapNotFound(err)
	}
	tasks, err := s.store.Tasks().ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *Tasks) Get(ctx context.Context, projectID, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.store.Tasks().GetByID(ctx, projectID, taskID)
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return task, nil
}

func (s *Tasks) Create(ctx context.Context, projectID, creatorID uuid.UUID, in TaskInput) (*model.Task, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = model.StatusToDo
	}
	if !model.ValidTaskStatus(status) {
		return nil, ErrInvalidStatus
	}
	assignee, err := model.ParseAssignee(in.AssignedTo)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        in.Name,
		Description: in.Description,
		Status:      status,
		AssignedTo:  assignee,
		CreatedBy:   creatorID,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if assignee != nil && !project.HasMember(*assignee) {
			return ErrInvalidAssignee
		}
		return tx.Tasks().Create(ctx, task)
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return task, nil
}

func (s *Tasks) Edit(ctx context.Context, projectID, taskID uuid.UUID, patch TaskPatch) (*model.Task, error) {
	var task *model.Task

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		t, err := tx.Tasks().GetByID(ctx, projectID, taskID)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			if *patch.Name == "" {
				return fmt.Errorf("%w: name is required", ErrInvalidInput)
			}
			t.Name = *patch.Name
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Status != nil {
			if !model.ValidTaskStatus(*patch.Status) {
				return ErrInvalidStatus
			}
			t.Status = *patch.Status
		}
		if patch.AssignedTo != nil {
			assignee, err := model.ParseAssignee(*patch.AssignedTo)
			if err != nil {
				return err
			}
			if assignee != nil && !project.HasMember(*assignee) {
				return ErrInvalidAssignee
			}
			t.AssignedTo = assignee
		}

		task = t
		return tx.Tasks().Update(ctx, t)
	})
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return task, nil
}

func (s *Tasks) Delete(ctx context.Context, projectID, taskID uuid.UUID) error {
	return wrapNotFound(s.store.Tasks().Delete(ctx, projectID, taskID))
}
