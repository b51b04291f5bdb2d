package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusInReview   = "In Review"
	StatusComplete   = "Complete"
)

var taskStatuses = map[string]bool{
	StatusToDo:       true,
	StatusInProgress: true,
	StatusInReview:   true,
	StatusComplete:   true,
}

func ValidTaskStatus(s string) bool {
	return taskStatuses[s]
}

// Task is a unit of work inside a project. A nil AssignedTo means unassigned.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Name        string     `gorm:"not null"`
	Description string
	Status      string     `gorm:"not null"`
	AssignedTo  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Path is the document path clients use to address the task.
func (t *Task) Path() string {
	return fmt.Sprintf("projects/%s/tasks/%s", t.ProjectID, t.ID)
}

func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
