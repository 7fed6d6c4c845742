package tasks

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Task statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
	StatusCancelled  = "cancelled"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a unit of staff work, optionally tied to a client.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ClientID    string     `json:"clientId,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

var validate = validator.New()

// CreateRequest is the payload for opening a task.
type CreateRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	ClientID    string     `json:"clientId" validate:"omitempty,uuid4"`
	AssignedTo  string     `json:"assignedTo" validate:"omitempty,uuid4"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

// Validate checks the payload against its field constraints.
func (r *CreateRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateRequest is the payload for editing a task. Nil fields are left
// unchanged. Assignment changes go through AssignRequest instead so the
// assign permission gates them separately.
type UpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=open in-progress done cancelled"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

// Validate checks the payload against its field constraints.
func (r *UpdateRequest) Validate() error {
	return validate.Struct(r)
}

// Apply copies the set fields onto the task, stamping CompletedAt when the
// status transitions to done.
func (r *UpdateRequest) Apply(t *Task, now time.Time) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Status != nil && *r.Status != t.Status {
		t.Status = *r.Status
		if t.Status == StatusDone {
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
		}
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.DueDate != nil {
		t.DueDate = r.DueDate
	}
}

// AssignRequest reassigns a task to a staff member. An empty assignee
// unassigns it.
type AssignRequest struct {
	AssignedTo string `json:"assignedTo" validate:"omitempty,uuid4"`
}

// Validate checks the payload against its field constraints.
func (r *AssignRequest) Validate() error {
	return validate.Struct(r)
}
