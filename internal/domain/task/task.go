package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("task not found")

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Description string `json:"description"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	Status      *Status `json:"status" binding:"omitempty,oneof=PENDING COMPLETED"`
}

// ListFilter narrows the owner-scoped task list. Status nil means all.
type ListFilter struct {
	Status *Status
}

// NewFromCreateRequest builds a fresh task owned by ownerID. Status always
// starts as PENDING regardless of input.
func NewFromCreateRequest(req CreateTaskRequest, ownerID string) Task {
	now := time.Now().UTC()

	return Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      StatusPending,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplyTo overlays only the provided fields on t. Ownership and timestamps
// are untouched here; updated_at moves when the store writes the row.
func (r UpdateTaskRequest) ApplyTo(t *Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}

	if r.Description != nil {
		t.Description = *r.Description
	}

	if r.Status != nil {
		t.Status = *r.Status
	}
}
