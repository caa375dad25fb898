package task_test

import (
	"testing"

	"github.com/geocoder89/taskify/internal/domain/task"
)

func strPtr(s string) *string { return &s }

func statusPtr(s task.Status) *task.Status { return &s }

func TestNewFromCreateRequestDefaults(t *testing.T) {
	created := task.NewFromCreateRequest(task.CreateTaskRequest{
		Title:       "t",
		Description: "d",
	}, "owner-1")

	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if created.Status != task.StatusPending {
		t.Fatalf("got status %q, want PENDING", created.Status)
	}
	if created.UserID != "owner-1" {
		t.Fatalf("got owner %q, want owner-1", created.UserID)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("timestamps should be set")
	}
}

func TestUpdateRequestApplyTo(t *testing.T) {
	base := task.Task{
		ID:          "task-1",
		Title:       "old title",
		Description: "old description",
		Status:      task.StatusPending,
		UserID:      "owner-1",
	}

	tests := []struct {
		name string
		req  task.UpdateTaskRequest
		want task.Task
	}{
		{
			name: "no_fields_is_noop",
			req:  task.UpdateTaskRequest{},
			want: base,
		},
		{
			name: "title_only",
			req:  task.UpdateTaskRequest{Title: strPtr("new title")},
			want: task.Task{ID: "task-1", Title: "new title", Description: "old description", Status: task.StatusPending, UserID: "owner-1"},
		},
		{
			name: "status_only",
			req:  task.UpdateTaskRequest{Status: statusPtr(task.StatusCompleted)},
			want: task.Task{ID: "task-1", Title: "old title", Description: "old description", Status: task.StatusCompleted, UserID: "owner-1"},
		},
		{
			name: "clear_description",
			req:  task.UpdateTaskRequest{Description: strPtr("")},
			want: task.Task{ID: "task-1", Title: "old title", Description: "", Status: task.StatusPending, UserID: "owner-1"},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got := base
			tt.req.ApplyTo(&got)

			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	if !task.StatusPending.Valid() || !task.StatusCompleted.Valid() {
		t.Fatal("known statuses should be valid")
	}

	if task.Status("DONE").Valid() {
		t.Fatal("unknown status should be invalid")
	}
}
