package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/taskify/internal/domain/task"
)

// TasksRepo is a map-backed stand-in for the postgres repo. Handler tests use
// it to run full request scenarios without a database.
type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) ListByOwner(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]task.Task, 0)

	for _, t := range r.items {
		if t.UserID != ownerID {
			continue
		}

		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}

		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	r.mu.RLock()
	t, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	return t, nil
}

func (r *TasksRepo) Update(ctx context.Context, t task.Task) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}

	r.items[t.ID] = t

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return task.ErrNotFound
	}

	delete(r.items, id)

	return nil
}
