package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/taskify/internal/cache"
	"github.com/geocoder89/taskify/internal/config"
	"github.com/geocoder89/taskify/internal/domain/task"
	"github.com/geocoder89/taskify/internal/http/middlewares"
	"github.com/geocoder89/taskify/internal/policy"
	"github.com/geocoder89/taskify/internal/utils"
	"github.com/gin-gonic/gin"
)

type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	ListByOwner(ctx context.Context, ownerID string, filter task.ListFilter) ([]task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	Update(ctx context.Context, t task.Task) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

type TasksHandler struct {
	store TaskStore
	cache *cache.Cache
}

func NewTasksHandler(store TaskStore, listCache *cache.Cache) *TasksHandler {
	return &TasksHandler{store: store, cache: listCache}
}

func (h *TasksHandler) List(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var filter task.ListFilter

	if raw := ctx.Query("status"); raw != "" {
		status := task.Status(raw)

		if !status.Valid() {
			RespondBadRequest(ctx, "Invalid status filter", gin.H{
				"fields": []FieldError{
					{Field: "status", Rule: "oneof", Param: "PENDING COMPLETED", Message: "must be one of PENDING, COMPLETED"},
				},
			})
			return
		}

		filter.Status = &status
	}

	cacheKey := utils.BuildTasksListCacheKey(callerID, filter)

	if h.cache != nil {
		if cached, ok := h.cache.Get(cacheKey); ok {
			if tasks, ok := cached.([]task.Task); ok {
				RespondJSONWithETag(ctx, http.StatusOK, gin.H{
					"items": tasks,
					"count": len(tasks),
				})
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	tasks, err := h.store.ListByOwner(cctx, callerID, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	if h.cache != nil {
		h.cache.Set(cacheKey, tasks)
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": tasks,
		"count": len(tasks),
	})
}

func (h *TasksHandler) Create(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	created, err := h.store.Create(cctx, task.NewFromCreateRequest(req, callerID))

	if err != nil {
		RespondInternal(ctx, "Could not create task")
		return
	}

	h.invalidateList(callerID)

	ctx.JSON(http.StatusCreated, created)
}

func (h *TasksHandler) Update(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "task id must be a valid UUID", nil)
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	// find-then-act: the window between lookup and write is benign because
	// ownership never changes and a lost delete race surfaces as not-found
	existing, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not update task")
		return
	}

	if err := policy.AssertOwnership(existing.UserID, callerID); err != nil {
		RespondForbidden(ctx, "You do not own this task")
		return
	}

	req.ApplyTo(&existing)

	updated, err := h.store.Update(cctx, existing)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not update task")
		return
	}

	h.invalidateList(callerID)

	ctx.JSON(http.StatusOK, updated)
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || callerID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "task id must be a valid UUID", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)

	defer cancel()

	existing, err := h.store.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not delete task")
		return
	}

	if err := policy.AssertOwnership(existing.UserID, callerID); err != nil {
		RespondForbidden(ctx, "You do not own this task")
		return
	}

	err = h.store.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not delete task")
		return
	}

	h.invalidateList(callerID)

	// return the deleted record so clients can undo-render it
	ctx.JSON(http.StatusOK, existing)
}

func (h *TasksHandler) invalidateList(ownerID string) {
	if h.cache != nil {
		h.cache.DeletePrefix(utils.TasksListCachePrefix(ownerID))
	}
}
