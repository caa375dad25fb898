package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/taskify/internal/auth"
	"github.com/geocoder89/taskify/internal/cache"
	"github.com/geocoder89/taskify/internal/domain/task"
	"github.com/geocoder89/taskify/internal/http/handlers"
	"github.com/geocoder89/taskify/internal/http/middlewares"
	"github.com/geocoder89/taskify/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

// identityVerifier treats the bearer token itself as the user id, so tests
// can act as different users without minting real JWTs.
type identityVerifier struct{}

func (identityVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	return &auth.Claims{UserID: token, Email: token + "@example.com"}, nil
}

func newTasksRouter(store handlers.TaskStore, listCache *cache.Cache) *gin.Engine {
	h := handlers.NewTasksHandler(store, listCache)
	mw := middlewares.NewAuthMiddleware(identityVerifier{})

	r := gin.New()

	group := r.Group("/tasks")
	group.Use(mw.RequireAuth())
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.PATCH("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
	}

	return r
}

func doTaskJSON(t *testing.T, r *gin.Engine, method, path, body, asUser string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request

	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if asUser != "" {
		req.Header.Set("Authorization", "Bearer "+asUser)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeTask(t *testing.T, w *httptest.ResponseRecorder) task.Task {
	t.Helper()

	var got task.Task
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal task: %v body=%s", err, w.Body.String())
	}
	return got
}

func decodeTaskList(t *testing.T, w *httptest.ResponseRecorder) []task.Task {
	t.Helper()

	var resp struct {
		Items []task.Task `json:"items"`
		Count int         `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal list: %v body=%s", err, w.Body.String())
	}
	if resp.Count != len(resp.Items) {
		t.Fatalf("count %d disagrees with items %d", resp.Count, len(resp.Items))
	}
	return resp.Items
}

func TestCreateTask(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		asUser     string
		wantStatus int
	}{
		{
			name:       "success_defaults_to_pending",
			body:       `{"title":"t","description":"d"}`,
			asUser:     "user-a",
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing_title",
			body:       `{"description":"d"}`,
			asUser:     "user-a",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty_title",
			body:       `{"title":"","description":"d"}`,
			asUser:     "user-a",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no_bearer",
			body:       `{"title":"t"}`,
			asUser:     "",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := newTasksRouter(memory.NewTasksRepo(), nil)

			w := doTaskJSON(t, r, http.MethodPost, "/tasks", tt.body, tt.asUser)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantStatus == http.StatusCreated {
				created := decodeTask(t, w)

				if created.Status != task.StatusPending {
					t.Fatalf("got status %q, want PENDING", created.Status)
				}
				if created.UserID != tt.asUser {
					t.Fatalf("got owner %q, want %q", created.UserID, tt.asUser)
				}
			}
		})
	}
}

func TestTaskOwnership(t *testing.T) {
	r := newTasksRouter(memory.NewTasksRepo(), nil)

	created := doTaskJSON(t, r, http.MethodPost, "/tasks", `{"title":"t","description":"d"}`, "user-a")
	if created.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", created.Code, created.Body.String())
	}

	taskID := decodeTask(t, created).ID

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		asUser     string
		wantStatus int
	}{
		{"other_user_update", http.MethodPatch, "/tasks/" + taskID, `{"status":"COMPLETED"}`, "user-b", http.StatusForbidden},
		{"other_user_delete", http.MethodDelete, "/tasks/" + taskID, "", "user-b", http.StatusForbidden},
		{"owner_update", http.MethodPatch, "/tasks/" + taskID, `{"status":"COMPLETED"}`, "user-a", http.StatusOK},
		{"owner_delete", http.MethodDelete, "/tasks/" + taskID, "", "user-a", http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := doTaskJSON(t, r, tt.method, tt.path, tt.body, tt.asUser)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestTaskNotFound(t *testing.T) {
	r := newTasksRouter(memory.NewTasksRepo(), nil)

	const absentID = "3f3b6ed3-0af3-49f0-9dcd-37aa7ed8c980"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"update_absent", http.MethodPatch, "/tasks/" + absentID, `{"title":"x"}`},
		{"delete_absent", http.MethodDelete, "/tasks/" + absentID, ""},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := doTaskJSON(t, r, tt.method, tt.path, tt.body, "user-a")

			if w.Code != http.StatusNotFound {
				t.Fatalf("got status %d, want 404, body=%s", w.Code, w.Body.String())
			}
		})
	}

	t.Run("malformed_id", func(t *testing.T) {
		w := doTaskJSON(t, r, http.MethodPatch, "/tasks/not-a-uuid", `{"title":"x"}`, "user-a")

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
		}
	})
}

func TestListTasksFilterAndIsolation(t *testing.T) {
	r := newTasksRouter(memory.NewTasksRepo(), nil)

	seed := []struct {
		body   string
		asUser string
	}{
		{`{"title":"a1"}`, "user-a"},
		{`{"title":"a2"}`, "user-a"},
		{`{"title":"b1"}`, "user-b"},
	}

	var a1ID string

	for i, s := range seed {
		w := doTaskJSON(t, r, http.MethodPost, "/tasks", s.body, s.asUser)
		if w.Code != http.StatusCreated {
			t.Fatalf("seed %d failed: %d %s", i, w.Code, w.Body.String())
		}
		if i == 0 {
			a1ID = decodeTask(t, w).ID
		}
	}

	complete := doTaskJSON(t, r, http.MethodPatch, "/tasks/"+a1ID, `{"status":"COMPLETED"}`, "user-a")
	if complete.Code != http.StatusOK {
		t.Fatalf("complete failed: %d %s", complete.Code, complete.Body.String())
	}

	t.Run("list_is_owner_scoped", func(t *testing.T) {
		w := doTaskJSON(t, r, http.MethodGet, "/tasks", "", "user-a")

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		items := decodeTaskList(t, w)
		if len(items) != 2 {
			t.Fatalf("got %d tasks for user-a, want 2", len(items))
		}
		for _, item := range items {
			if item.UserID != "user-a" {
				t.Fatalf("leaked task owned by %q", item.UserID)
			}
		}
	})

	t.Run("status_filter", func(t *testing.T) {
		w := doTaskJSON(t, r, http.MethodGet, "/tasks?status=COMPLETED", "", "user-a")

		items := decodeTaskList(t, w)
		if len(items) != 1 || items[0].ID != a1ID {
			t.Fatalf("completed filter returned %+v", items)
		}
	})

	t.Run("invalid_status_filter", func(t *testing.T) {
		w := doTaskJSON(t, r, http.MethodGet, "/tasks?status=DONE", "", "user-a")

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
		}
	})
}

func TestListTasksETag(t *testing.T) {
	r := newTasksRouter(memory.NewTasksRepo(), nil)

	created := doTaskJSON(t, r, http.MethodPost, "/tasks", `{"title":"t"}`, "user-a")
	if created.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", created.Code)
	}

	first := doTaskJSON(t, r, http.MethodGet, "/tasks", "", "user-a")
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("list response should carry an ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer user-a")
	req.Header.Set("If-None-Match", etag)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want 304", w.Code)
	}
}

// End-to-end slice of the main product flow: create, complete, delete, list.
func TestTaskLifecycleScenario(t *testing.T) {
	listCache := cache.New(time.Minute)
	r := newTasksRouter(memory.NewTasksRepo(), listCache)

	created := doTaskJSON(t, r, http.MethodPost, "/tasks", `{"title":"t","description":"d"}`, "user-b")
	if created.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", created.Code, created.Body.String())
	}

	got := decodeTask(t, created)
	if got.Status != task.StatusPending {
		t.Fatalf("new task status %q, want PENDING", got.Status)
	}

	// warm the list cache, then make sure mutations invalidate it
	first := doTaskJSON(t, r, http.MethodGet, "/tasks", "", "user-b")
	if len(decodeTaskList(t, first)) != 1 {
		t.Fatalf("expected one task, body=%s", first.Body.String())
	}

	updated := doTaskJSON(t, r, http.MethodPatch, "/tasks/"+got.ID, `{"status":"COMPLETED"}`, "user-b")
	if updated.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", updated.Code, updated.Body.String())
	}
	if decodeTask(t, updated).Status != task.StatusCompleted {
		t.Fatalf("update did not complete the task: %s", updated.Body.String())
	}

	deleted := doTaskJSON(t, r, http.MethodDelete, "/tasks/"+got.ID, "", "user-b")
	if deleted.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", deleted.Code, deleted.Body.String())
	}
	if decodeTask(t, deleted).ID != got.ID {
		t.Fatalf("delete should return the removed record, body=%s", deleted.Body.String())
	}

	final := doTaskJSON(t, r, http.MethodGet, "/tasks", "", "user-b")
	if items := decodeTaskList(t, final); len(items) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", items)
	}
}
