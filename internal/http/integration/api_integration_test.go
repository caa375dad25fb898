package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/geocoder89/taskify/internal/config"
	httpx "github.com/geocoder89/taskify/internal/http"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// These tests need a real postgres with the taskify schema applied. Set
// TEST_DB_DSN to run them; they are skipped otherwise.

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		JWTRefreshTTLDays:   7,
	}
}

func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping DB integration tests")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	router := httpx.NewRouter(logger, pool, nil, testConfig())

	return router, pool
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE refresh_tokens, tasks, users
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func do(t *testing.T, router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request

	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func token(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.AccessToken == "" {
		t.Fatalf("no access token in %s", w.Body.String())
	}
	return resp.AccessToken
}

func TestRegisterLoginTaskLifecycle(t *testing.T) {
	router, pool := setupRouter(t)
	resetDB(t, pool)

	// register
	registered := do(t, router, http.MethodPost, "/auth/register",
		`{"name":"B","email":"b@b.com","password":"123456"}`, "")
	if registered.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", registered.Code, registered.Body.String())
	}

	// duplicate register conflicts
	dup := do(t, router, http.MethodPost, "/auth/register",
		`{"name":"B","email":"b@b.com","password":"123456"}`, "")
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d %s", dup.Code, dup.Body.String())
	}

	// login with the same credentials
	loggedIn := do(t, router, http.MethodPost, "/auth/login",
		`{"email":"b@b.com","password":"123456"}`, "")
	if loggedIn.Code != http.StatusOK {
		t.Fatalf("login: %d %s", loggedIn.Code, loggedIn.Body.String())
	}
	bearer := token(t, loggedIn)

	// create
	created := do(t, router, http.MethodPost, "/tasks", `{"title":"t","description":"d"}`, bearer)
	if created.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", created.Code, created.Body.String())
	}

	var createdTask struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(created.Body.Bytes(), &createdTask); err != nil {
		t.Fatalf("unmarshal created task: %v", err)
	}
	if createdTask.Status != "PENDING" {
		t.Fatalf("new task status %q, want PENDING", createdTask.Status)
	}

	// another user cannot touch it
	otherReg := do(t, router, http.MethodPost, "/auth/register",
		`{"name":"C","email":"c@c.com","password":"123456"}`, "")
	if otherReg.Code != http.StatusCreated {
		t.Fatalf("second register: %d %s", otherReg.Code, otherReg.Body.String())
	}
	otherBearer := token(t, otherReg)

	forbidden := do(t, router, http.MethodPatch, "/tasks/"+createdTask.ID, `{"status":"COMPLETED"}`, otherBearer)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("cross-user update: %d %s", forbidden.Code, forbidden.Body.String())
	}

	// owner completes and deletes
	completed := do(t, router, http.MethodPatch, "/tasks/"+createdTask.ID, `{"status":"COMPLETED"}`, bearer)
	if completed.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", completed.Code, completed.Body.String())
	}

	deleted := do(t, router, http.MethodDelete, "/tasks/"+createdTask.ID, "", bearer)
	if deleted.Code != http.StatusOK {
		t.Fatalf("delete: %d %s", deleted.Code, deleted.Body.String())
	}

	list := do(t, router, http.MethodGet, "/tasks", "", bearer)
	if list.Code != http.StatusOK {
		t.Fatalf("list: %d %s", list.Code, list.Body.String())
	}

	var listResp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if listResp.Count != 0 {
		t.Fatalf("expected empty list after delete, got %d", listResp.Count)
	}
}

func TestProfileEmailImmutable(t *testing.T) {
	router, pool := setupRouter(t)
	resetDB(t, pool)

	registered := do(t, router, http.MethodPost, "/auth/register",
		`{"name":"B","email":"b@b.com","password":"123456"}`, "")
	if registered.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", registered.Code, registered.Body.String())
	}
	bearer := token(t, registered)

	updated := do(t, router, http.MethodPatch, "/users/me",
		`{"name":"Renamed","email":"other@b.com"}`, bearer)
	if updated.Code != http.StatusOK {
		t.Fatalf("update: %d %s", updated.Code, updated.Body.String())
	}

	var profile struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(updated.Body.Bytes(), &profile); err != nil {
		t.Fatalf("unmarshal profile: %v", err)
	}
	if profile.Name != "Renamed" {
		t.Fatalf("name not applied: %q", profile.Name)
	}
	if profile.Email != "b@b.com" {
		t.Fatalf("email changed to %q", profile.Email)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	router, pool := setupRouter(t)
	resetDB(t, pool)

	registered := do(t, router, http.MethodPost, "/auth/register",
		`{"name":"B","email":"b@b.com","password":"123456"}`, "")
	if registered.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", registered.Code, registered.Body.String())
	}
	bearer := token(t, registered)

	created := do(t, router, http.MethodPost, "/tasks", `{"title":"t"}`, bearer)
	if created.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", created.Code, created.Body.String())
	}

	deleted := do(t, router, http.MethodDelete, "/users/me", "", bearer)
	if deleted.Code != http.StatusOK {
		t.Fatalf("delete account: %d %s", deleted.Code, deleted.Body.String())
	}

	var taskCount int
	err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM tasks`).Scan(&taskCount)
	if err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if taskCount != 0 {
		t.Fatalf("expected tasks to cascade, found %d", taskCount)
	}

	// the still-valid token now resolves to a missing record
	me := do(t, router, http.MethodGet, "/users/me", "", bearer)
	if me.Code != http.StatusNotFound {
		t.Fatalf("stale token: %d %s", me.Code, me.Body.String())
	}
}
