package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
	"taskboard/internal/security"
	"taskboard/internal/service"
	"taskboard/internal/storage/memory"
)

type testAPI struct {
	t     *testing.T
	srv   *Server
	svc   *service.Services
	store *memory.Store
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()
	tokens, err := security.NewTokenManager("router-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	svc := service.New(store, tokens, logger)
	return &testAPI{t: t, srv: New(svc, logger, opts), svc: svc, store: store}
}

func (a *testAPI) request(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.request(req)
}

func (a *testAPI) login(email, password string) *httptest.ResponseRecorder {
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.1:1234"
	return a.request(req)
}

// signup registers email and returns the user with a fresh token.
func (a *testAPI) signup(email string) (models.User, string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": email, "password": "pw-" + email})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var u models.User
	decode(a.t, rec, &u)

	rec = a.login(email, "pw-"+email)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var tok models.Token
	decode(a.t, rec, &tok)
	return u, tok.AccessToken
}

func (a *testAPI) createBoard(token, name string) models.Board {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/boards", token, map[string]string{"name": name})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var b models.Board
	decode(a.t, rec, &b)
	return b
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	decode(t, rec, &body)
	return body.Detail
}

func TestRegisterLoginAndMe(t *testing.T) {
	api := newTestAPI(t, Options{})

	user, token := api.signup("Ana@Example.com")
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotContains(t, api.do(http.MethodGet, "/api/v1/users/me", token, nil).Body.String(), "password")

	rec := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "ana@example.com", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email ana@example.com is already registered.", detail(t, rec))

	rec = api.login("ana@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = api.do(http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decode(t, rec, &me)
	assert.Equal(t, user.ID, me.ID)
}

func TestRegisterRejectsInvalidBody(t *testing.T) {
	api := newTestAPI(t, Options{})

	rec := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, api.request(req).Code)
}

func TestRegisterRejectsPasswordLongerThanBcryptAccepts(t *testing.T) {
	api := newTestAPI(t, Options{})

	rec := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "long@example.com",
		"password": strings.Repeat("a", 100),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// 40 two-byte runes pass the length binding but exceed 72 bytes.
	rec = api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "runes@example.com",
		"password": strings.Repeat("é", 40),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "Password must be at most 72 bytes.", detail(t, rec))

	rec = api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "edge@example.com",
		"password": strings.Repeat("a", 72),
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestBearerFailures(t *testing.T) {
	api := newTestAPI(t, Options{})
	user, _ := api.signup("ana@example.com")

	rec := api.do(http.MethodGet, "/api/v1/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = api.do(http.MethodGet, "/api/v1/boards", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token.", detail(t, rec))

	expired, err := api.svc.Auth.IssueToken(user.Email, -time.Second)
	require.NoError(t, err)
	rec = api.do(http.MethodGet, "/api/v1/users/me", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has expired.", detail(t, rec))

	ghost, err := api.svc.Auth.IssueToken("ghost@example.com", 0)
	require.NoError(t, err)
	rec = api.do(http.MethodGet, "/api/v1/users/me", ghost, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, api.store.SetUserActive(context.Background(), user.ID, false))
	fresh, err := api.svc.Auth.IssueToken(user.Email, 0)
	require.NoError(t, err)
	rec = api.do(http.MethodGet, "/api/v1/users/me", fresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User is inactive.", detail(t, rec))
}

func TestListUsersPagination(t *testing.T) {
	api := newTestAPI(t, Options{})
	_, token := api.signup("u0@example.com")
	for i := 1; i < 4; i++ {
		api.signup(fmt.Sprintf("u%d@example.com", i))
	}

	rec := api.do(http.MethodGet, "/api/v1/users?offset=1&limit=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.Page[models.User]
	decode(t, rec, &page)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "u1@example.com", page.Items[0].Email)

	rec = api.do(http.MethodGet, "/api/v1/users", token, nil)
	decode(t, rec, &page)
	assert.Equal(t, 100, page.Limit)

	for _, q := range []string{"limit=0", "limit=101", "offset=-1", "limit=abc"} {
		rec = api.do(http.MethodGet, "/api/v1/users?"+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/users", "", nil).Code)
}

func TestSprintScenarioOverHTTP(t *testing.T) {
	api := newTestAPI(t, Options{})
	_, adminToken := api.signup("a@x.com")
	b, _ := api.signup("b@x.com")

	board := api.createBoard(adminToken, "Sprint 1")
	path := fmt.Sprintf("/api/v1/boards/%d/collaborator/%d", board.ID, b.ID)

	rec := api.do(http.MethodPost, path, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Collaborator added successfully", detail(t, rec))

	rec = api.do(http.MethodPost, path, adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for i := 0; i < 9; i++ {
		u, _ := api.signup(fmt.Sprintf("extra%d@x.com", i))
		rec = api.do(http.MethodPost, fmt.Sprintf("/api/v1/boards/%d/collaborator/%d", board.ID, u.ID), adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	eleventh, _ := api.signup("eleventh@x.com")
	rec = api.do(http.MethodPost, fmt.Sprintf("/api/v1/boards/%d/collaborator/%d", board.ID, eleventh.ID), adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/v1/boards/%d", board.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.BoardDetail
	decode(t, rec, &got)
	assert.Len(t, got.Collaborators, models.MaxCollaborators)

	rec = api.do(http.MethodDelete, path, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Collaborator removed successfully", detail(t, rec))
}

func TestCollaboratorCannotManageBoard(t *testing.T) {
	api := newTestAPI(t, Options{})
	_, adminToken := api.signup("admin@x.com")
	collab, collabToken := api.signup("collab@x.com")
	_, strangerToken := api.signup("stranger@x.com")

	board := api.createBoard(adminToken, "Roadmap")
	rec := api.do(http.MethodPost, fmt.Sprintf("/api/v1/boards/%d/collaborator/%d", board.ID, collab.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	tasksPath := fmt.Sprintf("/api/v1/boards/%d/tasks", board.ID)
	rec = api.do(http.MethodPost, tasksPath, collabToken, map[string]string{"title": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, tasksPath, adminToken, map[string]string{"title": "Plan"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task models.Task
	decode(t, rec, &task)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)

	boardPath := fmt.Sprintf("/api/v1/boards/%d", board.ID)
	for _, token := range []string{collabToken, strangerToken} {
		assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, boardPath, token, nil).Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodPatch, boardPath, token, map[string]string{"name": "x"}).Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, boardPath, token, nil).Code)
		assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, fmt.Sprintf("/api/v1/tasks/%d", task.ID), token, nil).Code)
	}

	rec = api.do(http.MethodGet, "/api/v1/boards", collabToken, nil)
	var page models.Page[models.Board]
	decode(t, rec, &page)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)
}

func TestBoardLifecycle(t *testing.T) {
	api := newTestAPI(t, Options{})
	_, token := api.signup("admin@x.com")
	board := api.createBoard(token, "Old")
	boardPath := fmt.Sprintf("/api/v1/boards/%d", board.ID)

	rec := api.do(http.MethodPatch, boardPath, token, map[string]string{"name": "New"})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Board
	decode(t, rec, &updated)
	assert.Equal(t, "New", updated.Name)

	rec = api.do(http.MethodPost, "/api/v1/boards", token, map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, title := range []string{"a", "b"} {
		rec = api.do(http.MethodPost, boardPath+"/tasks", token, map[string]string{"title": title, "status": "done"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	api.do(http.MethodPost, boardPath+"/tasks", token, map[string]string{"title": "c", "priority": "HIGH"})

	rec = api.do(http.MethodGet, boardPath+"?priority=HIGH", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.BoardDetail
	decode(t, rec, &got)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "c", got.Tasks[0].Title)
	assert.InDelta(t, 66.67, got.CompletionPercentage, 0.01)

	rec = api.do(http.MethodGet, boardPath+"?status=BLOCKED", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodDelete, boardPath, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, boardPath, token, nil).Code)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/boards/abc", token, nil).Code)
}

func TestTaskLifecycle(t *testing.T) {
	api := newTestAPI(t, Options{})
	_, adminToken := api.signup("admin@x.com")
	collab, _ := api.signup("collab@x.com")
	stranger, _ := api.signup("stranger@x.com")
	board := api.createBoard(adminToken, "Sprint 1")
	api.do(http.MethodPost, fmt.Sprintf("/api/v1/boards/%d/collaborator/%d", board.ID, collab.ID), adminToken, nil)

	rec := api.do(http.MethodPost, fmt.Sprintf("/api/v1/boards/%d/tasks", board.ID), adminToken, map[string]string{"title": "Plan", "priority": "low"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var task models.Task
	decode(t, rec, &task)
	taskPath := fmt.Sprintf("/api/v1/tasks/%d", task.ID)

	rec = api.do(http.MethodPatch, taskPath, adminToken, map[string]string{"status": "IN_PROGRESS"})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &task)
	assert.Equal(t, models.StatusInProgress, task.Status)
	assert.Equal(t, models.PriorityLow, task.Priority)

	rec = api.do(http.MethodPatch, taskPath, adminToken, map[string]string{"priority": "URGENT"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, fmt.Sprintf("%s/assign/%d", taskPath, stranger.ID), adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = api.do(http.MethodPost, taskPath+"/assign/9999", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, fmt.Sprintf("%s/assign/%d", taskPath, collab.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task assigned successfully", detail(t, rec))

	rec = api.do(http.MethodGet, taskPath, adminToken, nil)
	decode(t, rec, &task)
	require.NotNil(t, task.AssignedUserID)
	assert.Equal(t, collab.ID, *task.AssignedUserID)

	rec = api.do(http.MethodPost, taskPath+"/unassign", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task unassigned successfully", detail(t, rec))

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, taskPath, adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, taskPath, adminToken, nil).Code)
}

func TestLoginRateLimit(t *testing.T) {
	api := newTestAPI(t, Options{LoginRate: 0.001, LoginBurst: 2})

	assert.Equal(t, http.StatusUnauthorized, api.login("x@x.com", "nope").Code)
	assert.Equal(t, http.StatusUnauthorized, api.login("x@x.com", "nope").Code)

	rec := api.login("x@x.com", "nope")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, detail(t, rec))
}

func TestRequestIDHealthAndMetrics(t *testing.T) {
	healthy := true
	api := newTestAPI(t, Options{Health: func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("database is closed")
	}})

	rec := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", api.request(req).Header().Get("X-Request-ID"))

	healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, api.do(http.MethodGet, "/healthz", "", nil).Code)

	api.do(http.MethodGet, "/api/v1/users/me", "", nil)
	rec = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "taskboard_http_requests_total")
	assert.Contains(t, body, `path="/api/v1/users/me"`)
	assert.Contains(t, body, `taskboard_api_errors_total{kind="unauthenticated"}`)

	rec = api.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", detail(t, rec))
}

func TestDocsMount(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>taskboard</h1>"), 0o644))
	api := newTestAPI(t, Options{DocsDir: dir})

	rec := api.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/docs/", rec.Header().Get("Location"))

	rec = api.do(http.MethodGet, "/docs/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskboard")
}
