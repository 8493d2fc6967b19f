package api

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"board-api/board"
	"board-api/domain"
	"board-api/storage"
	"board-api/users"
)

type stubAuth struct {
	identity Identity
	err      error
}

func (s stubAuth) IdentityFromAuthHeader(string) (Identity, error) {
	if s.err != nil {
		return Identity{}, s.err
	}
	return s.identity, nil
}

func asUser(subject string) stubAuth {
	return stubAuth{identity: Identity{Subject: subject, Email: subject + "@corp.example", Name: "Test User"}}
}

type fixture struct {
	e        *echo.Echo
	board    *board.Service
	profiles *users.Service
}

func newFixture() *fixture {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return &fixture{
		e:        echo.New(),
		board:    board.NewService(storage.NewMemoryStore(), logger),
		profiles: users.NewService(),
	}
}

func (f *fixture) request(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderAuthorization, "Bearer x.y.z")
	return req, httptest.NewRecorder()
}

func TestListColumnsBootstrapsDefaults(t *testing.T) {
	f := newFixture()
	req, rec := f.request(http.MethodGet, "/api/columns", "")
	c := f.e.NewContext(req, rec)

	if err := listColumns(f.board, asUser("alice"))(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cols []domain.Column
	if err := sonic.Unmarshal(rec.Body.Bytes(), &cols); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(cols) != 3 || cols[0].Name != "Backlog" || cols[2].Name != "Done" {
		t.Fatalf("unexpected columns: %+v", cols)
	}
}

func TestAuthFailureIs401(t *testing.T) {
	f := newFixture()
	req, rec := f.request(http.MethodGet, "/api/columns", "")
	c := f.e.NewContext(req, rec)

	badAuth := stubAuth{err: errors.New("token expired")}
	if err := listColumns(f.board, badAuth)(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateTaskFlow(t *testing.T) {
	f := newFixture()
	ctx := f.e.NewContext(f.request(http.MethodPost, "/api/columns/initialize", ""))
	if err := initColumns(f.board, asUser("alice"))(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	body := `{"title":"Write spec","columnId":"col-backlog","priority":"high"}`
	req, rec := f.request(http.MethodPost, "/api/tasks", body)
	c := f.e.NewContext(req, rec)
	if err := createTask(f.board, asUser("alice"))(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if task.OwnerID != "alice" || task.Priority != domain.PriorityHigh || task.Position != 0 {
		t.Fatalf("unexpected task: %+v", task)
	}

	// Move it.
	req, rec = f.request(http.MethodPost, "/api/tasks/"+task.ID+"/move", `{"columnId":"col-done","position":2}`)
	c = f.e.NewContext(req, rec)
	c.SetPath("/api/tasks/:taskID/move")
	c.SetParamNames("taskID")
	c.SetParamValues(task.ID)
	if err := moveTask(f.board, asUser("alice"))(c); err != nil {
		t.Fatalf("move: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var moved domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &moved); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if moved.ColumnID != "col-done" || moved.Position != 2 {
		t.Fatalf("move not applied: %+v", moved)
	}
}

func TestCreateTaskValidationIs400(t *testing.T) {
	f := newFixture()
	req, rec := f.request(http.MethodPost, "/api/tasks", `{"title":"","columnId":"c1"}`)
	c := f.e.NewContext(req, rec)
	if err := createTask(f.board, asUser("alice"))(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateTaskRejectsUnknownFields(t *testing.T) {
	f := newFixture()
	req, rec := f.request(http.MethodPut, "/api/tasks/t1", `{"userId":"mallory"}`)
	c := f.e.NewContext(req, rec)
	c.SetPath("/api/tasks/:taskID")
	c.SetParamNames("taskID")
	c.SetParamValues("t1")
	if err := updateTask(f.board, asUser("alice"))(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("owner override must be rejected, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteStatusMapping(t *testing.T) {
	f := newFixture()

	// Seed a task as alice.
	req, rec := f.request(http.MethodPost, "/api/tasks", `{"title":"mine","columnId":"c1"}`)
	c := f.e.NewContext(req, rec)
	if err := createTask(f.board, asUser("alice"))(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	var task domain.Task
	if err := sonic.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	del := func(user, id string) int {
		req, rec := f.request(http.MethodDelete, "/api/tasks/"+id, "")
		c := f.e.NewContext(req, rec)
		c.SetPath("/api/tasks/:taskID")
		c.SetParamNames("taskID")
		c.SetParamValues(id)
		if err := deleteTask(f.board, asUser(user))(c); err != nil {
			t.Fatalf("delete handler: %v", err)
		}
		return rec.Code
	}

	if code := del("bob", task.ID); code != http.StatusForbidden {
		t.Fatalf("foreign delete: expected 403, got %d", code)
	}
	if code := del("alice", "no-such-id"); code != http.StatusNotFound {
		t.Fatalf("missing delete: expected 404, got %d", code)
	}
	if code := del("alice", task.ID); code != http.StatusOK {
		t.Fatalf("own delete: expected 200, got %d", code)
	}
}

func TestProfileRoutes(t *testing.T) {
	f := newFixture()

	req, rec := f.request(http.MethodGet, "/api/users/me", "")
	c := f.e.NewContext(req, rec)
	if err := getProfile(f.profiles, asUser("auth0|u1"))(c); err != nil {
		t.Fatalf("me: %v", err)
	}
	var profile domain.Profile
	if err := sonic.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if profile.ID != "auth0|u1" || profile.Email != "auth0|u1@corp.example" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	// Another user's profile is off limits.
	req, rec = f.request(http.MethodGet, "/api/users/other", "")
	c = f.e.NewContext(req, rec)
	c.SetPath("/api/users/:userID")
	c.SetParamNames("userID")
	c.SetParamValues("auth0|u2")
	if err := getProfileByID(f.profiles, asUser("auth0|u1"))(c); err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	// Self-update sticks.
	req, rec = f.request(http.MethodPut, "/api/users/me", `{"name":"Renamed"}`)
	c = f.e.NewContext(req, rec)
	if err := updateProfile(f.profiles, asUser("auth0|u1"))(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if profile.Name != "Renamed" {
		t.Fatalf("name not updated: %+v", profile)
	}
}
