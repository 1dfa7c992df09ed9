package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/vibast-solutions/ms-go-todo/app/controller"
	"github.com/vibast-solutions/ms-go-todo/app/entity"
	"github.com/vibast-solutions/ms-go-todo/app/repository"
	"github.com/vibast-solutions/ms-go-todo/app/service"
)

const (
	insertTaskQuery      = `(?s)INSERT INTO tasks \(`
	findTaskByOwnerQuery = `SELECT id, user_id, title, description, status, completed_at, created_at, updated_at FROM tasks WHERE id = \? AND user_id = \?`
	deleteTaskQuery      = `DELETE FROM tasks WHERE id = \? AND user_id = \?`
	countTasksQuery      = `SELECT COUNT\(\*\) FROM tasks WHERE user_id = \?`
	searchTasksQuery     = `(?s)SELECT id, user_id, title, description, status, completed_at, created_at, updated_at FROM tasks WHERE user_id = \?.* ORDER BY created_at DESC, id ASC LIMIT \? OFFSET \?`
)

var taskColumns = []string{"id", "user_id", "title", "description", "status", "completed_at", "created_at", "updated_at"}

func newTaskController(t *testing.T) (*controller.TaskController, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	svc := service.NewTaskService(repository.NewTaskRepository(db))
	return controller.NewTaskController(svc), mock, func() { _ = db.Close() }
}

func TestTaskController_Create_Created(t *testing.T) {
	ctrl, mock, cleanup := newTaskController(t)
	defer cleanup()

	mock.ExpectExec(insertTaskQuery).WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, rec := newJSONContext(http.MethodPost, "/tasks", `{"title":"buy milk","description":"two liters"}`)
	ctx.Set("user_id", "user-1")
	if err := ctrl.Create(ctx); err != nil {
		t.Fatalf("create handler failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		ID          string     `json:"id"`
		Title       string     `json:"title"`
		Status      string     `json:"status"`
		CompletedAt *time.Time `json:"completed_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Title != "buy milk" || body.Status != entity.TaskStatusIncomplete {
		t.Fatalf("unexpected task body: %+v", body)
	}
	if body.CompletedAt != nil {
		t.Fatal("expected completed_at to be null")
	}
}

func TestTaskController_Create_MissingTitle(t *testing.T) {
	ctrl, _, cleanup := newTaskController(t)
	defer cleanup()

	ctx, rec := newJSONContext(http.MethodPost, "/tasks", `{"description":"no title"}`)
	ctx.Set("user_id", "user-1")
	if err := ctrl.Create(ctx); err != nil {
		t.Fatalf("create handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTaskController_Create_NoUserInContext(t *testing.T) {
	ctrl, _, cleanup := newTaskController(t)
	defer cleanup()

	ctx, rec := newJSONContext(http.MethodPost, "/tasks", `{"title":"buy milk"}`)
	if err := ctrl.Create(ctx); err != nil {
		t.Fatalf("create handler failed: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTaskController_Get_NotFound(t *testing.T) {
	ctrl, mock, cleanup := newTaskController(t)
	defer cleanup()

	mock.ExpectQuery(findTaskByOwnerQuery).
		WithArgs("task-1", "user-1").
		WillReturnRows(sqlmock.NewRows(taskColumns))

	ctx, rec := newJSONContext(http.MethodGet, "/tasks/task-1", "")
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("taskId")
	ctx.SetParamValues("task-1")
	if err := ctrl.Get(ctx); err != nil {
		t.Fatalf("get handler failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTaskController_Update_OK(t *testing.T) {
	ctrl, mock, cleanup := newTaskController(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(findTaskByOwnerQuery).
		WithArgs("task-1", "user-1").
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow("task-1", "user-1", "buy milk", "", entity.TaskStatusIncomplete, nil, now, now))
	mock.ExpectExec(`(?s)UPDATE tasks SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, rec := newJSONContext(http.MethodPut, "/tasks/task-1", `{"status":"complete"}`)
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("taskId")
	ctx.SetParamValues("task-1")
	if err := ctrl.Update(ctx); err != nil {
		t.Fatalf("update handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Status      string     `json:"status"`
		CompletedAt *time.Time `json:"completed_at"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != entity.TaskStatusComplete || body.CompletedAt == nil {
		t.Fatalf("expected completed task with timestamp, got %+v", body)
	}
}

func TestTaskController_Delete_NoContent(t *testing.T) {
	ctrl, mock, cleanup := newTaskController(t)
	defer cleanup()

	mock.ExpectExec(deleteTaskQuery).
		WithArgs("task-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, rec := newJSONContext(http.MethodDelete, "/tasks/task-1", "")
	ctx.Set("user_id", "user-1")
	ctx.SetParamNames("taskId")
	ctx.SetParamValues("task-1")
	if err := ctrl.Delete(ctx); err != nil {
		t.Fatalf("delete handler failed: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestTaskController_Search_OK(t *testing.T) {
	ctrl, mock, cleanup := newTaskController(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(countTasksQuery).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))
	mock.ExpectQuery(searchTasksQuery).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow("task-1", "user-1", "buy milk", "", entity.TaskStatusIncomplete, nil, now, now))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/tasks?search=milk&status=incomplete", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	if err := ctrl.Search(ctx); err != nil {
		t.Fatalf("search handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Pagination struct {
			Current int   `json:"current"`
			Limit   int   `json:"limit"`
			Records int64 `json:"records"`
			Pages   int64 `json:"pages"`
		} `json:"pagination"`
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Pagination.Current != 1 || body.Pagination.Records != 1 || body.Pagination.Pages != 1 {
		t.Fatalf("unexpected pagination: %+v", body.Pagination)
	}
	if len(body.Data) != 1 {
		t.Fatalf("expected 1 task, got %d", len(body.Data))
	}
}

func TestTaskController_Search_BadTimestamp(t *testing.T) {
	ctrl, _, cleanup := newTaskController(t)
	defer cleanup()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/tasks?created_from=yesterday", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.Set("user_id", "user-1")

	if err := ctrl.Search(ctx); err != nil {
		t.Fatalf("search handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
