package controller_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vibast-solutions/ms-go-todo/app/controller"
	"github.com/vibast-solutions/ms-go-todo/app/repository"
	"github.com/vibast-solutions/ms-go-todo/app/service"
)

const findResetTokenByTokenQuery = `SELECT id, user_id, token, expires_at, used_at, deleted_at, created_at, updated_at FROM password_reset_tokens WHERE token = \?`

var resetTokenColumns = []string{"id", "user_id", "token", "expires_at", "used_at", "deleted_at", "created_at", "updated_at"}

func newResetController(t *testing.T) (*controller.PasswordResetController, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	svc := service.NewPasswordResetService(
		db,
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		repository.NewPasswordResetTokenRepository(db),
		repository.NewAuditLogRepository(db),
		testConfig(),
	)
	return controller.NewPasswordResetController(svc), mock, func() { _ = db.Close() }
}

// The response for an unknown email is byte for byte the same as for a
// registered one.
func TestPasswordResetController_Request_UnknownEmailStillSucceeds(t *testing.T) {
	ctrl, mock, cleanup := newResetController(t)
	defer cleanup()

	mock.ExpectQuery(findUserByEmailQuery).
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	ctx, rec := newJSONContext(http.MethodPost, "/auth/password-reset/request", `{"email":"missing@example.com"}`)
	if err := ctrl.Request(ctx); err != nil {
		t.Fatalf("request handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body["success"] {
		t.Fatal("expected success response")
	}
}

func TestPasswordResetController_Validate_UnknownToken(t *testing.T) {
	ctrl, mock, cleanup := newResetController(t)
	defer cleanup()

	mock.ExpectQuery(findResetTokenByTokenQuery).
		WithArgs("token-unknown").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns))

	ctx, rec := newJSONContext(http.MethodPost, "/auth/password-reset/validate", `{"token":"token-unknown"}`)
	if err := ctrl.Validate(ctx); err != nil {
		t.Fatalf("validate handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["valid"] {
		t.Fatal("expected valid=false for unknown token")
	}
}

func TestPasswordResetController_Validate_LiveToken(t *testing.T) {
	ctrl, mock, cleanup := newResetController(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(findResetTokenByTokenQuery).
		WithArgs("token-1").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns).
			AddRow("reset-1", "user-1", "token-1", now.Add(time.Hour), nil, nil, now, now))

	ctx, rec := newJSONContext(http.MethodPost, "/auth/password-reset/validate", `{"token":"token-1"}`)
	if err := ctrl.Validate(ctx); err != nil {
		t.Fatalf("validate handler failed: %v", err)
	}

	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !body["valid"] {
		t.Fatal("expected valid=true for live token")
	}
}

func TestPasswordResetController_Complete_InvalidToken(t *testing.T) {
	ctrl, mock, cleanup := newResetController(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(findResetTokenByTokenQuery).
		WithArgs("token-unknown").
		WillReturnRows(sqlmock.NewRows(resetTokenColumns))
	mock.ExpectRollback()

	ctx, rec := newJSONContext(http.MethodPost, "/auth/password-reset/complete", `{"token":"token-unknown","new_password":"newpassword1"}`)
	if err := ctrl.Complete(ctx); err != nil {
		t.Fatalf("complete handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPasswordResetController_Complete_MissingFields(t *testing.T) {
	ctrl, _, cleanup := newResetController(t)
	defer cleanup()

	ctx, rec := newJSONContext(http.MethodPost, "/auth/password-reset/complete", `{"token":"token-1"}`)
	if err := ctrl.Complete(ctx); err != nil {
		t.Fatalf("complete handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
