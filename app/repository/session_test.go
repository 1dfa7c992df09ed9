package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vibast-solutions/ms-go-todo/app/entity"
	"github.com/vibast-solutions/ms-go-todo/app/repository"
)

const (
	insertSessionQuery        = `(?s)INSERT INTO sessions \(id, user_id, refresh_token, expires_at, ip_address, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?\)`
	findSessionForUpdateQuery = `SELECT id, user_id, refresh_token, expires_at, ip_address, created_at, updated_at FROM sessions WHERE refresh_token = \? FOR UPDATE`
	rotateSessionQuery        = `(?s)UPDATE sessions SET refresh_token = \?, expires_at = \?, updated_at = \?\s+WHERE id = \? AND refresh_token = \?`
	deleteSessionByTokenQuery = `DELETE FROM sessions WHERE refresh_token = \? AND user_id = \?`
	deleteExpiredQuery        = `DELETE FROM sessions WHERE expires_at <= \?`
)

var sessionColumns = []string{
	"id",
	"user_id",
	"refresh_token",
	"expires_at",
	"ip_address",
	"created_at",
	"updated_at",
}

func TestSessionRepository_Create(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewSessionRepository(db)
	now := time.Now().UTC()
	session := &entity.Session{
		ID:           "session-1",
		UserID:       "user-1",
		RefreshToken: "token-1",
		ExpiresAt:    now.Add(30 * 24 * time.Hour),
		IPAddress:    sql.NullString{String: "10.0.0.1", Valid: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec(insertSessionQuery).
		WithArgs(session.ID, session.UserID, session.RefreshToken, session.ExpiresAt, session.IPAddress, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_FindByRefreshTokenForUpdate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewSessionRepository(db)
	now := time.Now().UTC()
	expiresAt := now.Add(time.Hour)

	rows := sqlmock.NewRows(sessionColumns).
		AddRow("session-1", "user-1", "token-1", expiresAt, nil, now, now)

	mock.ExpectQuery(findSessionForUpdateQuery).
		WithArgs("token-1").
		WillReturnRows(rows)

	session, err := repo.FindByRefreshTokenForUpdate(context.Background(), "token-1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if session == nil {
		t.Fatal("expected session, got nil")
	}
	if session.UserID != "user-1" {
		t.Fatalf("unexpected user id: %s", session.UserID)
	}
}

func TestSessionRepository_Rotate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewSessionRepository(db)
	now := time.Now().UTC()
	expiresAt := now.Add(30 * 24 * time.Hour)

	mock.ExpectExec(rotateSessionQuery).
		WithArgs("token-new", expiresAt, now, "session-1", "token-old").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rotated, err := repo.Rotate(context.Background(), "session-1", "token-old", "token-new", expiresAt, now)
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if rotated != 1 {
		t.Fatalf("expected 1 row rotated, got %d", rotated)
	}
}

func TestSessionRepository_Rotate_StaleToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewSessionRepository(db)
	now := time.Now().UTC()
	expiresAt := now.Add(30 * 24 * time.Hour)

	mock.ExpectExec(rotateSessionQuery).
		WithArgs("token-new", expiresAt, now, "session-1", "token-spent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rotated, err := repo.Rotate(context.Background(), "session-1", "token-spent", "token-new", expiresAt, now)
	if err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if rotated != 0 {
		t.Fatalf("expected 0 rows for spent token, got %d", rotated)
	}
}

func TestSessionRepository_DeleteByRefreshToken(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewSessionRepository(db)

	mock.ExpectExec(deleteSessionByTokenQuery).
		WithArgs("token-1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteByRefreshToken(context.Background(), "token-1", "user-1")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 row deleted, got %d", deleted)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := repository.NewSessionRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(deleteExpiredQuery).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 rows deleted, got %d", deleted)
	}
}
