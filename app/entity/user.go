package entity

import (
	"database/sql"
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DeletedAt    sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether the account has not been soft-deleted.
func (u *User) Active() bool {
	return !u.DeletedAt.Valid
}

type Session struct {
	ID           string
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	IPAddress    sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    sql.NullTime
	DeletedAt sql.NullTime
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the token can still complete a reset: never
// used, never revoked, and not yet expired (expires_at <= now counts
// as expired).
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return !t.UsedAt.Valid && !t.DeletedAt.Valid && t.ExpiresAt.After(now)
}

type AuditLog struct {
	ID         string
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}
