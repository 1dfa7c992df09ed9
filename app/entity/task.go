package entity

import (
	"database/sql"
	"time"
)

const (
	TaskStatusIncomplete = "incomplete"
	TaskStatusComplete   = "complete"
)

// Task rows belong to exactly one user; they are never shared.
// CompletedAt is set iff Status is "complete".
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      string
	CompletedAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
