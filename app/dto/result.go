package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-todo/app/entity"
)

type TokenPair struct {
	Access           string
	Refresh          string
	ExpiredAt        time.Time
	RefreshableUntil time.Time
}

type AuthResult struct {
	User  *entity.User
	Token TokenPair
}

// TaskPatch is a partial update: nil fields are left unchanged, which
// keeps "absent" distinguishable from an explicit empty value.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
}

type TaskQuery struct {
	Search        string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CompletedFrom *time.Time
	CompletedTo   *time.Time
	Page          int
	Limit         int
}

type Pagination struct {
	Current int
	Limit   int
	Records int64
	Pages   int64
}

type TaskPage struct {
	Tasks      []*entity.Task
	Pagination Pagination
}
