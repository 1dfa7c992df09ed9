package http

import (
	"time"

	"github.com/vibast-solutions/ms-go-todo/app/dto"
	"github.com/vibast-solutions/ms-go-todo/app/entity"
)

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TokenResponse struct {
	Access           string    `json:"access"`
	Refresh          string    `json:"refresh"`
	ExpiredAt        time.Time `json:"expired_at"`
	RefreshableUntil time.Time `json:"refreshable_until"`
}

type AuthResponse struct {
	User  UserResponse  `json:"user"`
	Token TokenResponse `json:"token"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type ValidateTokenResponse struct {
	Valid bool `json:"valid"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type PaginationResponse struct {
	Current int   `json:"current"`
	Limit   int   `json:"limit"`
	Records int64 `json:"records"`
	Pages   int64 `json:"pages"`
}

type TaskPageResponse struct {
	Pagination PaginationResponse `json:"pagination"`
	Data       []TaskResponse     `json:"data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewAuthResponse(result *dto.AuthResult) AuthResponse {
	return AuthResponse{
		User: UserResponse{
			ID:        result.User.ID,
			Email:     result.User.Email,
			CreatedAt: result.User.CreatedAt,
			UpdatedAt: result.User.UpdatedAt,
		},
		Token: TokenResponse{
			Access:           result.Token.Access,
			Refresh:          result.Token.Refresh,
			ExpiredAt:        result.Token.ExpiredAt,
			RefreshableUntil: result.Token.RefreshableUntil,
		},
	}
}

func NewTaskResponse(task *entity.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.CompletedAt.Valid {
		completedAt := task.CompletedAt.Time
		resp.CompletedAt = &completedAt
	}
	return resp
}

func NewTaskPageResponse(page *dto.TaskPage) TaskPageResponse {
	data := make([]TaskResponse, 0, len(page.Tasks))
	for _, task := range page.Tasks {
		data = append(data, NewTaskResponse(task))
	}
	return TaskPageResponse{
		Pagination: PaginationResponse{
			Current: page.Pagination.Current,
			Limit:   page.Pagination.Limit,
			Records: page.Pagination.Records,
			Pages:   page.Pagination.Pages,
		},
		Data: data,
	}
}
