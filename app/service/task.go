package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vibast-solutions/ms-go-todo/app/dto"
	"github.com/vibast-solutions/ms-go-todo/app/entity"
	"github.com/vibast-solutions/ms-go-todo/app/repository"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500

	defaultPageLimit = 20
	maxPageLimit     = 100
)

var (
	// ErrTaskNotFound covers both a missing task and a task owned by a
	// different user; the two cases are never told apart.
	ErrTaskNotFound       = errors.New("task not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title exceeds maximum length")
	ErrDescriptionTooLong = errors.New("description exceeds maximum length")
	ErrInvalidStatus      = errors.New("invalid task status")
)

type TaskService struct {
	tasks *repository.TaskRepository
}

func NewTaskService(tasks *repository.TaskRepository) *TaskService {
	return &TaskService{tasks: tasks}
}

func (s *TaskService) Create(ctx context.Context, userID, title, description string) (*entity.Task, error) {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}

	now := time.Now().UTC()
	task := &entity.Task{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      entity.TaskStatusIncomplete,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*entity.Task, error) {
	task, err := s.tasks.FindByOwner(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Update applies a partial patch; nil fields keep their current value.
// A status transition to complete stamps completed_at, a transition
// back to incomplete clears it, and re-asserting the current status
// leaves it untouched.
func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch dto.TaskPatch) (*entity.Task, error) {
	task, err := s.tasks.FindByOwner(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if patch.Description != nil {
		if utf8.RuneCountInString(*patch.Description) > MaxDescriptionLength {
			return nil, ErrDescriptionTooLong
		}
		task.Description = *patch.Description
	}

	now := time.Now().UTC()
	if patch.Status != nil {
		switch *patch.Status {
		case task.Status:
			// no transition, completed_at stays as is
		case entity.TaskStatusComplete:
			task.Status = entity.TaskStatusComplete
			task.CompletedAt = sql.NullTime{Time: now, Valid: true}
		case entity.TaskStatusIncomplete:
			task.Status = entity.TaskStatusIncomplete
			task.CompletedAt = sql.NullTime{}
		default:
			return nil, ErrInvalidStatus
		}
	}

	task.UpdatedAt = now

	updated, err := s.tasks.Update(ctx, task)
	if err != nil {
		return nil, err
	}
	if updated == 0 {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	deleted, err := s.tasks.Delete(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *TaskService) Search(ctx context.Context, userID string, query dto.TaskQuery) (*dto.TaskPage, error) {
	if query.Status != "" && query.Status != entity.TaskStatusComplete && query.Status != entity.TaskStatusIncomplete {
		return nil, ErrInvalidStatus
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	filter := repository.TaskFilter{
		Search:        query.Search,
		Status:        query.Status,
		CreatedFrom:   query.CreatedFrom,
		CreatedTo:     query.CreatedTo,
		CompletedFrom: query.CompletedFrom,
		CompletedTo:   query.CompletedTo,
		Limit:         limit,
		Offset:        (page - 1) * limit,
	}

	records, err := s.tasks.CountByFilter(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.Search(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	pages := (records + int64(limit) - 1) / int64(limit)

	return &dto.TaskPage{
		Tasks: tasks,
		Pagination: dto.Pagination{
			Current: page,
			Limit:   limit,
			Records: records,
			Pages:   pages,
		},
	}, nil
}

func validateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}
