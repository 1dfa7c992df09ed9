package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-todo/app/entity"
)

const taskColumns = `id, user_id, title, description, status, completed_at, created_at, updated_at`

// TaskFilter narrows a search. Zero values mean "no constraint".
type TaskFilter struct {
	Search        string
	Status        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CompletedFrom *time.Time
	CompletedTo   *time.Time
	Limit         int
	Offset        int
}

type TaskRepository struct {
	db Querier
}

func NewTaskRepository(db Querier) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, status, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

// FindByOwner scopes the lookup by owner as well as id, so a task
// belonging to someone else is indistinguishable from a missing one.
func (r *TaskRepository) FindByOwner(ctx context.Context, userID, taskID string) (*entity.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`
	task := &entity.Task{}
	err := r.db.QueryRowContext(ctx, query, taskID, userID).Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *entity.Task) (int64, error) {
	query := `
		UPDATE tasks SET title = ?, description = ?, status = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.CompletedAt,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) (int64, error) {
	query := `DELETE FROM tasks WHERE id = ? AND user_id = ?`
	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *TaskRepository) CountByFilter(ctx context.Context, userID string, filter TaskFilter) (int64, error) {
	where, args := buildTaskWhere(userID, filter)
	query := `SELECT COUNT(*) FROM tasks WHERE ` + where

	var total int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Search orders by creation time descending with the id as a tiebreak
// so repeated calls over an unchanged data set page identically.
func (r *TaskRepository) Search(ctx context.Context, userID string, filter TaskFilter) ([]*entity.Task, error) {
	where, args := buildTaskWhere(userID, filter)
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where +
		` ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*entity.Task
	for rows.Next() {
		task := &entity.Task{}
		if err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.CompletedAt,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func buildTaskWhere(userID string, filter TaskFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		clauses = append(clauses, "(title LIKE ? OR description LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.CreatedFrom != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, *filter.CreatedTo)
	}
	if filter.CompletedFrom != nil {
		clauses = append(clauses, "completed_at >= ?")
		args = append(args, *filter.CompletedFrom)
	}
	if filter.CompletedTo != nil {
		clauses = append(clauses, "completed_at <= ?")
		args = append(args, *filter.CompletedTo)
	}

	return strings.Join(clauses, " AND "), args
}
