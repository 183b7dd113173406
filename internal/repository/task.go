package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var (
	ErrTaskNotFound = errors.New("task not found")
)

type TaskRepository interface {
	Create(task *model.Task) error
	ByID(userID, taskID string) (*model.Task, error)
	Tasks(userID string, filter model.TaskFilter) ([]*model.Task, error)
	Open(userID string, dueBefore time.Time) ([]*model.Task, error)
	CompletedBetween(userID string, from, to time.Time) ([]*model.Task, error)
	Update(task *model.Task) error
	Delete(userID, taskID string) error
}

type taskRepository struct {
	db *sqlx.DB
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(task *model.Task) error {
	query := `INSERT INTO tasks (id, user_id, pillar_id, title, description, priority, status, due_date, completed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		task.ID,
		task.UserID,
		task.PillarID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.DueDate,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

func (r *taskRepository) ByID(userID, taskID string) (*model.Task, error) {
	task := &model.Task{}
	err := r.db.Get(task, `SELECT * FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Tasks(userID string, filter model.TaskFilter) ([]*model.Task, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PillarID != "" {
		args = append(args, filter.PillarID)
		where = append(where, fmt.Sprintf("pillar_id = $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, filter.DueBefore.UTC())
		where = append(where, fmt.Sprintf("due_date IS NOT NULL AND due_date < $%d", len(args)))
	}

	query := `SELECT * FROM tasks WHERE ` + strings.Join(where, " AND ") + `
	          ORDER BY CASE status WHEN 'done' THEN 1 ELSE 0 END, due_date IS NULL, due_date ASC, created_at DESC`

	var tasks []*model.Task
	err := r.db.Select(&tasks, query, args...)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Open returns unfinished tasks that are undated or due before the cutoff.
func (r *taskRepository) Open(userID string, dueBefore time.Time) ([]*model.Task, error) {
	var tasks []*model.Task
	query := `SELECT * FROM tasks
	          WHERE user_id = $1 AND status != $2 AND (due_date IS NULL OR due_date < $3)
	          ORDER BY due_date IS NULL, due_date ASC, created_at ASC`

	err := r.db.Select(&tasks, query, userID, model.TaskStatusDone, dueBefore.UTC())
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) CompletedBetween(userID string, from, to time.Time) ([]*model.Task, error) {
	var tasks []*model.Task
	query := `SELECT * FROM tasks
	          WHERE user_id = $1 AND completed_at IS NOT NULL AND completed_at >= $2 AND completed_at < $3
	          ORDER BY completed_at ASC`

	err := r.db.Select(&tasks, query, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()

	query := `UPDATE tasks
	          SET pillar_id = $1, title = $2, description = $3, priority = $4, status = $5, due_date = $6, completed_at = $7, updated_at = $8
	          WHERE id = $9 AND user_id = $10`

	result, err := r.db.Exec(query,
		task.PillarID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.DueDate,
		task.CompletedAt,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrTaskNotFound)
}

func (r *taskRepository) Delete(userID, taskID string) error {
	result, err := r.db.Exec(`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrTaskNotFound)
}
