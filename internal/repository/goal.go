package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

const (
	GoalSortRecent   = "recent"
	GoalSortProgress = "progress"
	GoalSortTitle    = "title"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(goal *model.Goal) error
	ByID(userID, goalID string) (*model.Goal, error)
	Goals(userID, sortBy string) ([]*model.Goal, error)
	Active(userID string) ([]*model.Goal, error)
	CountActive(userID string) (int, error)
	Update(goal *model.Goal) error
	Delete(userID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, pillar_id, title, description, unit, target, progress, status, target_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(query,
		goal.ID,
		goal.UserID,
		goal.PillarID,
		goal.Title,
		goal.Description,
		goal.Unit,
		goal.Target,
		goal.Progress,
		goal.Status,
		goal.TargetDate,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := r.db.Get(goal, query, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(userID, sortBy string) ([]*model.Goal, error) {
	var goals []*model.Goal

	var orderBy string
	switch sortBy {
	case GoalSortProgress:
		orderBy = "ORDER BY (progress * 100 / target) DESC, updated_at DESC"
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(title) ASC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY updated_at DESC"
	}

	query := `SELECT * FROM goals WHERE user_id = $1 ` + orderBy

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Active(userID string) ([]*model.Goal, error) {
	var goals []*model.Goal
	query := `SELECT * FROM goals WHERE user_id = $1 AND status = $2 ORDER BY updated_at DESC`

	err := r.db.Select(&goals, query, userID, model.GoalStatusActive)
	if err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *goalRepository) CountActive(userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM goals WHERE user_id = $1 AND status = $2`
	err := r.db.QueryRow(query, userID, model.GoalStatusActive).Scan(&count)
	return count, err
}

func (r *goalRepository) Update(goal *model.Goal) error {
	goal.UpdatedAt = time.Now().UTC()

	// Progress only moves through check-ins.
	query := `UPDATE goals
	          SET pillar_id = $1, title = $2, description = $3, unit = $4, target = $5, status = $6, target_date = $7, updated_at = $8
	          WHERE id = $9 AND user_id = $10`

	result, err := r.db.Exec(query,
		goal.PillarID,
		goal.Title,
		goal.Description,
		goal.Unit,
		goal.Target,
		goal.Status,
		goal.TargetDate,
		goal.UpdatedAt,
		goal.ID,
		goal.UserID,
	)
	if err != nil {
		return err
	}

	return requireAffected(result, ErrGoalNotFound)
}

func (r *goalRepository) Delete(userID, goalID string) error {
	result, err := r.db.Exec(`DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		return err
	}

	return requireAffected(result, ErrGoalNotFound)
}
