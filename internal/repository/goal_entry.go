package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var (
	ErrGoalEntryNotFound = errors.New("goal entry not found")
	ErrGoalNotActive     = errors.New("goal is not active")
)

// GoalEntryRepository stores check-ins. Adding or removing a check-in moves
// the goal's progress in the same transaction.
type GoalEntryRepository interface {
	Entries(goalID string) ([]*model.GoalEntry, error)
	Last(goalID string) (*model.GoalEntry, error)
	CheckIn(userID string, entry *model.GoalEntry) (*model.Goal, bool, error)
	Undo(userID, goalID string) (*model.GoalEntry, *model.Goal, error)
}

type goalEntryRepository struct {
	db *sqlx.DB
}

func NewGoalEntryRepository(db *sqlx.DB) GoalEntryRepository {
	return &goalEntryRepository{db: db}
}

func (r *goalEntryRepository) Entries(goalID string) ([]*model.GoalEntry, error) {
	var entries []*model.GoalEntry
	query := `SELECT * FROM goal_entries WHERE goal_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&entries, query, goalID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *goalEntryRepository) Last(goalID string) (*model.GoalEntry, error) {
	entry := &model.GoalEntry{}
	query := `SELECT * FROM goal_entries WHERE goal_id = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.db.Get(entry, query, goalID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// CheckIn inserts the entry and adds its amount to an active goal in one
// transaction. completed reports whether this check-in reached the target.
func (r *goalEntryRepository) CheckIn(userID string, entry *model.GoalEntry) (goal *model.Goal, completed bool, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	goal = &model.Goal{}
	err = tx.Get(goal, `UPDATE goals SET progress = progress + $1, updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = $5
		RETURNING *`,
		entry.Amount, now, entry.GoalID, userID, model.GoalStatusActive)
	if err == sql.ErrNoRows {
		return nil, false, ErrGoalNotActive
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to add progress: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO goal_entries (id, goal_id, amount, note, created_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.GoalID, entry.Amount, entry.Note, entry.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert check-in: %w", err)
	}

	if goal.Progress >= goal.Target {
		_, err = tx.Exec(`UPDATE goals SET status = $1 WHERE id = $2`, model.GoalStatusCompleted, goal.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to complete goal: %w", err)
		}
		goal.Status = model.GoalStatusCompleted
		completed = true
	}

	return goal, completed, tx.Commit()
}

// Undo removes the newest check-in and subtracts it from the goal, never
// below zero. A completed goal falls back to active when progress drops
// below target.
func (r *goalEntryRepository) Undo(userID, goalID string) (*model.GoalEntry, *model.Goal, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	entry := &model.GoalEntry{}
	err = tx.Get(entry, `SELECT e.* FROM goal_entries e JOIN goals g ON g.id = e.goal_id
		WHERE e.goal_id = $1 AND g.user_id = $2
		ORDER BY e.created_at DESC LIMIT 1`, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, nil, ErrGoalEntryNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	result, err := tx.Exec(`DELETE FROM goal_entries WHERE id = $1`, entry.ID)
	if err != nil {
		return nil, nil, err
	}
	err = requireAffected(result, ErrGoalEntryNotFound)
	if err != nil {
		return nil, nil, err
	}

	// SET expressions read the row's values from before the update.
	goal := &model.Goal{}
	err = tx.Get(goal, `UPDATE goals SET
			progress = CASE WHEN progress > $1 THEN progress - $2 ELSE 0 END,
			status = CASE WHEN status = $3 AND progress - $4 < target THEN $5 ELSE status END,
			updated_at = $6
		WHERE id = $7 AND user_id = $8
		RETURNING *`,
		entry.Amount, entry.Amount, model.GoalStatusCompleted, entry.Amount, model.GoalStatusActive,
		time.Now().UTC(), goalID, userID)
	if err == sql.ErrNoRows {
		return nil, nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	return entry, goal, tx.Commit()
}
