package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var (
	ErrTimeEntryNotFound = errors.New("time entry not found")
	ErrTimerRunning      = errors.New("a timer is already running")
)

type TimeEntryRepository interface {
	Create(entry *model.TimeEntry) error
	ByID(userID, entryID string) (*model.TimeEntry, error)
	Running(userID string) (*model.TimeEntry, error)
	Between(userID string, from, to time.Time) ([]*model.TimeEntry, error)
	Stop(entry *model.TimeEntry) error
	Delete(userID, entryID string) error
}

type timeEntryRepository struct {
	db *sqlx.DB
}

func NewTimeEntryRepository(db *sqlx.DB) TimeEntryRepository {
	return &timeEntryRepository{db: db}
}

// Create inserts a running or finished entry. A second running entry for
// the same user violates idx_time_entries_running and maps to ErrTimerRunning.
func (r *timeEntryRepository) Create(entry *model.TimeEntry) error {
	query := `INSERT INTO time_entries (id, user_id, pillar_id, task_id, description, started_at, ended_at, duration_seconds, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		entry.ID,
		entry.UserID,
		entry.PillarID,
		entry.TaskID,
		entry.Description,
		entry.StartedAt,
		entry.EndedAt,
		entry.DurationSeconds,
		entry.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrTimerRunning
	}
	return err
}

func (r *timeEntryRepository) ByID(userID, entryID string) (*model.TimeEntry, error) {
	entry := &model.TimeEntry{}
	err := r.db.Get(entry, `SELECT * FROM time_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrTimeEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *timeEntryRepository) Running(userID string) (*model.TimeEntry, error) {
	entry := &model.TimeEntry{}
	err := r.db.Get(entry, `SELECT * FROM time_entries WHERE user_id = $1 AND ended_at IS NULL LIMIT 1`, userID)
	if err == sql.ErrNoRows {
		return nil, ErrTimeEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Between returns entries overlapping [from, to), including a running one.
func (r *timeEntryRepository) Between(userID string, from, to time.Time) ([]*model.TimeEntry, error) {
	var entries []*model.TimeEntry
	query := `SELECT * FROM time_entries
	          WHERE user_id = $1 AND started_at < $2 AND (ended_at IS NULL OR ended_at > $3)
	          ORDER BY started_at DESC`

	err := r.db.Select(&entries, query, userID, to.UTC(), from.UTC())
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Stop closes a running entry. Entries that were already stopped are not found.
func (r *timeEntryRepository) Stop(entry *model.TimeEntry) error {
	query := `UPDATE time_entries SET ended_at = $1, duration_seconds = $2
	          WHERE id = $3 AND user_id = $4 AND ended_at IS NULL`

	result, err := r.db.Exec(query, entry.EndedAt, entry.DurationSeconds, entry.ID, entry.UserID)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrTimeEntryNotFound)
}

func (r *timeEntryRepository) Delete(userID, entryID string) error {
	result, err := r.db.Exec(`DELETE FROM time_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrTimeEntryNotFound)
}
