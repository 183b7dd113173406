package model

import "time"

// TimeEntry is a focus session. EndedAt is nil while the stopwatch runs.
type TimeEntry struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"-"`
	PillarID        *string    `db:"pillar_id" json:"pillar_id"`
	TaskID          *string    `db:"task_id" json:"task_id"`
	Description     string     `db:"description" json:"description"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	EndedAt         *time.Time `db:"ended_at" json:"ended_at"`
	DurationSeconds int        `db:"duration_seconds" json:"duration_seconds"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

func (e *TimeEntry) IsRunning() bool {
	return e.EndedAt == nil
}

// Duration returns the elapsed time, measuring a running entry up to now.
func (e *TimeEntry) Duration(now time.Time) time.Duration {
	if e.EndedAt != nil {
		return e.EndedAt.Sub(e.StartedAt)
	}
	if now.Before(e.StartedAt) {
		return 0
	}
	return now.Sub(e.StartedAt)
}
