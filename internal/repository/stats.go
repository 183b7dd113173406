package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var (
	ErrStatsNotFound = errors.New("user stats not found")
)

// StatsRepository persists gamification counters and awarded badges.
type StatsRepository interface {
	ByUserID(userID string) (*model.UserStats, error)
	Create(stats *model.UserStats) error
	Update(stats *model.UserStats) error
	Badges(userID string) ([]*model.UserBadge, error)
	// AwardBadge returns false when the user already holds the badge.
	AwardBadge(userID, badge string) (bool, error)
}

type statsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) ByUserID(userID string) (*model.UserStats, error) {
	stats := &model.UserStats{}
	err := r.db.Get(stats, `SELECT * FROM user_stats WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return nil, ErrStatsNotFound
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *statsRepository) Create(stats *model.UserStats) error {
	return insertStats(r.db, stats)
}

func insertStats(ext sqlx.Execer, stats *model.UserStats) error {
	if stats.Level == 0 {
		stats.Level = model.LevelForXP(stats.XP)
	}
	if stats.UpdatedAt.IsZero() {
		stats.UpdatedAt = time.Now().UTC()
	}

	query := `INSERT INTO user_stats (user_id, xp, level, current_streak, longest_streak, last_active_date, tasks_completed, focus_seconds, journal_count, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := ext.Exec(query,
		stats.UserID,
		stats.XP,
		stats.Level,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.LastActiveDate,
		stats.TasksCompleted,
		stats.FocusSeconds,
		stats.JournalCount,
		stats.UpdatedAt,
	)
	return err
}

func (r *statsRepository) Update(stats *model.UserStats) error {
	stats.UpdatedAt = time.Now().UTC()

	query := `UPDATE user_stats
	          SET xp = $1, level = $2, current_streak = $3, longest_streak = $4, last_active_date = $5,
	              tasks_completed = $6, focus_seconds = $7, journal_count = $8, updated_at = $9
	          WHERE user_id = $10`

	result, err := r.db.Exec(query,
		stats.XP,
		stats.Level,
		stats.CurrentStreak,
		stats.LongestStreak,
		stats.LastActiveDate,
		stats.TasksCompleted,
		stats.FocusSeconds,
		stats.JournalCount,
		stats.UpdatedAt,
		stats.UserID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrStatsNotFound)
}

func (r *statsRepository) Badges(userID string) ([]*model.UserBadge, error) {
	var badges []*model.UserBadge
	err := r.db.Select(&badges, `SELECT * FROM user_badges WHERE user_id = $1 ORDER BY awarded_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *statsRepository) AwardBadge(userID, badge string) (bool, error) {
	result, err := r.db.Exec(`INSERT INTO user_badges (user_id, badge, awarded_at) VALUES ($1, $2, $3)
	                          ON CONFLICT (user_id, badge) DO NOTHING`, userID, badge, time.Now().UTC())
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
