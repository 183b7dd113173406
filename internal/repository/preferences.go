package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var ErrPreferencesNotFound = errors.New("preferences not found")

type PreferencesRepository interface {
	ByUserID(userID string) (*model.Preferences, error)
	Create(prefs *model.Preferences) error
	Update(prefs *model.Preferences) error
}

type preferencesRepository struct {
	db *sqlx.DB
}

func NewPreferencesRepository(db *sqlx.DB) PreferencesRepository {
	return &preferencesRepository{db: db}
}

func (r *preferencesRepository) ByUserID(userID string) (*model.Preferences, error) {
	var prefs model.Preferences
	err := r.db.Get(&prefs, `SELECT * FROM preferences WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return nil, ErrPreferencesNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (r *preferencesRepository) Create(prefs *model.Preferences) error {
	return insertPreferences(r.db, prefs)
}

func insertPreferences(ext sqlx.Execer, prefs *model.Preferences) error {
	if prefs.UpdatedAt.IsZero() {
		prefs.UpdatedAt = time.Now().UTC()
	}

	_, err := ext.Exec(`
		INSERT INTO preferences (user_id, onboarding_completed, theme, weekly_focus_goal_minutes, email_notifications, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, prefs.UserID, prefs.OnboardingCompleted, prefs.Theme, prefs.WeeklyFocusGoalMinutes, prefs.EmailNotifications, prefs.UpdatedAt)
	return err
}

func (r *preferencesRepository) Update(prefs *model.Preferences) error {
	return updatePreferences(r.db, prefs)
}

func updatePreferences(ext sqlx.Execer, prefs *model.Preferences) error {
	prefs.UpdatedAt = time.Now().UTC()

	result, err := ext.Exec(`
		UPDATE preferences
		SET onboarding_completed = $1, theme = $2, weekly_focus_goal_minutes = $3, email_notifications = $4, updated_at = $5
		WHERE user_id = $6
	`, prefs.OnboardingCompleted, prefs.Theme, prefs.WeeklyFocusGoalMinutes, prefs.EmailNotifications, prefs.UpdatedAt, prefs.UserID)
	if err != nil {
		return err
	}

	return requireAffected(result, ErrPreferencesNotFound)
}
