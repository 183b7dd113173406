package model

import "time"

const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

type Preferences struct {
	UserID                 string    `db:"user_id" json:"-"`
	OnboardingCompleted    bool      `db:"onboarding_completed" json:"onboarding_completed"`
	Theme                  string    `db:"theme" json:"theme"`
	WeeklyFocusGoalMinutes int       `db:"weekly_focus_goal_minutes" json:"weekly_focus_goal_minutes"`
	EmailNotifications     bool      `db:"email_notifications" json:"email_notifications"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

func DefaultPreferences(userID string, now time.Time) *Preferences {
	return &Preferences{
		UserID:                 userID,
		Theme:                  ThemeSystem,
		WeeklyFocusGoalMinutes: 600,
		EmailNotifications:     true,
		UpdatedAt:              now,
	}
}
