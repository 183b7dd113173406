package model

import (
	"math"
	"time"
)

type UserStats struct {
	UserID         string    `db:"user_id" json:"-"`
	XP             int       `db:"xp" json:"xp"`
	Level          int       `db:"level" json:"level"`
	CurrentStreak  int       `db:"current_streak" json:"current_streak"`
	LongestStreak  int       `db:"longest_streak" json:"longest_streak"`
	LastActiveDate string    `db:"last_active_date" json:"last_active_date"`
	TasksCompleted int       `db:"tasks_completed" json:"tasks_completed"`
	FocusSeconds   int       `db:"focus_seconds" json:"focus_seconds"`
	JournalCount   int       `db:"journal_count" json:"journal_count"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// LevelForXP maps experience points to a level: 1 + floor(sqrt(xp/100)).
func LevelForXP(xp int) int {
	if xp <= 0 {
		return 1
	}
	return 1 + int(math.Sqrt(float64(xp)/100))
}

const (
	BadgeFirstTask  = "first_task"
	BadgeFirstFocus = "first_focus"
	BadgeStreak7    = "streak_7"
	BadgeStreak30   = "streak_30"
	BadgeFocus10h   = "focus_10h"
	BadgeJournal10  = "journal_10"
	BadgeLevel5     = "level_5"
)

type UserBadge struct {
	UserID    string    `db:"user_id" json:"-"`
	Badge     string    `db:"badge" json:"badge"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}

const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

type Friendship struct {
	ID          string    `db:"id" json:"id"`
	RequesterID string    `db:"requester_id" json:"requester_id"`
	AddresseeID string    `db:"addressee_id" json:"addressee_id"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Friend is a friendship joined with the other user's public profile.
type Friend struct {
	FriendshipID string `db:"friendship_id" json:"friendship_id"`
	UserID       string `db:"user_id" json:"user_id"`
	Username     string `db:"username" json:"username"`
	FullName     string `db:"full_name" json:"full_name"`
	Status       string `db:"status" json:"status"`
	Incoming     bool   `db:"incoming" json:"incoming"`
}
