package model

import (
	"time"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
	GoalStatusArchived  = "archived"
)

type Goal struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"-"`
	PillarID    *string    `db:"pillar_id" json:"pillar_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Unit        string     `db:"unit" json:"unit"`
	Target      int        `db:"target" json:"target"`
	Progress    int        `db:"progress" json:"progress"`
	Status      string     `db:"status" json:"status"`
	TargetDate  *time.Time `db:"target_date" json:"target_date"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Percent returns progress toward the target, capped at 100.
func (g *Goal) Percent() int {
	if g.Target <= 0 {
		return 0
	}
	p := g.Progress * 100 / g.Target
	if p > 100 {
		return 100
	}
	return p
}

func ValidGoalStatus(s string) bool {
	switch s {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusArchived:
		return true
	}
	return false
}
