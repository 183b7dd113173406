package model

import (
	"time"
)

// GoalEntry is a single check-in toward a goal.
type GoalEntry struct {
	ID        string    `db:"id" json:"id"`
	GoalID    string    `db:"goal_id" json:"goal_id"`
	Amount    int       `db:"amount" json:"amount"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
