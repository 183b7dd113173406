package model

import "time"

// DateLayout is the layout of local calendar dates stored as text.
const DateLayout = "2006-01-02"

type JournalEntry struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	Mood      *int      `db:"mood" json:"mood"`
	EntryDate string    `db:"entry_date" json:"entry_date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	HTML string `db:"-" json:"html,omitempty"`
}
