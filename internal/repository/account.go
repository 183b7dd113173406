package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/db"
	"github.com/korusync/korusync/internal/model"
)

// accountDeletion lists every table holding user rows, children first.
// Each statement takes the user ID as $1.
var accountDeletion = []struct {
	Table string
	Query string
}{
	{"goal_entries", `DELETE FROM goal_entries WHERE goal_id IN (SELECT id FROM goals WHERE user_id = $1)`},
	{"goals", `DELETE FROM goals WHERE user_id = $1`},
	{"time_entries", `DELETE FROM time_entries WHERE user_id = $1`},
	{"tasks", `DELETE FROM tasks WHERE user_id = $1`},
	{"journal_entries", `DELETE FROM journal_entries WHERE user_id = $1`},
	{"pillars", `DELETE FROM pillars WHERE user_id = $1`},
	{"user_badges", `DELETE FROM user_badges WHERE user_id = $1`},
	{"friendships", `DELETE FROM friendships WHERE requester_id = $1 OR addressee_id = $1`},
	{"user_stats", `DELETE FROM user_stats WHERE user_id = $1`},
	{"preferences", `DELETE FROM preferences WHERE user_id = $1`},
	{"files", `DELETE FROM files WHERE user_id = $1`},
	{"tokens", `DELETE FROM tokens WHERE user_id = $1`},
	{"sessions", `DELETE FROM sessions WHERE user_id = $1`},
	{"profiles", `DELETE FROM profiles WHERE user_id = $1`},
	{"users", `DELETE FROM users WHERE id = $1`},
}

// AccountTables returns the deletion order.
func AccountTables() []string {
	tables := make([]string, len(accountDeletion))
	for i, step := range accountDeletion {
		tables[i] = step.Table
	}
	return tables
}

// AccountRepository creates and removes a user together with every row
// that hangs off it.
type AccountRepository interface {
	Create(user *model.User, profile *model.Profile, prefs *model.Preferences, stats *model.UserStats) error
	Delete(userID string) error
}

type accountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts the user with an empty profile, default preferences and
// zeroed stats. ErrDuplicateEmail is returned for a taken address.
func (r *accountRepository) Create(user *model.User, profile *model.Profile, prefs *model.Preferences, stats *model.UserStats) error {
	return db.WithTx(r.db, func(tx *sqlx.Tx) error {
		err := insertUser(tx, user)
		if err != nil {
			return err
		}
		err = insertProfile(tx, profile)
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		err = insertPreferences(tx, prefs)
		if err != nil {
			return fmt.Errorf("insert preferences: %w", err)
		}
		err = insertStats(tx, stats)
		if err != nil {
			return fmt.Errorf("insert stats: %w", err)
		}
		return nil
	})
}

// Delete removes all rows belonging to the user in a single transaction.
// ErrUserNotFound is returned when the final users delete matches nothing.
func (r *accountRepository) Delete(userID string) error {
	return db.WithTx(r.db, func(tx *sqlx.Tx) error {
		for i, step := range accountDeletion {
			result, err := tx.Exec(step.Query, userID)
			if err != nil {
				return fmt.Errorf("delete %s: %w", step.Table, err)
			}
			if i == len(accountDeletion)-1 {
				return requireAffected(result, ErrUserNotFound)
			}
		}
		return nil
	})
}
