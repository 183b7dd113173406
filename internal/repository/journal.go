package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var (
	ErrJournalEntryNotFound = errors.New("journal entry not found")
)

type JournalRepository interface {
	Create(entry *model.JournalEntry) error
	ByID(userID, entryID string) (*model.JournalEntry, error)
	// Entries lists entries with from <= entry_date <= to. Empty bounds are open.
	Entries(userID, from, to string) ([]*model.JournalEntry, error)
	Dates(userID, from string) ([]string, error)
	Update(entry *model.JournalEntry) error
	Delete(userID, entryID string) error
}

type journalRepository struct {
	db *sqlx.DB
}

func NewJournalRepository(db *sqlx.DB) JournalRepository {
	return &journalRepository{db: db}
}

func (r *journalRepository) Create(entry *model.JournalEntry) error {
	query := `INSERT INTO journal_entries (id, user_id, title, content, mood, entry_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		entry.ID,
		entry.UserID,
		entry.Title,
		entry.Content,
		entry.Mood,
		entry.EntryDate,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	return err
}

func (r *journalRepository) ByID(userID, entryID string) (*model.JournalEntry, error) {
	entry := &model.JournalEntry{}
	err := r.db.Get(entry, `SELECT * FROM journal_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrJournalEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *journalRepository) Entries(userID, from, to string) ([]*model.JournalEntry, error) {
	if from == "" {
		from = "0000-00-00"
	}
	if to == "" {
		to = "9999-12-31"
	}

	var entries []*model.JournalEntry
	query := `SELECT * FROM journal_entries
	          WHERE user_id = $1 AND entry_date >= $2 AND entry_date <= $3
	          ORDER BY entry_date DESC, created_at DESC`

	err := r.db.Select(&entries, query, userID, from, to)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Dates returns the distinct entry dates on or after from.
func (r *journalRepository) Dates(userID, from string) ([]string, error) {
	var dates []string
	query := `SELECT DISTINCT entry_date FROM journal_entries WHERE user_id = $1 AND entry_date >= $2 ORDER BY entry_date`

	err := r.db.Select(&dates, query, userID, from)
	if err != nil {
		return nil, err
	}
	return dates, nil
}

func (r *journalRepository) Update(entry *model.JournalEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	query := `UPDATE journal_entries
	          SET title = $1, content = $2, mood = $3, entry_date = $4, updated_at = $5
	          WHERE id = $6 AND user_id = $7`

	result, err := r.db.Exec(query,
		entry.Title,
		entry.Content,
		entry.Mood,
		entry.EntryDate,
		entry.UpdatedAt,
		entry.ID,
		entry.UserID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrJournalEntryNotFound)
}

func (r *journalRepository) Delete(userID, entryID string) error {
	result, err := r.db.Exec(`DELETE FROM journal_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrJournalEntryNotFound)
}
