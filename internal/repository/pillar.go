package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var (
	ErrPillarNotFound  = errors.New("pillar not found")
	ErrDuplicatePillar = errors.New("pillar already exists")
)

type PillarRepository interface {
	Pillars(userID string) ([]*model.Pillar, error)
	ByID(userID, pillarID string) (*model.Pillar, error)
	Create(pillar *model.Pillar) error
	Update(pillar *model.Pillar) error
	Delete(userID, pillarID string) error
	Count(userID string) (int, error)
}

type pillarRepository struct {
	db *sqlx.DB
}

func NewPillarRepository(db *sqlx.DB) PillarRepository {
	return &pillarRepository{db: db}
}

func (r *pillarRepository) Pillars(userID string) ([]*model.Pillar, error) {
	var pillars []*model.Pillar
	err := r.db.Select(&pillars, `SELECT * FROM pillars WHERE user_id = $1 ORDER BY sort_order ASC, created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	return pillars, nil
}

func (r *pillarRepository) ByID(userID, pillarID string) (*model.Pillar, error) {
	pillar := &model.Pillar{}
	err := r.db.Get(pillar, `SELECT * FROM pillars WHERE id = $1 AND user_id = $2`, pillarID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrPillarNotFound
	}
	if err != nil {
		return nil, err
	}
	return pillar, nil
}

func (r *pillarRepository) Create(pillar *model.Pillar) error {
	_, err := r.db.Exec(`
		INSERT INTO pillars (id, user_id, name, slug, color, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, pillar.ID, pillar.UserID, pillar.Name, pillar.Slug, pillar.Color, pillar.SortOrder, pillar.CreatedAt, pillar.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicatePillar
	}
	return err
}

func (r *pillarRepository) Update(pillar *model.Pillar) error {
	pillar.UpdatedAt = time.Now().UTC()

	result, err := r.db.Exec(`
		UPDATE pillars
		SET name = $1, slug = $2, color = $3, sort_order = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
	`, pillar.Name, pillar.Slug, pillar.Color, pillar.SortOrder, pillar.UpdatedAt, pillar.ID, pillar.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicatePillar
		}
		return err
	}
	return requireAffected(result, ErrPillarNotFound)
}

// Delete removes the pillar and unlinks tasks, time entries and goals that referenced it.
func (r *pillarRepository) Delete(userID, pillarID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"tasks", "time_entries", "goals"} {
		_, err = tx.Exec(`UPDATE `+table+` SET pillar_id = NULL WHERE pillar_id = $1 AND user_id = $2`, pillarID, userID)
		if err != nil {
			return err
		}
	}

	result, err := tx.Exec(`DELETE FROM pillars WHERE id = $1 AND user_id = $2`, pillarID, userID)
	if err != nil {
		return err
	}
	err = requireAffected(result, ErrPillarNotFound)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *pillarRepository) Count(userID string) (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM pillars WHERE user_id = $1`, userID)
	return count, err
}

// upsertPillar inserts the pillar or, when the slug already exists for the
// user, updates its name, colour and order in place.
func upsertPillar(ext sqlx.Execer, pillar *model.Pillar) error {
	_, err := ext.Exec(`
		INSERT INTO pillars (id, user_id, name, slug, color, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, slug) DO UPDATE
		SET name = excluded.name, color = excluded.color, sort_order = excluded.sort_order, updated_at = excluded.updated_at
	`, pillar.ID, pillar.UserID, pillar.Name, pillar.Slug, pillar.Color, pillar.SortOrder, pillar.CreatedAt, pillar.UpdatedAt)
	return err
}
