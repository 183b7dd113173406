package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var ErrUsernameTaken = errors.New("username already taken")

type ProfileRepository interface {
	ByUserID(userID string) (*model.Profile, error)
	ByUsername(username string) (*model.Profile, error)
	Create(profile *model.Profile) error
	Update(profile *model.Profile) error
	UsernameExists(username string) (bool, error)
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByUserID(userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Get(&profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) ByUsername(username string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.Get(&profile, `SELECT * FROM profiles WHERE username = $1`, username)

	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(profile *model.Profile) error {
	return insertProfile(r.db, profile)
}

func insertProfile(ext sqlx.Execer, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}
	if profile.Timezone == "" {
		profile.Timezone = "UTC"
	}

	_, err := ext.Exec(`
		INSERT INTO profiles (id, user_id, username, full_name, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, profile.ID, profile.UserID, profile.Username, profile.FullName, profile.Timezone, profile.CreatedAt, profile.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}

	return err
}

func (r *profileRepository) Update(profile *model.Profile) error {
	return updateProfile(r.db, profile)
}

func (r *profileRepository) UsernameExists(username string) (bool, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM profiles WHERE username = $1`, username)
	return count > 0, err
}

func updateProfile(ext sqlx.Execer, profile *model.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	result, err := ext.Exec(`
		UPDATE profiles
		SET username = $1, full_name = $2, timezone = $3, updated_at = $4
		WHERE user_id = $5
	`, profile.Username, profile.FullName, profile.Timezone, profile.UpdatedAt, profile.UserID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return err
	}

	return requireAffected(result, ErrProfileNotFound)
}
