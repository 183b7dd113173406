package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

type TokenRepository interface {
	Create(token *model.Token) error
	Active(userID, tokenType string) (*model.Token, error)
	RecordFailedAttempt(id string) (int, error)
	Consume(id string) (*model.Token, error)
	DeleteByUserAndType(userID, tokenType string) error
	CleanupExpired(olderThan time.Duration) (int64, error)
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tokens (id, user_id, type, code_hash, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query,
		token.ID,
		token.UserID,
		token.Type,
		token.CodeHash,
		token.Attempts,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

// Active returns the newest unused, unexpired code of the given type.
func (r *tokenRepository) Active(userID, tokenType string) (*model.Token, error) {
	var t model.Token
	query := `
		SELECT * FROM tokens
		WHERE user_id = $1 AND type = $2 AND used_at IS NULL AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.Get(&t, query, userID, tokenType, time.Now().UTC())
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RecordFailedAttempt increments the attempt counter and returns the new value.
func (r *tokenRepository) RecordFailedAttempt(id string) (int, error) {
	var attempts int
	err := r.db.Get(&attempts, `UPDATE tokens SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`, id)
	if err == sql.ErrNoRows {
		return 0, ErrTokenNotFound
	}
	return attempts, err
}

// Consume atomically marks the token as used and returns it.
// Only the first of two concurrent requests succeeds; the other gets ErrTokenNotFound.
func (r *tokenRepository) Consume(id string) (*model.Token, error) {
	var t model.Token
	now := time.Now().UTC()

	query := `
		UPDATE tokens
		SET used_at = $1
		WHERE id = $2
		AND used_at IS NULL
		AND expires_at > $3
		RETURNING *
	`

	err := r.db.Get(&t, query, now, id, now)
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *tokenRepository) DeleteByUserAndType(userID, tokenType string) error {
	query := `DELETE FROM tokens WHERE user_id = $1 AND type = $2 AND used_at IS NULL`
	_, err := r.db.Exec(query, userID, tokenType)
	return err
}

// CleanupExpired removes used and expired tokens older than the given duration.
// Run from korusyncctl; tokens are otherwise kept as an audit trail.
func (r *tokenRepository) CleanupExpired(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	query := `
		DELETE FROM tokens
		WHERE (used_at IS NOT NULL AND used_at < $1)
		   OR (expires_at < $2)
	`
	result, err := r.db.Exec(query, cutoff, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
