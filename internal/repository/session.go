package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(session *model.Session) error
	ByTokenHash(hash string) (*model.Session, error)
	Revoke(id string) error
	RevokeAllForUser(userID string) error
	CleanupExpired(olderThan time.Duration) (int64, error)
}

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO sessions (id, user_id, token_hash, user_agent, ip, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, session.ID, session.UserID, session.TokenHash, session.UserAgent, session.IP, session.ExpiresAt, session.CreatedAt)
	return err
}

func (r *sessionRepository) ByTokenHash(hash string) (*model.Session, error) {
	var s model.Session
	err := r.db.Get(&s, `SELECT * FROM sessions WHERE token_hash = $1`, hash)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Revoke marks a session revoked. Revoking an already revoked session returns
// ErrSessionNotFound so refresh-token reuse can be detected by the caller.
func (r *sessionRepository) Revoke(id string) error {
	result, err := r.db.Exec(`UPDATE sessions SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrSessionNotFound)
}

func (r *sessionRepository) RevokeAllForUser(userID string) error {
	_, err := r.db.Exec(`UPDATE sessions SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`, time.Now().UTC(), userID)
	return err
}

func (r *sessionRepository) CleanupExpired(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := r.db.Exec(`
		DELETE FROM sessions
		WHERE expires_at < $1
		   OR (revoked_at IS NOT NULL AND revoked_at < $2)
	`, cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
