package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/model"
)

var (
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrFriendshipExists   = errors.New("friendship already exists")
)

type FriendshipRepository interface {
	Create(f *model.Friendship) error
	ByID(id string) (*model.Friendship, error)
	// Between finds a friendship in either direction.
	Between(userA, userB string) (*model.Friendship, error)
	Friends(userID, status string) ([]*model.Friend, error)
	Accept(id string) error
	Delete(id string) error
}

type friendshipRepository struct {
	db *sqlx.DB
}

func NewFriendshipRepository(db *sqlx.DB) FriendshipRepository {
	return &friendshipRepository{db: db}
}

func (r *friendshipRepository) Create(f *model.Friendship) error {
	_, err := r.db.Exec(`INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, updated_at)
	                     VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.RequesterID, f.AddresseeID, f.Status, f.CreatedAt, f.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrFriendshipExists
	}
	return err
}

func (r *friendshipRepository) ByID(id string) (*model.Friendship, error) {
	f := &model.Friendship{}
	err := r.db.Get(f, `SELECT * FROM friendships WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *friendshipRepository) Between(userA, userB string) (*model.Friendship, error) {
	f := &model.Friendship{}
	query := `SELECT * FROM friendships
	          WHERE (requester_id = $1 AND addressee_id = $2) OR (requester_id = $2 AND addressee_id = $1)
	          LIMIT 1`

	err := r.db.Get(f, query, userA, userB)
	if err == sql.ErrNoRows {
		return nil, ErrFriendshipNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Friends joins each friendship of the given status with the other side's profile.
func (r *friendshipRepository) Friends(userID, status string) ([]*model.Friend, error) {
	var friends []*model.Friend
	query := `
		SELECT f.id AS friendship_id,
		       p.user_id AS user_id,
		       COALESCE(p.username, '') AS username,
		       p.full_name AS full_name,
		       f.status AS status,
		       CASE WHEN f.addressee_id = $1 THEN TRUE ELSE FALSE END AS incoming
		FROM friendships f
		JOIN profiles p ON p.user_id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = $2
		ORDER BY f.updated_at DESC
	`
	err := r.db.Select(&friends, query, userID, status)
	if err != nil {
		return nil, err
	}
	return friends, nil
}

func (r *friendshipRepository) Accept(id string) error {
	result, err := r.db.Exec(`UPDATE friendships SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		model.FriendshipAccepted, time.Now().UTC(), id, model.FriendshipPending)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrFriendshipNotFound)
}

func (r *friendshipRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrFriendshipNotFound)
}
