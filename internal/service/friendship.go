package service

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/validation"
)

var (
	ErrSelfFriendship   = errors.New("you cannot add yourself as a friend")
	ErrFriendshipExists = errors.New("a friendship or request already exists")
	ErrNoUsername       = errors.New("finish onboarding to add friends")
)

type FriendshipService struct {
	repo         repository.FriendshipRepository
	profiles     repository.ProfileRepository
	preferences  repository.PreferencesRepository
	users        repository.UserRepository
	emailService *EmailService
}

func NewFriendshipService(
	repo repository.FriendshipRepository,
	profiles repository.ProfileRepository,
	preferences repository.PreferencesRepository,
	users repository.UserRepository,
	emailService *EmailService,
) *FriendshipService {
	return &FriendshipService{
		repo:         repo,
		profiles:     profiles,
		preferences:  preferences,
		users:        users,
		emailService: emailService,
	}
}

func (s *FriendshipService) Friends(userID string) ([]*model.Friend, error) {
	return s.repo.Friends(userID, model.FriendshipAccepted)
}

// Pending lists requests in both directions; Incoming marks the ones the
// user can accept.
func (s *FriendshipService) Pending(userID string) ([]*model.Friend, error) {
	return s.repo.Friends(userID, model.FriendshipPending)
}

// Request sends a friend request by username. When the other user already
// asked, the existing request is accepted instead.
func (s *FriendshipService) Request(userID, username string) (*model.Friendship, error) {
	requester, err := s.profiles.ByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if requester.UsernameOrEmpty() == "" {
		return nil, ErrNoUsername
	}

	target, err := s.profiles.ByUsername(validation.NormalizeUsername(username))
	if err != nil {
		return nil, err
	}
	if target.UserID == userID {
		return nil, ErrSelfFriendship
	}

	existing, err := s.repo.Between(userID, target.UserID)
	switch {
	case err == nil:
		if existing.Status == model.FriendshipPending && existing.AddresseeID == userID {
			err = s.repo.Accept(existing.ID)
			if err != nil {
				return nil, err
			}
			existing.Status = model.FriendshipAccepted
			return existing, nil
		}
		return nil, ErrFriendshipExists
	case !errors.Is(err, repository.ErrFriendshipNotFound):
		return nil, err
	}

	now := time.Now().UTC()
	friendship := &model.Friendship{
		ID:          uuid.New().String(),
		RequesterID: userID,
		AddresseeID: target.UserID,
		Status:      model.FriendshipPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.repo.Create(friendship)
	if err != nil {
		if errors.Is(err, repository.ErrFriendshipExists) {
			return nil, ErrFriendshipExists
		}
		return nil, err
	}

	s.notify(target.UserID, requester.UsernameOrEmpty())
	return friendship, nil
}

// Accept is allowed for the addressee of a pending request only.
func (s *FriendshipService) Accept(userID, friendshipID string) error {
	f, err := s.repo.ByID(friendshipID)
	if err != nil {
		return err
	}
	if f.AddresseeID != userID || f.Status != model.FriendshipPending {
		return repository.ErrFriendshipNotFound
	}
	return s.repo.Accept(friendshipID)
}

// Decline drops a pending request addressed to the user.
func (s *FriendshipService) Decline(userID, friendshipID string) error {
	f, err := s.repo.ByID(friendshipID)
	if err != nil {
		return err
	}
	if f.AddresseeID != userID || f.Status != model.FriendshipPending {
		return repository.ErrFriendshipNotFound
	}
	return s.repo.Delete(friendshipID)
}

// Remove ends a friendship or withdraws a request; either side may do it.
func (s *FriendshipService) Remove(userID, friendshipID string) error {
	f, err := s.repo.ByID(friendshipID)
	if err != nil {
		return err
	}
	if f.RequesterID != userID && f.AddresseeID != userID {
		return repository.ErrFriendshipNotFound
	}
	return s.repo.Delete(friendshipID)
}

func (s *FriendshipService) notify(addresseeID, fromUsername string) {
	prefs, err := s.preferences.ByUserID(addresseeID)
	if err != nil || !prefs.EmailNotifications {
		return
	}
	user, err := s.users.ByID(addresseeID)
	if err != nil {
		slog.Warn("failed to load friend request recipient", "error", err, "user_id", addresseeID)
		return
	}
	err = s.emailService.SendFriendRequestEmail(user.Email, fromUsername)
	if err != nil {
		slog.Warn("failed to send friend request email", "error", err, "user_id", addresseeID)
	}
}
