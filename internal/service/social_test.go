package service

import (
	"testing"

	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFriendRequestAndAccept(t *testing.T) {
	s := newTestServices(t)
	ada, _ := s.readyUser(t, "ada@example.com", "ada")
	grace, _ := s.readyUser(t, "grace@example.com", "grace")

	request, err := s.friends.Request(ada.ID, "@Grace")
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipPending, request.Status)

	_, err = s.friends.Request(ada.ID, "grace")
	assert.ErrorIs(t, err, ErrFriendshipExists)

	pending, err := s.friends.Pending(grace.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].Incoming)
	assert.Equal(t, "ada", pending[0].Username)

	// Only the addressee may accept.
	err = s.friends.Accept(ada.ID, request.ID)
	assert.ErrorIs(t, err, repository.ErrFriendshipNotFound)

	require.NoError(t, s.friends.Accept(grace.ID, request.ID))

	friends, err := s.friends.Friends(ada.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, grace.ID, friends[0].UserID)

	require.NoError(t, s.friends.Remove(ada.ID, request.ID))
	friends, err = s.friends.Friends(grace.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestFriendRequestAutoAccepts(t *testing.T) {
	s := newTestServices(t)
	ada, _ := s.readyUser(t, "ada@example.com", "ada")
	grace, _ := s.readyUser(t, "grace@example.com", "grace")

	_, err := s.friends.Request(ada.ID, "grace")
	require.NoError(t, err)

	mutual, err := s.friends.Request(grace.ID, "ada")
	require.NoError(t, err)
	assert.Equal(t, model.FriendshipAccepted, mutual.Status)

	friends, err := s.friends.Friends(grace.ID)
	require.NoError(t, err)
	assert.Len(t, friends, 1)
}

func TestFriendRequestRejects(t *testing.T) {
	s := newTestServices(t)
	ada, _ := s.readyUser(t, "ada@example.com", "ada")

	_, err := s.friends.Request(ada.ID, "ada")
	assert.ErrorIs(t, err, ErrSelfFriendship)

	_, err = s.friends.Request(ada.ID, "nobody")
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	fresh, err := s.auth.AuthenticateOAuth("fresh@example.com", "google")
	require.NoError(t, err)
	_, err = s.friends.Request(fresh.ID, "ada")
	assert.ErrorIs(t, err, ErrNoUsername)
}

func TestFriendDecline(t *testing.T) {
	s := newTestServices(t)
	ada, _ := s.readyUser(t, "ada@example.com", "ada")
	grace, _ := s.readyUser(t, "grace@example.com", "grace")

	request, err := s.friends.Request(ada.ID, "grace")
	require.NoError(t, err)

	require.NoError(t, s.friends.Decline(grace.ID, request.ID))

	pending, err := s.friends.Pending(ada.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A declined request can be sent again.
	_, err = s.friends.Request(ada.ID, "grace")
	assert.NoError(t, err)
}
