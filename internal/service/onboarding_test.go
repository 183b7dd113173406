package service

import (
	"testing"

	"github.com/korusync/korusync/internal/onboarding"
	"github.com/korusync/korusync/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingComplete(t *testing.T) {
	s := newTestServices(t)

	user, err := s.auth.AuthenticateOAuth("ada@example.com", "google")
	require.NoError(t, err)

	state, err := s.onboarding.State(user.ID)
	require.NoError(t, err)
	assert.False(t, state.Completed)

	profile, pillars, err := s.onboarding.Complete(user.ID, onboarding.Submission{
		Username: " @Ada_L ",
		FullName: "Ada Lovelace",
		Timezone: "Europe/London",
		Pillars:  []validation.PillarInput{{Name: "deep work"}, {Name: "Family", Color: "#22c55e"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada_l", profile.UsernameOrEmpty())
	assert.Equal(t, "Europe/London", profile.Timezone)
	require.Len(t, pillars, 2)
	assert.Equal(t, "Deep Work", pillars[0].Name)
	assert.Equal(t, "deep-work", pillars[0].Slug)

	state, err = s.onboarding.State(user.ID)
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Len(t, state.Pillars, 2)

	_, _, err = s.onboarding.Complete(user.ID, onboarding.Submission{
		Username: "ada_again",
		Timezone: "UTC",
		Pillars:  []validation.PillarInput{{Name: "Health"}},
	})
	assert.ErrorIs(t, err, ErrOnboardingCompleted)
}

func TestOnboardingCompleteUsernameTaken(t *testing.T) {
	s := newTestServices(t)
	s.readyUser(t, "ada@example.com", "ada")

	other, err := s.auth.AuthenticateOAuth("grace@example.com", "google")
	require.NoError(t, err)

	_, _, err = s.onboarding.Complete(other.ID, onboarding.Submission{
		Username: "ADA",
		Timezone: "UTC",
		Pillars:  []validation.PillarInput{{Name: "Health"}},
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// Nothing from the failed attempt was kept.
	state, err := s.onboarding.State(other.ID)
	require.NoError(t, err)
	assert.False(t, state.Completed)
	assert.Empty(t, state.Pillars)
}

func TestOnboardingCompleteRejectsPillarsWithSameSlug(t *testing.T) {
	s := newTestServices(t)

	user, err := s.auth.AuthenticateOAuth("ada@example.com", "google")
	require.NoError(t, err)

	_, _, err = s.onboarding.Complete(user.ID, onboarding.Submission{
		Username: "ada",
		Timezone: "UTC",
		Pillars:  []validation.PillarInput{{Name: "Deep Work"}, {Name: "Deep-Work"}},
	})
	assert.ErrorIs(t, err, validation.ErrPillarDuplicate)

	state, err := s.onboarding.State(user.ID)
	require.NoError(t, err)
	assert.False(t, state.Completed)
	assert.Empty(t, state.Pillars)
}

func TestOnboardingCompleteValidates(t *testing.T) {
	s := newTestServices(t)

	user, err := s.auth.AuthenticateOAuth("ada@example.com", "google")
	require.NoError(t, err)

	tests := []struct {
		name string
		sub  onboarding.Submission
	}{
		{"bad username", onboarding.Submission{Username: "a!", Timezone: "UTC", Pillars: []validation.PillarInput{{Name: "Health"}}}},
		{"reserved username", onboarding.Submission{Username: "admin", Timezone: "UTC", Pillars: []validation.PillarInput{{Name: "Health"}}}},
		{"bad timezone", onboarding.Submission{Username: "ada", Timezone: "Mars/Olympus", Pillars: []validation.PillarInput{{Name: "Health"}}}},
		{"no pillars", onboarding.Submission{Username: "ada", Timezone: "UTC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := s.onboarding.Complete(user.ID, tt.sub)
			assert.True(t, validation.IsInvalid(err), "got %v", err)
		})
	}
}

func TestUsernameAvailable(t *testing.T) {
	s := newTestServices(t)
	ada, _ := s.readyUser(t, "ada@example.com", "ada")
	grace, _ := s.readyUser(t, "grace@example.com", "grace")

	ok, err := s.onboarding.UsernameAvailable(grace.ID, "ada")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.onboarding.UsernameAvailable(ada.ID, "@Ada")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.onboarding.UsernameAvailable(grace.ID, "hopper")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.onboarding.UsernameAvailable(grace.ID, "x")
	assert.ErrorIs(t, err, validation.ErrUsernameInvalid)
}

func TestCheckStep(t *testing.T) {
	s := newTestServices(t)
	s.readyUser(t, "ada@example.com", "ada")

	user, err := s.auth.AuthenticateOAuth("grace@example.com", "google")
	require.NoError(t, err)

	res, err := s.onboarding.CheckStep(user.ID, "welcome", onboarding.Submission{})
	require.NoError(t, err)
	assert.Equal(t, "username", res.Next)
	assert.Equal(t, "welcome", res.Previous)

	_, err = s.onboarding.CheckStep(user.ID, "username", onboarding.Submission{Username: "x"})
	assert.ErrorIs(t, err, validation.ErrUsernameInvalid)

	_, err = s.onboarding.CheckStep(user.ID, "username", onboarding.Submission{Username: "Ada"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	res, err = s.onboarding.CheckStep(user.ID, "username", onboarding.Submission{Username: "@Grace"})
	require.NoError(t, err)
	assert.Equal(t, "timezone", res.Next)
	assert.Equal(t, "welcome", res.Previous)
	assert.Equal(t, "grace", res.Submission.Username)
	assert.False(t, res.Ready)

	sub := onboarding.Submission{
		Username: "grace",
		Timezone: "America/New_York",
		Pillars:  []validation.PillarInput{{Name: "Deep Work"}, {Name: "Deep-Work"}},
	}
	_, err = s.onboarding.CheckStep(user.ID, "pillars", sub)
	assert.ErrorIs(t, err, validation.ErrPillarDuplicate)

	sub.Pillars = []validation.PillarInput{{Name: "deep work"}}
	res, err = s.onboarding.CheckStep(user.ID, "pillars", sub)
	require.NoError(t, err)
	assert.Equal(t, "intro", res.Next)
	assert.Equal(t, "timezone", res.Previous)
	assert.True(t, res.Ready)

	_, err = s.onboarding.CheckStep(user.ID, "billing", sub)
	assert.ErrorIs(t, err, onboarding.ErrUnknownStep)

	// Checking a step writes nothing.
	state, err := s.onboarding.State(user.ID)
	require.NoError(t, err)
	assert.False(t, state.Completed)
	assert.Empty(t, state.Pillars)

	_, _, err = s.onboarding.Complete(user.ID, sub)
	require.NoError(t, err)
	_, err = s.onboarding.CheckStep(user.ID, "welcome", onboarding.Submission{})
	assert.ErrorIs(t, err, ErrOnboardingCompleted)
}
