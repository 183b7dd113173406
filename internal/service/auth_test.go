package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/korusync/korusync/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse battery"

func TestSignUpAndVerifyOTP(t *testing.T) {
	s := newTestServices(t)

	user, err := s.auth.SignUp(context.Background(), "  Ada@Example.com ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.IsVerified())

	_, err = s.auth.VerifyOTP(user.ID, "000000")
	assert.ErrorIs(t, err, ErrInvalidOTP)

	verified, err := s.auth.VerifyOTP(user.ID, testCode)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified())

	_, err = s.auth.VerifyOTP(user.ID, testCode)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func TestSignUpRejectsInput(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	_, err := s.auth.SignUp(ctx, "not-an-email", testPassword)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = s.auth.SignUp(ctx, "ada@example.com", "short")
	assert.True(t, validation.IsInvalid(err))

	_, err = s.auth.SignUp(ctx, "ada@example.com", testPassword)
	require.NoError(t, err)
	_, err = s.auth.SignUp(ctx, "ADA@example.com", testPassword)
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestVerifyOTPBurnsCodeAfterMaxAttempts(t *testing.T) {
	s := newTestServices(t)

	user, err := s.auth.SignUp(context.Background(), "ada@example.com", testPassword)
	require.NoError(t, err)

	_, err = s.auth.VerifyOTP(user.ID, "111111")
	assert.ErrorIs(t, err, ErrInvalidOTP)
	_, err = s.auth.VerifyOTP(user.ID, "222222")
	assert.ErrorIs(t, err, ErrInvalidOTP)
	_, err = s.auth.VerifyOTP(user.ID, "333333")
	assert.ErrorIs(t, err, ErrOTPAttemptsExceeded)

	// The right code no longer works once the code is burned.
	_, err = s.auth.VerifyOTP(user.ID, testCode)
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestResendOTPCooldown(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	user, err := s.auth.SignUp(ctx, "ada@example.com", testPassword)
	require.NoError(t, err)

	remaining, err := s.auth.ResendOTP(ctx, user.ID)
	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Positive(t, remaining)
}

func TestLogin(t *testing.T) {
	s := newTestServices(t)

	_, err := s.auth.SignUp(context.Background(), "ada@example.com", testPassword)
	require.NoError(t, err)

	_, err = s.auth.Login("ada@example.com", "wrong password here")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.auth.Login("nobody@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := s.auth.Login(" ADA@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	_, err = s.auth.AuthenticateOAuth("oauth@example.com", "github")
	require.NoError(t, err)
	_, err = s.auth.Login("oauth@example.com", testPassword)
	assert.ErrorIs(t, err, ErrPasswordlessAccount)
}

func TestResetPassword(t *testing.T) {
	s := newTestServices(t)
	ctx := context.Background()

	user, err := s.auth.SignUp(ctx, "ada@example.com", testPassword)
	require.NoError(t, err)
	tokens, err := s.sessions.StartSession(user, "", "")
	require.NoError(t, err)

	require.NoError(t, s.auth.RequestPasswordReset(ctx, "nobody@example.com"))
	require.NoError(t, s.auth.RequestPasswordReset(ctx, "ada@example.com"))

	const newPassword = "battery staple horse"
	_, err = s.auth.ResetPassword("ada@example.com", "000000", newPassword)
	assert.ErrorIs(t, err, ErrInvalidOTP)
	_, err = s.auth.ResetPassword("nobody@example.com", testCode, newPassword)
	assert.ErrorIs(t, err, ErrInvalidOTP)

	reset, err := s.auth.ResetPassword("ada@example.com", testCode, newPassword)
	require.NoError(t, err)
	assert.True(t, reset.IsVerified())

	_, err = s.auth.Login("ada@example.com", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.auth.Login("ada@example.com", newPassword)
	require.NoError(t, err)

	_, _, err = s.sessions.Refresh(tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestAuthenticateOAuthVerifiesExistingUser(t *testing.T) {
	s := newTestServices(t)

	signedUp, err := s.auth.SignUp(context.Background(), "ada@example.com", testPassword)
	require.NoError(t, err)

	user, err := s.auth.AuthenticateOAuth("ada@example.com", "google")
	require.NoError(t, err)
	assert.Equal(t, signedUp.ID, user.ID)
	assert.True(t, user.IsVerified())
}

func TestSessionRefreshRotatesAndDetectsReuse(t *testing.T) {
	s := newTestServices(t)

	user, err := s.auth.AuthenticateOAuth("ada@example.com", "google")
	require.NoError(t, err)

	first, err := s.sessions.StartSession(user, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	id, err := s.sessions.VerifyJWT(first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	refreshed, second, err := s.sessions.Refresh(first.RefreshToken, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, refreshed.ID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Presenting the rotated token again revokes every session.
	_, _, err = s.sessions.Refresh(first.RefreshToken, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, _, err = s.sessions.Refresh(second.RefreshToken, "test-agent", "127.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionRevoke(t *testing.T) {
	s := newTestServices(t)

	user, err := s.auth.AuthenticateOAuth("ada@example.com", "google")
	require.NoError(t, err)
	tokens, err := s.sessions.StartSession(user, "", "")
	require.NoError(t, err)

	require.NoError(t, s.sessions.Revoke(tokens.RefreshToken))
	require.NoError(t, s.sessions.Revoke("unknown"))

	_, _, err = s.sessions.Refresh(tokens.RefreshToken, "", "")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestVerifyJWTRejectsForeignSecret(t *testing.T) {
	s := newTestServices(t)

	user, err := s.auth.AuthenticateOAuth("ada@example.com", "google")
	require.NoError(t, err)

	other := NewSessionService(nil, nil, "another-secret", s.sessions.jwtExpiry, s.sessions.sessionExpiry, false)
	token, _, err := other.GenerateJWT(user)
	require.NoError(t, err)

	_, err = s.sessions.VerifyJWT(token)
	assert.Error(t, err)
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	// "é" is two bytes; cutting inside it drops the whole rune.
	assert.Equal(t, "a", truncate("aé", 2))
	assert.Equal(t, "aé", truncate("aéz", 3))
	assert.Equal(t, "ok", truncate("o\xffk", 5))
	assert.True(t, utf8.ValidString(truncate(strings.Repeat("日本", 200), 255)))
}
