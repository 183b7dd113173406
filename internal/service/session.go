package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

var (
	ErrInvalidSession = errors.New("session is invalid or expired")
	ErrInvalidJWT     = errors.New("invalid token")
)

// SessionTokens is what StartSession and Refresh hand to the cookie writer.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// SessionService issues short-lived access JWTs backed by rotating refresh
// sessions. Refresh tokens are opaque; only their SHA-256 is stored.
type SessionService struct {
	sessionRepository repository.SessionRepository
	userRepository    repository.UserRepository
	jwtSecret         string
	jwtExpiry         time.Duration
	sessionExpiry     time.Duration
	isProduction      bool
	now               func() time.Time
}

func NewSessionService(
	sessionRepository repository.SessionRepository,
	userRepository repository.UserRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
	sessionExpiry time.Duration,
	isProduction bool,
) *SessionService {
	return &SessionService{
		sessionRepository: sessionRepository,
		userRepository:    userRepository,
		jwtSecret:         jwtSecret,
		jwtExpiry:         jwtExpiry,
		sessionExpiry:     sessionExpiry,
		isProduction:      isProduction,
		now:               time.Now,
	}
}

func (s *SessionService) StartSession(user *model.User, userAgent, ip string) (*SessionTokens, error) {
	refresh, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := s.now().UTC()
	session := &model.Session{
		UserID:    user.ID,
		TokenHash: HashCode(refresh),
		UserAgent: truncate(userAgent, 255),
		IP:        ip,
		ExpiresAt: now.Add(s.sessionExpiry),
		CreatedAt: now,
	}
	err = s.sessionRepository.Create(session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	access, accessExpiry, err := s.GenerateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refresh,
		RefreshExpiresAt: session.ExpiresAt,
	}, nil
}

// Refresh rotates a refresh session: the presented token is revoked and a
// new session is started for the same user. A token that was already
// revoked is treated as reuse and revokes every session of the user.
func (s *SessionService) Refresh(refreshToken, userAgent, ip string) (*model.User, *SessionTokens, error) {
	if refreshToken == "" {
		return nil, nil, ErrInvalidSession
	}

	session, err := s.sessionRepository.ByTokenHash(HashCode(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.RevokedAt != nil {
		slog.Warn("revoked refresh token presented, revoking all sessions", "user_id", session.UserID)
		err = s.sessionRepository.RevokeAllForUser(session.UserID)
		if err != nil {
			slog.Error("failed to revoke sessions", "error", err, "user_id", session.UserID)
		}
		return nil, nil, ErrInvalidSession
	}
	if !session.IsActive(s.now().UTC()) {
		return nil, nil, ErrInvalidSession
	}

	// Losing this race means another request already rotated the token.
	err = s.sessionRepository.Revoke(session.ID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to revoke session: %w", err)
	}

	user, err := s.userRepository.ByID(session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	tokens, err := s.StartSession(user, userAgent, ip)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Revoke ends the session behind a refresh token. Unknown or already revoked
// tokens are ignored so logout always succeeds.
func (s *SessionService) Revoke(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	session, err := s.sessionRepository.ByTokenHash(HashCode(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	err = s.sessionRepository.Revoke(session.ID)
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *SessionService) RevokeAll(userID string) error {
	return s.sessionRepository.RevokeAllForUser(userID)
}

func (s *SessionService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// VerifyJWT returns the user ID carried by a valid access token.
func (s *SessionService) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidJWT
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidJWT
	}
	return userID, nil
}

func (s *SessionService) SetSessionCookies(w http.ResponseWriter, tokens *SessionTokens) {
	s.setCookie(w, AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt)
	s.setCookie(w, RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt)
}

func (s *SessionService) ClearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.isProduction,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (s *SessionService) setCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// truncate keeps at most n bytes of s without splitting a rune. Invalid
// UTF-8 from the header is dropped first since Postgres rejects it.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
