package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/korusync/korusync/internal/cooldown"
	"github.com/korusync/korusync/internal/metrics"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrPasswordlessAccount = errors.New("this account signs in with Google or GitHub")
	ErrInvalidOTP          = errors.New("invalid or expired code")
	ErrOTPAttemptsExceeded = errors.New("too many attempts, request a new code")
	ErrAlreadyVerified     = errors.New("email is already verified")
	ErrCooldownActive      = errors.New("please wait before requesting another code")
)

// OTPConfig controls one-time code issuing and checking.
type OTPConfig struct {
	Length         int
	Expiry         time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

type AuthService struct {
	userRepository    repository.UserRepository
	accountRepository repository.AccountRepository
	tokenRepository   repository.TokenRepository
	sessionRepository repository.SessionRepository
	emailService      *EmailService
	cooldowns         cooldown.Store
	otp               OTPConfig
	generateCode      func(length int) (string, error)
}

func NewAuthService(
	userRepository repository.UserRepository,
	accountRepository repository.AccountRepository,
	tokenRepository repository.TokenRepository,
	sessionRepository repository.SessionRepository,
	emailService *EmailService,
	cooldowns cooldown.Store,
	otp OTPConfig,
) *AuthService {
	return &AuthService{
		userRepository:    userRepository,
		accountRepository: accountRepository,
		tokenRepository:   tokenRepository,
		sessionRepository: sessionRepository,
		emailService:      emailService,
		cooldowns:         cooldowns,
		otp:               otp,
		generateCode:      GenerateOTP,
	}
}

// SignUp creates an unverified account and emails a verification code.
// The code is sent best effort: a failed send is logged and the user can
// resend from the verification page.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}
	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.createAccount(email, &hash, nil)
	if err != nil {
		return nil, err
	}
	metrics.IncrementSignup("password")
	slog.Info("user signed up", "user_id", user.ID)

	_, _, err = s.cooldowns.Acquire(ctx, otpCooldownKey(model.TokenTypeEmailVerify, user.ID), s.otp.ResendCooldown)
	if err != nil {
		slog.Warn("failed to start otp cooldown", "error", err, "user_id", user.ID)
	}

	err = s.issueCode(user, model.TokenTypeEmailVerify)
	if err != nil {
		slog.Error("failed to send verification code", "error", err, "user_id", user.ID)
	}

	return user, nil
}

func (s *AuthService) createAccount(email string, passwordHash *string, verifiedAt *time.Time) (*model.User, error) {
	now := time.Now().UTC()
	user := &model.User{
		ID:              uuid.New().String(),
		Email:           email,
		PasswordHash:    passwordHash,
		EmailVerifiedAt: verifiedAt,
		CreatedAt:       now,
	}

	err := s.accountRepository.Create(user,
		&model.Profile{UserID: user.ID, Timezone: "UTC", CreatedAt: now, UpdatedAt: now},
		model.DefaultPreferences(user.ID, now),
		&model.UserStats{UserID: user.ID, Level: 1, UpdatedAt: now},
	)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return user, nil
}

// VerifyOTP checks the newest email verification code and marks the email
// verified on success.
func (s *AuthService) VerifyOTP(userID, code string) (*model.User, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsVerified() {
		return user, ErrAlreadyVerified
	}

	err = s.checkCode(user.ID, model.TokenTypeEmailVerify, code)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user.EmailVerifiedAt = &now
	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}

	slog.Info("email verified", "user_id", user.ID)
	return user, nil
}

// ResendOTP replaces outstanding codes with a fresh one. While the cooldown
// runs it returns ErrCooldownActive and the time left.
func (s *AuthService) ResendOTP(ctx context.Context, userID string) (time.Duration, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsVerified() {
		return 0, ErrAlreadyVerified
	}

	ok, remaining, err := s.cooldowns.Acquire(ctx, otpCooldownKey(model.TokenTypeEmailVerify, user.ID), s.otp.ResendCooldown)
	if err != nil {
		return 0, fmt.Errorf("cooldown check failed: %w", err)
	}
	if !ok {
		return remaining, ErrCooldownActive
	}

	err = s.issueCode(user, model.TokenTypeEmailVerify)
	if err != nil {
		return 0, err
	}

	return s.otp.ResendCooldown, nil
}

// Login accepts unverified users; the session gate routes them to the
// verification page.
func (s *AuthService) Login(email, password string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn comparable time so unknown emails are not distinguishable.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrPasswordlessAccount
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	metrics.IncrementLogin("password")
	return user, nil
}

// RequestPasswordReset emails a reset code. Unknown addresses and active
// cooldowns succeed silently to prevent enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	ok, _, err := s.cooldowns.Acquire(ctx, otpCooldownKey(model.TokenTypePasswordReset, user.ID), s.otp.ResendCooldown)
	if err != nil {
		return fmt.Errorf("cooldown check failed: %w", err)
	}
	if !ok {
		slog.Info("password reset throttled", "user_id", user.ID)
		return nil
	}

	return s.issueCode(user, model.TokenTypePasswordReset)
}

// ResetPassword sets a new password after checking the reset code and
// signs the user out everywhere. The code proves mailbox ownership, so an
// unverified email becomes verified.
func (s *AuthService) ResetPassword(email, code, newPassword string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.checkCode(user.ID, model.TokenTypePasswordReset, code)
	if err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = &hash
	if !user.IsVerified() {
		now := time.Now().UTC()
		user.EmailVerifiedAt = &now
	}

	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	err = s.sessionRepository.RevokeAllForUser(user.ID)
	if err != nil {
		slog.Error("failed to revoke sessions after password reset", "error", err, "user_id", user.ID)
	}

	err = s.emailService.SendPasswordChangedEmail(user.Email)
	if err != nil {
		slog.Warn("failed to send password changed email", "error", err, "user_id", user.ID)
	}

	slog.Info("password reset", "user_id", user.ID)
	return user, nil
}

// AuthenticateOAuth signs in or creates a user whose email the provider
// has already verified.
func (s *AuthService) AuthenticateOAuth(email, provider string) (*model.User, error) {
	email = validation.NormalizeEmail(email)

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	now := time.Now().UTC()
	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to lookup user: %w", err)
		}

		user, err = s.createAccount(email, nil, &now)
		if err != nil {
			return nil, err
		}
		metrics.IncrementSignup(provider)
		slog.Info("new OAuth user created", "user_id", user.ID, "provider", provider)
		return user, nil
	}

	if !user.IsVerified() {
		user.EmailVerifiedAt = &now
		err = s.userRepository.Update(user)
		if err != nil {
			slog.Warn("failed to mark email as verified", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("user authenticated via OAuth", "user_id", user.ID, "provider", provider)
	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// issueCode replaces outstanding codes of the type and emails a new one.
func (s *AuthService) issueCode(user *model.User, tokenType string) error {
	err := s.tokenRepository.DeleteByUserAndType(user.ID, tokenType)
	if err != nil {
		slog.Warn("failed to delete old codes", "error", err, "user_id", user.ID, "type", tokenType)
	}

	code, err := s.generateCode(s.otp.Length)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	token := &model.Token{
		UserID:    user.ID,
		Type:      tokenType,
		CodeHash:  HashCode(code),
		ExpiresAt: time.Now().UTC().Add(s.otp.Expiry),
	}
	err = s.tokenRepository.Create(token)
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}

	switch tokenType {
	case model.TokenTypePasswordReset:
		err = s.emailService.SendPasswordResetCode(user.Email, code, s.otp.Expiry)
	default:
		err = s.emailService.SendVerificationCode(user.Email, code, s.otp.Expiry)
	}
	if err != nil {
		return fmt.Errorf("failed to send code: %w", err)
	}

	return nil
}

// checkCode consumes the active code when it matches. Each miss counts
// against the code; the last allowed miss burns it.
func (s *AuthService) checkCode(userID, tokenType, code string) error {
	token, err := s.tokenRepository.Active(userID, tokenType)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			metrics.IncrementOTPVerification("expired")
			return ErrInvalidOTP
		}
		return fmt.Errorf("failed to load code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(HashCode(code)), []byte(token.CodeHash)) != 1 {
		attempts, err := s.tokenRepository.RecordFailedAttempt(token.ID)
		if err != nil {
			return fmt.Errorf("failed to record attempt: %w", err)
		}
		if attempts >= s.otp.MaxAttempts {
			_, err = s.tokenRepository.Consume(token.ID)
			if err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
				slog.Warn("failed to burn code", "error", err, "user_id", userID)
			}
			metrics.IncrementOTPVerification("exhausted")
			return ErrOTPAttemptsExceeded
		}
		metrics.IncrementOTPVerification("invalid")
		return ErrInvalidOTP
	}

	_, err = s.tokenRepository.Consume(token.ID)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrInvalidOTP
		}
		return fmt.Errorf("failed to consume code: %w", err)
	}

	metrics.IncrementOTPVerification("success")
	return nil
}

func otpCooldownKey(tokenType, userID string) string {
	return tokenType + ":" + userID
}

// dummyHash is compared against on unknown emails.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("korusync-timing-equaliser"), bcrypt.DefaultCost)

// GenerateOTP returns a uniformly random numeric code.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// HashCode is the stored form of a one-time code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// GenerateToken returns 32 random bytes hex-encoded (refresh tokens, OAuth state).
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
