package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/korusync/korusync/internal/metrics"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCurrentPassword = errors.New("current password is incorrect")

type UserService struct {
	userRepository    repository.UserRepository
	profileRepository repository.ProfileRepository
	accountRepository repository.AccountRepository
	sessionRepository repository.SessionRepository
	fileService       *FileService
	emailService      *EmailService
}

func NewUserService(
	userRepository repository.UserRepository,
	profileRepository repository.ProfileRepository,
	accountRepository repository.AccountRepository,
	sessionRepository repository.SessionRepository,
	fileService *FileService,
	emailService *EmailService,
) *UserService {
	return &UserService{
		userRepository:    userRepository,
		profileRepository: profileRepository,
		accountRepository: accountRepository,
		sessionRepository: sessionRepository,
		fileService:       fileService,
		emailService:      emailService,
	}
}

// ByID loads the user with its avatar URL populated.
func (s *UserService) ByID(id string) (*model.User, error) {
	user, err := s.userRepository.ByID(id)
	if err != nil {
		return nil, err
	}

	avatar, err := s.fileService.Avatar(id)
	if err == nil {
		user.AvatarURL = s.fileService.URL(avatar)
	}

	return user, nil
}

// UpdatePassword changes the password and revokes every other session. A
// passwordless (OAuth) account may set its first password without the
// current one.
func (s *UserService) UpdatePassword(userID, currentPassword, newPassword string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.HasPassword() {
		err = bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword))
		if err != nil {
			return ErrInvalidCurrentPassword
		}
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	hashStr := string(hashedPassword)
	user.PasswordHash = &hashStr

	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	err = s.sessionRepository.RevokeAllForUser(userID)
	if err != nil {
		slog.Warn("failed to revoke sessions after password change", "error", err, "user_id", userID)
	}

	err = s.emailService.SendPasswordChangedEmail(user.Email)
	if err != nil {
		slog.Warn("failed to send password changed email", "error", err, "user_id", userID)
	}

	return nil
}

// DeleteAccount removes stored files (best effort), then every row the
// user owns in one transaction, then sends a goodbye email (best effort).
func (s *UserService) DeleteAccount(userID string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	profile, err := s.profileRepository.ByUserID(userID)
	if err != nil {
		// Continue without profile name if not found
		slog.Warn("failed to get profile for deletion email", "user_id", userID, "error", err)
	}

	name := ""
	if profile != nil {
		name = profile.FullName
	}

	err = s.fileService.DeleteAllUserFilesFromStorage(userID)
	if err != nil {
		// Log warning but don't fail - orphaned files are better than failed deletion
		slog.Warn("failed to delete user files from storage", "user_id", userID, "error", err)
	}

	err = s.accountRepository.Delete(userID)
	if err != nil {
		metrics.IncrementAccountDeletion("failed")
		return fmt.Errorf("failed to delete account: %w", err)
	}
	metrics.IncrementAccountDeletion("deleted")
	slog.Info("account deleted", "user_id", userID)

	err = s.emailService.SendAccountDeletedEmail(user.Email, name)
	if err != nil {
		slog.Warn("failed to send account deleted email", "user_id", userID, "error", err)
	}

	return nil
}
