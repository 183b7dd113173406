package validation

import (
	"strings"
)

var (
	ErrPasswordTooShort = invalid("password must be at least 12 characters")
	ErrPasswordTooLong  = invalid("password must not exceed 72 characters")
	ErrPasswordCommon   = invalid("password is too common, please choose a stronger one")
)

var commonPasswordPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
	"korusync",
}

// ValidatePassword enforces 12..72 bytes (bcrypt truncates past 72) and
// rejects well-known weak patterns.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lower, pattern) {
			return ErrPasswordCommon
		}
	}

	return nil
}
