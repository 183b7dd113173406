package validation

import (
	"net/mail"
	"strings"
)

var (
	ErrEmailRequired = invalid("email address is required")
	ErrEmailTooLong  = invalid("email address is too long (max 254 characters)")
	ErrEmailInvalid  = invalid("invalid email address format")
)

// NormalizeEmail trims and lower-cases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks length (RFC 5321) and syntax (RFC 5322, via net/mail).
// Display-name forms like "Ann <a@b.c>" are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if len(email) > 254 {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}

	return nil
}
