package validation

import (
	"strings"
	"unicode/utf8"
)

var ErrFullNameTooLong = invalid("name is too long (max 100 characters)")

// ValidateFullName allows an empty name; the wizard does not require one.
func ValidateFullName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > 100 {
		return ErrFullNameTooLong
	}
	return nil
}
