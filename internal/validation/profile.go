package validation

import (
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo
)

var (
	ErrUsernameInvalid  = invalid("username must be 3-30 characters: lowercase letters, digits or underscores")
	ErrUsernameReserved = invalid("username is reserved")
	ErrTimezoneInvalid  = invalid("unknown timezone")
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

var reservedUsernames = map[string]bool{
	"admin": true, "api": true, "dashboard": true, "onboarding": true,
	"settings": true, "login": true, "signup": true, "support": true,
}

// NormalizeUsername trims, lower-cases and strips a leading "@".
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
}

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	if reservedUsernames[username] {
		return ErrUsernameReserved
	}
	return nil
}

// ValidateTimezone accepts IANA names only. "Local" is rejected because it
// depends on the server.
func ValidateTimezone(tz string) error {
	if tz == "" || tz == "Local" {
		return ErrTimezoneInvalid
	}
	_, err := time.LoadLocation(tz)
	if err != nil {
		return ErrTimezoneInvalid
	}
	return nil
}
