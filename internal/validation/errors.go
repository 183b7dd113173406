package validation

import (
	"errors"
	"fmt"
)

// Error is a problem with user input. Handlers answer it with 400 and show
// the message as is.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func invalid(msg string) error { return &Error{msg: msg} }

func invalidf(format string, args ...any) error { return &Error{msg: fmt.Sprintf(format, args...)} }

// IsInvalid reports whether err, or anything it wraps, is an input error.
func IsInvalid(err error) bool {
	var v *Error
	return errors.As(err, &v)
}
