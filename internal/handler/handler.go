// Package handler serves the JSON API and the gated page shell.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/korusync/korusync/internal/ctxkeys"
	"github.com/korusync/korusync/internal/markdown"
	"github.com/korusync/korusync/internal/middleware"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/onboarding"
	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/service"
	"github.com/korusync/korusync/internal/storage"
	"github.com/korusync/korusync/internal/validation"
)

// errorStatuses maps known errors to a status. The error text is shown to
// the client; anything not listed is logged and answered with a generic 500.
var errorStatuses = []struct {
	err    error
	status int
}{
	{render.ErrBadRequestBody, http.StatusBadRequest},

	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrProfileNotFound, http.StatusNotFound},
	{repository.ErrPillarNotFound, http.StatusNotFound},
	{repository.ErrTaskNotFound, http.StatusNotFound},
	{repository.ErrTimeEntryNotFound, http.StatusNotFound},
	{repository.ErrGoalNotFound, http.StatusNotFound},
	{repository.ErrGoalEntryNotFound, http.StatusNotFound},
	{repository.ErrJournalEntryNotFound, http.StatusNotFound},
	{repository.ErrFriendshipNotFound, http.StatusNotFound},
	{repository.ErrFileNotFound, http.StatusNotFound},
	{repository.ErrStatsNotFound, http.StatusNotFound},
	{onboarding.ErrUnknownStep, http.StatusNotFound},

	{service.ErrEmailAlreadyExists, http.StatusConflict},
	{service.ErrUsernameTaken, http.StatusConflict},
	{repository.ErrUsernameTaken, http.StatusConflict},
	{repository.ErrDuplicatePillar, http.StatusConflict},
	{service.ErrOnboardingCompleted, http.StatusConflict},
	{service.ErrTimerRunning, http.StatusConflict},
	{service.ErrTimerStopped, http.StatusConflict},
	{service.ErrFriendshipExists, http.StatusConflict},
	{service.ErrTaskAlreadyDone, http.StatusConflict},
	{service.ErrTaskNotDone, http.StatusConflict},
	{service.ErrGoalAlreadyCompleted, http.StatusConflict},
	{service.ErrGoalArchived, http.StatusConflict},
	{service.ErrNothingToUndo, http.StatusConflict},
	{service.ErrAlreadyVerified, http.StatusConflict},

	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidSession, http.StatusUnauthorized},
	{service.ErrInvalidCurrentPassword, http.StatusUnauthorized},
	{service.ErrPasswordlessAccount, http.StatusBadRequest},
	{service.ErrInvalidOTP, http.StatusBadRequest},
	{service.ErrInvalidEmail, http.StatusBadRequest},
	{service.ErrOTPAttemptsExceeded, http.StatusTooManyRequests},

	{service.ErrPillarLimitReached, http.StatusBadRequest},
	{service.ErrSelfFriendship, http.StatusBadRequest},
	{service.ErrNoUsername, http.StatusBadRequest},
	{service.ErrThemeInvalid, http.StatusBadRequest},
	{service.ErrWeeklyFocusGoal, http.StatusBadRequest},
	{service.ErrUsernameChangeInvalid, http.StatusBadRequest},
	{service.ErrEntryRange, http.StatusBadRequest},
	{service.ErrEntryTooLong, http.StatusBadRequest},
	{service.ErrEntryInFuture, http.StatusBadRequest},
	{service.ErrListRangeRequired, http.StatusBadRequest},
	{service.ErrGoalUnit, http.StatusBadRequest},
	{service.ErrJournalContentTooLong, http.StatusBadRequest},
	{service.ErrJournalImportTooLarge, http.StatusRequestEntityTooLarge},
	{markdown.ErrEmptyDocument, http.StatusBadRequest},
	{markdown.ErrInvalidFrontMatter, http.StatusBadRequest},

	{storage.ErrDisabled, http.StatusServiceUnavailable},
}

// statusFor returns the status for err and whether err is a known client error.
func statusFor(err error) (int, bool) {
	if validation.IsInvalid(err) {
		return http.StatusBadRequest, true
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status, true
		}
	}
	return http.StatusInternalServerError, false
}

// respondError answers with the mapped status. Unknown errors are logged
// with the request context and hidden from the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, known := statusFor(err)
	if !known {
		attrs := []any{"error", err, "method", r.Method, "path", r.URL.Path}
		if user := ctxkeys.User(r.Context()); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}
		slog.Error("request failed", attrs...)
		render.Error(w, status, "something went wrong, please try again")
		return
	}
	render.Error(w, status, err.Error())
}

// userID returns the signed-in user's ID. Routes behind the API guards
// always have one.
func userID(r *http.Request) string {
	user := ctxkeys.User(r.Context())
	if user == nil {
		return ""
	}
	return user.ID
}

// startSession issues tokens for user and sets the session cookies.
func startSession(w http.ResponseWriter, r *http.Request, sessions *service.SessionService, user *model.User) error {
	tokens, err := sessions.StartSession(user, r.UserAgent(), middleware.ClientIP(r))
	if err != nil {
		return err
	}
	sessions.SetSessionCookies(w, tokens)
	return nil
}

// queryTime parses an RFC 3339 query parameter. An empty value yields def.
func queryTime(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, validation.ErrTimestampInvalid
	}
	return t, nil
}
