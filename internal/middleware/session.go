package middleware

import (
	"log/slog"
	"net/http"

	"github.com/korusync/korusync/internal/ctxkeys"
	"github.com/korusync/korusync/internal/service"
)

// Session resolves the signed-in user. A valid access token is used as is;
// otherwise a refresh token is rotated for a new pair of cookies. The user,
// profile and preferences are added to the context. Any invalid state
// clears the cookies and the request continues anonymous.
func Session(sessions *service.SessionService, users *service.UserService, profiles *service.ProfileService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if cookie, err := r.Cookie(service.AccessTokenCookie); err == nil && cookie.Value != "" {
				id, err := sessions.VerifyJWT(cookie.Value)
				if err == nil {
					userID = id
				}
			}

			if userID == "" {
				cookie, err := r.Cookie(service.RefreshTokenCookie)
				if err != nil || cookie.Value == "" {
					next.ServeHTTP(w, r)
					return
				}

				user, tokens, err := sessions.Refresh(cookie.Value, r.UserAgent(), ClientIP(r))
				if err != nil {
					slog.Debug("session refresh failed", "error", err)
					sessions.ClearSessionCookies(w)
					next.ServeHTTP(w, r)
					return
				}
				sessions.SetSessionCookies(w, tokens)
				userID = user.ID
			}

			user, err := users.ByID(userID)
			if err != nil {
				sessions.ClearSessionCookies(w)
				next.ServeHTTP(w, r)
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = nil

			profile, err := profiles.ByUserID(userID)
			if err != nil {
				slog.Error("session user has no profile", "error", err, "user_id", userID)
				sessions.ClearSessionCookies(w)
				next.ServeHTTP(w, r)
				return
			}

			prefs, err := profiles.Preferences(userID)
			if err != nil {
				slog.Error("session user has no preferences", "error", err, "user_id", userID)
				sessions.ClearSessionCookies(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			ctx = ctxkeys.WithProfile(ctx, profile)
			ctx = ctxkeys.WithPreferences(ctx, prefs)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
