package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/korusync/korusync/internal/ctxkeys"
	"github.com/korusync/korusync/internal/gate"
	"github.com/korusync/korusync/internal/metrics"
	"github.com/korusync/korusync/internal/render"
)

// GateState reads the session gate inputs from the context Session filled.
func GateState(ctx context.Context) gate.State {
	user := ctxkeys.User(ctx)
	if user == nil {
		return gate.State{}
	}
	prefs := ctxkeys.Preferences(ctx)
	return gate.State{
		Authenticated:       true,
		EmailVerified:       user.IsVerified(),
		OnboardingCompleted: prefs != nil && prefs.OnboardingCompleted,
	}
}

// SessionGate redirects page requests that the signed-in state does not
// allow. It must run after Session.
func SessionGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := gate.Decide(GateState(r.Context()), r.URL.Path)
		if !d.Allow {
			metrics.IncrementGateRedirect(d.Redirect)
			slog.Debug("gate redirect", "path", r.URL.Path, "to", d.Redirect)
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth answers 401 for anonymous API requests.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !GateState(r.Context()).Authenticated {
			render.Redirect(w, http.StatusUnauthorized, "authentication required", gate.LoginPath)
			return
		}
		next(w, r)
	}
}

// RequireVerified also answers 403 until the email is verified.
func RequireVerified(next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !GateState(r.Context()).EmailVerified {
			render.Redirect(w, http.StatusForbidden, "email verification required", gate.VerifyOTPPath)
			return
		}
		next(w, r)
	})
}

// RequireOnboarded also answers 403 until onboarding is completed.
func RequireOnboarded(next http.HandlerFunc) http.HandlerFunc {
	return RequireVerified(func(w http.ResponseWriter, r *http.Request) {
		if !GateState(r.Context()).OnboardingCompleted {
			render.Redirect(w, http.StatusForbidden, "onboarding required", gate.OnboardingPath)
			return
		}
		next(w, r)
	})
}
