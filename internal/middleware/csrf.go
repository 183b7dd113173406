package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/korusync/korusync/internal/ctxkeys"
	"github.com/korusync/korusync/internal/render"
)

const (
	csrfCookieName = "csrf_token"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfTokenLen   = 32
	csrfMaxAge     = 7 * 24 * 60 * 60
)

// CSRFProtection is a double-submit check on state-changing /api requests.
// The token lives in an HttpOnly cookie. Safe requests echo it in the
// X-CSRF-Token response header (and GET /api/auth/session returns it);
// clients send it back in the same header.
func CSRFProtection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := csrfToken(w, r)
		ctx := ctxkeys.WithCSRFToken(r.Context(), token)

		switch {
		case isSafeMethod(r.Method):
			w.Header().Set(csrfHeader, token)
		case !strings.HasPrefix(r.URL.Path, "/api/"):
			// Page paths only accept GET; the mux rejects the rest.
		case !sameToken(token, submittedCSRFToken(r)):
			slog.Warn("csrf validation failed", "path", r.URL.Path, "method", r.Method, "ip", ClientIP(r))
			render.Error(w, http.StatusForbidden, "invalid csrf token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// submittedCSRFToken reads the header, or the form field on multipart
// uploads that cannot set headers.
func submittedCSRFToken(r *http.Request) string {
	token := r.Header.Get(csrfHeader)
	if token == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		token = r.FormValue(csrfFormField)
	}
	return token
}

// csrfToken returns the visitor's token, issuing a new cookie when the
// existing one is missing or malformed.
func csrfToken(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(csrfCookieName)
	if err == nil && len(cookie.Value) == base64.RawURLEncoding.EncodedLen(csrfTokenLen) {
		return cookie.Value
	}

	b := make([]byte, csrfTokenLen)
	_, err = rand.Read(b)
	if err != nil {
		panic("failed to generate csrf token: " + err.Error())
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	cfg := ctxkeys.Config(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg != nil && cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   csrfMaxAge,
	})
	return token
}

func sameToken(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
