package middleware

import (
	"net/http"

	"github.com/korusync/korusync/internal/config"
	"github.com/korusync/korusync/internal/ctxkeys"
)

// Config puts the sanitized configuration in the request context. Cookie
// and header middleware read the environment from it; secrets are not copied.
func Config(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), cfg.Sanitized())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
