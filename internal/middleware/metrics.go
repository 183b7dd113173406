package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/korusync/korusync/internal/metrics"
)

// Metrics records request latency by route pattern. It must wrap the mux
// directly so the matched pattern is visible once the handler returns.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(r.Method, route, strconv.Itoa(rw.statusCode), time.Since(start))
	})
}
