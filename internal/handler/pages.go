package handler

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/korusync/korusync/internal/render"
)

// PageHandler serves the client shell for every gated page path. The gate
// has already redirected visitors who may not see the page.
type PageHandler struct {
	staticDir string
	appName   string
}

func NewPageHandler(staticDir, appName string) *PageHandler {
	return &PageHandler{staticDir: staticDir, appName: appName}
}

// Page serves STATIC_DIR/index.html, or a plain placeholder when no client
// build is configured.
func (h *PageHandler) Page(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if h.staticDir != "" {
		index := filepath.Join(h.staticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			w.Header().Set("Cache-Control", "no-cache")
			http.ServeFile(w, r, index)
			return
		}
		slog.Warn("static index missing", "path", index)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.appName + "\n"))
}

// Assets serves the client build under /assets/.
func (h *PageHandler) Assets() http.Handler {
	if h.staticDir == "" {
		return http.NotFoundHandler()
	}
	return http.StripPrefix("/assets/", http.FileServer(http.Dir(filepath.Join(h.staticDir, "assets"))))
}

// NotFound answers unknown API paths in the API's error shape.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	render.Error(w, http.StatusNotFound, "not found")
}

type HealthHandler struct {
	db *sqlx.DB
}

func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz reports 503 when the database does not answer a ping.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	err := h.db.PingContext(ctx)
	if err != nil {
		slog.Error("health check failed", "error", err)
		render.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	render.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
