package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/korusync/korusync/internal/markdown"
	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/service"
	"github.com/korusync/korusync/internal/storage"
	"github.com/korusync/korusync/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err   error
		want  int
		known bool
	}{
		{validation.ErrUsernameInvalid, http.StatusBadRequest, true},
		{fmt.Errorf("%w: unexpected EOF", render.ErrBadRequestBody), http.StatusBadRequest, true},
		{fmt.Errorf("lookup: %w", repository.ErrTaskNotFound), http.StatusNotFound, true},
		{service.ErrTimerRunning, http.StatusConflict, true},
		{service.ErrUsernameTaken, http.StatusConflict, true},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, true},
		{service.ErrOTPAttemptsExceeded, http.StatusTooManyRequests, true},
		{service.ErrJournalImportTooLarge, http.StatusRequestEntityTooLarge, true},
		{fmt.Errorf("%w: yaml: cannot unmarshal", markdown.ErrInvalidFrontMatter), http.StatusBadRequest, true},
		{storage.ErrDisabled, http.StatusServiceUnavailable, true},
		{errors.New("connection reset"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, known := statusFor(tt.err)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestRespondErrorHidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, httptest.NewRequest(http.MethodGet, "/api/tasks", nil), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body render.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotContains(t, body.Error, "pq")
}

func TestJournalImportRejectsBadFrontMatter(t *testing.T) {
	journal := NewJournalHandler(service.NewJournalService(nil, markdown.NewParser(), nil, nil))

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "today.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("---\nmood: happy\n---\nSlept well.\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/journal/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	journal.Import(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp render.ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "invalid front matter")
}

func TestQueryTime(t *testing.T) {
	def := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := queryTime(httptest.NewRequest(http.MethodGet, "/?from=2026-03-11T12:00:00Z", nil), "from", def)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC), got)

	got, err = queryTime(httptest.NewRequest(http.MethodGet, "/", nil), "from", def)
	require.NoError(t, err)
	assert.Equal(t, def, got)

	_, err = queryTime(httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil), "from", def)
	assert.ErrorIs(t, err, validation.ErrTimestampInvalid)
}

func TestPage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<div id=app></div>"), 0o644))

	page := NewPageHandler(dir, "KoruSync")

	rec := httptest.NewRecorder()
	page.Page(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "id=app")

	rec = httptest.NewRecorder()
	page.Page(rec, httptest.NewRequest(http.MethodPost, "/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	NewPageHandler("", "KoruSync").Page(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "KoruSync\n", rec.Body.String())
}
