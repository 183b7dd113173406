package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name string `json:"name"`
}

func decode(body string) (payload, error) {
	var p payload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := Decode(httptest.NewRecorder(), req, &p)
	return p, err
}

func TestDecode(t *testing.T) {
	p, err := decode(`{"name":"ada"}`)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Name)

	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"name":"ada","admin":true}`},
		{"trailing data", `{"name":"ada"}{"name":"grace"}`},
		{"malformed", `{"name":`},
		{"empty", ``},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(tt.body)
			assert.ErrorIs(t, err, ErrBadRequestBody)
		})
	}
}

func TestRedirect(t *testing.T) {
	rec := httptest.NewRecorder()
	Redirect(rec, http.StatusForbidden, "onboarding required", "/onboarding")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, ErrorBody{Error: "onboarding required", Redirect: "/onboarding"}, body)
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
