package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/korusync/korusync/internal/app"
	"github.com/korusync/korusync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t      *testing.T
	base   string
	client *http.Client
	csrf   string
}

func newTestApp(t *testing.T) (*app.App, *testClient) {
	t.Helper()

	cfg := &config.Config{
		AppName:           "KoruSync",
		AppEnv:            "development",
		AppURL:            "http://localhost:8090",
		DBDriver:          "sqlite",
		DBConnection:      filepath.Join(t.TempDir(), "app.db") + "?_pragma=foreign_keys(1)",
		JWTSecret:         "test-secret",
		JWTExpiry:         15 * time.Minute,
		SessionExpiry:     24 * time.Hour,
		OTPExpiry:         10 * time.Minute,
		OTPLength:         6,
		OTPMaxAttempts:    5,
		OTPResendCooldown: time.Minute,
		EmailFrom:         "noreply@korusync.local",
		MetricsEnabled:    true,
	}

	a, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	srv := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return a, &testClient{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// do sends a request with the CSRF token picked up from earlier responses
// and decodes a JSON response into out when given.
func (c *testClient) do(method, path string, body any, out any) *http.Response {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}

	resp, err := c.client.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if token := resp.Header.Get("X-CSRF-Token"); token != "" {
		c.csrf = token
	}
	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type sessionBody struct {
	Gate struct {
		Authenticated       bool   `json:"authenticated"`
		EmailVerified       bool   `json:"email_verified"`
		OnboardingCompleted bool   `json:"onboarding_completed"`
		Home                string `json:"home"`
	} `json:"gate"`
	CSRFToken string `json:"csrf_token"`
}

func TestSignUpThroughDashboard(t *testing.T) {
	a, c := newTestApp(t)

	var session sessionBody
	resp := c.do(http.MethodGet, "/api/auth/session", nil, &session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, session.Gate.Authenticated)
	assert.Equal(t, "/login", session.Gate.Home)
	assert.Equal(t, c.csrf, session.CSRFToken)

	resp = c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse battery",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.do(http.MethodGet, "/dashboard", nil, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/verify-otp", resp.Header.Get("Location"))

	resp = c.do(http.MethodGet, "/api/onboarding", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, err := a.DB.Exec(`UPDATE users SET email_verified_at = $1 WHERE email = $2`, time.Now().UTC(), "ada@example.com")
	require.NoError(t, err)

	resp = c.do(http.MethodGet, "/dashboard", nil, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/onboarding", resp.Header.Get("Location"))

	resp = c.do(http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/onboarding/steps/username", map[string]string{"username": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var step struct {
		Next  string `json:"next"`
		Ready bool   `json:"ready"`
	}
	resp = c.do(http.MethodPost, "/api/onboarding/steps/pillars", map[string]any{
		"username": "ada",
		"timezone": "Europe/London",
		"pillars":  []map[string]string{{"name": "Health"}},
	}, &step)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "intro", step.Next)
	assert.True(t, step.Ready)

	resp = c.do(http.MethodPost, "/api/onboarding/steps/billing", map[string]any{}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/onboarding/complete", map[string]any{
		"username":  "ada",
		"full_name": "Ada Lovelace",
		"timezone":  "Europe/London",
		"pillars":   []map[string]string{{"name": "Health"}, {"name": "Career"}},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodGet, "/onboarding", nil, nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp = c.do(http.MethodGet, "/dashboard", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodGet, "/api/auth/session", nil, &session)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, session.Gate.OnboardingCompleted)
	assert.Equal(t, "/dashboard", session.Gate.Home)
}

func TestAPIRequiresCSRFToken(t *testing.T) {
	_, c := newTestApp(t)

	resp := c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "x"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The first GET hands out a token; the same request then reaches the handler.
	c.do(http.MethodGet, "/api/auth/session", nil, nil)
	resp = c.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "a@example.com", "password": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAccountDeletionSignsOut(t *testing.T) {
	_, c := newTestApp(t)

	c.do(http.MethodGet, "/api/auth/session", nil, nil)
	resp := c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse battery",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.do(http.MethodDelete, "/api/account", nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var session sessionBody
	c.do(http.MethodGet, "/api/auth/session", nil, &session)
	assert.False(t, session.Gate.Authenticated)

	resp = c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "correct horse battery",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOperationalRoutes(t *testing.T) {
	_, c := newTestApp(t)

	var health map[string]string
	resp := c.do(http.MethodGet, "/healthz", nil, &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])

	resp = c.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var notFound map[string]string
	resp = c.do(http.MethodGet, "/api/nope", nil, &notFound)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", notFound["error"])

	resp = c.do(http.MethodGet, "/", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
