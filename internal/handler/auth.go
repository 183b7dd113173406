package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/korusync/korusync/internal/config"
	"github.com/korusync/korusync/internal/ctxkeys"
	"github.com/korusync/korusync/internal/gate"
	"github.com/korusync/korusync/internal/metrics"
	"github.com/korusync/korusync/internal/middleware"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const oauthStateCookie = "oauth_state"

// oauthProvider pairs an OAuth config with the call that reads the
// verified email address once the code is exchanged.
type oauthProvider struct {
	config *oauth2.Config
	email  func(ctx context.Context, client *http.Client) (string, error)
}

type AuthHandler struct {
	authService    *service.AuthService
	sessions       *service.SessionService
	profileService *service.ProfileService
	providers      map[string]*oauthProvider
}

func NewAuthHandler(authService *service.AuthService, sessions *service.SessionService, profileService *service.ProfileService, cfg *config.Config) *AuthHandler {
	providers := map[string]*oauthProvider{}
	if cfg.GoogleClientID != "" {
		providers["google"] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.AppURL + "/api/auth/oauth/google/callback",
				Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email"},
				Endpoint:     google.Endpoint,
			},
			email: googleEmail,
		}
	}
	if cfg.GitHubClientID != "" {
		providers["github"] = &oauthProvider{
			config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  cfg.AppURL + "/api/auth/oauth/github/callback",
				Scopes:       []string{"user:email"},
				Endpoint:     github.Endpoint,
			},
			email: githubEmail,
		}
	}

	return &AuthHandler{
		authService:    authService,
		sessions:       sessions,
		profileService: profileService,
		providers:      providers,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User *model.User `json:"user"`
	Next string      `json:"next"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	err := render.Decode(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.authService.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	err = startSession(w, r, h.sessions, user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusCreated, userResponse{User: user, Next: gate.VerifyOTPPath})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	err := render.Decode(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	err = startSession(w, r, h.sessions, user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, userResponse{User: user, Next: h.home(user)})
}

// Logout revokes the refresh session if there is one. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(service.RefreshTokenCookie); err == nil && cookie.Value != "" {
		err = h.sessions.Revoke(cookie.Value)
		if err != nil {
			slog.Error("failed to revoke session", "error", err)
		}
	}
	h.sessions.ClearSessionCookies(w)
	render.NoContent(w)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	err := render.Decode(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.authService.VerifyOTP(userID(r), req.Code)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, userResponse{User: user, Next: h.home(user)})
}

type resendResponse struct {
	RetryAfterSeconds int `json:"retry_after_seconds"`
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	wait, err := h.authService.ResendOTP(r.Context(), userID(r))
	seconds := int(math.Ceil(wait.Seconds()))
	if errors.Is(err, service.ErrCooldownActive) {
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		render.JSON(w, http.StatusTooManyRequests, struct {
			render.ErrorBody
			resendResponse
		}{render.ErrorBody{Error: err.Error()}, resendResponse{RetryAfterSeconds: seconds}})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, resendResponse{RetryAfterSeconds: seconds})
}

// ForgotPassword answers 202 whether or not the address has an account.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	err := render.Decode(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	err = h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists for that address, a reset code is on its way.",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Code     string `json:"code"`
		Password string `json:"password"`
	}
	err := render.Decode(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	user, err := h.authService.ResetPassword(req.Email, req.Code, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Every old session was revoked; this browser gets a fresh one.
	err = startSession(w, r, h.sessions, user)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, userResponse{User: user, Next: h.home(user)})
}

type gateResponse struct {
	Authenticated       bool   `json:"authenticated"`
	EmailVerified       bool   `json:"email_verified"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	Home                string `json:"home"`
}

type sessionResponse struct {
	User        *model.User        `json:"user"`
	Profile     *model.Profile     `json:"profile"`
	Preferences *model.Preferences `json:"preferences"`
	Gate        gateResponse       `json:"gate"`
	CSRFToken   string             `json:"csrf_token"`
	Providers   []string           `json:"oauth_providers"`
}

// Session describes the visitor, signed in or not, so the client can route
// itself the same way the page gate would.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := middleware.GateState(ctx)

	providers := make([]string, 0, len(h.providers))
	for _, name := range []string{"google", "github"} {
		if h.providers[name] != nil {
			providers = append(providers, name)
		}
	}

	render.JSON(w, http.StatusOK, sessionResponse{
		User:        ctxkeys.User(ctx),
		Profile:     ctxkeys.Profile(ctx),
		Preferences: ctxkeys.Preferences(ctx),
		Gate: gateResponse{
			Authenticated:       state.Authenticated,
			EmailVerified:       state.EmailVerified,
			OnboardingCompleted: state.OnboardingCompleted,
			Home:                gate.Home(state),
		},
		CSRFToken: ctxkeys.CSRFToken(ctx),
		Providers: providers,
	})
}

// OAuthStart redirects to the provider's consent screen.
func (h *AuthHandler) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[r.PathValue("provider")]
	if !ok {
		render.Error(w, http.StatusNotFound, "unknown sign-in provider")
		return
	}

	state, err := generateOAuthState()
	if err != nil {
		respondError(w, r, err)
		return
	}

	cfg := ctxkeys.Config(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg != nil && cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	http.Redirect(w, r, provider.config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// OAuthCallback finishes the browser flow. Failures land back on the
// login page with an error flag since this is a navigation, not an XHR.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	provider, ok := h.providers[name]
	if !ok {
		render.Error(w, http.StatusNotFound, "unknown sign-in provider")
		return
	}

	fail := func(msg string, args ...any) {
		slog.Warn(msg, append(args, "provider", name)...)
		http.Redirect(w, r, gate.LoginPath+"?error=oauth", http.StatusSeeOther)
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		fail("oauth state validation failed", "error", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		fail("oauth callback missing code")
		return
	}

	token, err := provider.config.Exchange(r.Context(), code)
	if err != nil {
		fail("oauth token exchange failed", "error", err)
		return
	}

	email, err := provider.email(r.Context(), provider.config.Client(r.Context(), token))
	if err != nil {
		fail("failed to read oauth email", "error", err)
		return
	}

	user, err := h.authService.AuthenticateOAuth(email, name)
	if err != nil {
		fail("oauth authentication failed", "error", err)
		return
	}

	err = startSession(w, r, h.sessions, user)
	if err != nil {
		fail("failed to start session", "error", err, "user_id", user.ID)
		return
	}

	metrics.IncrementLogin(name)
	slog.Info("user logged in with oauth", "user_id", user.ID, "provider", name)
	http.Redirect(w, r, h.home(user), http.StatusSeeOther)
}

// home picks the landing page for a user who just signed in.
func (h *AuthHandler) home(user *model.User) string {
	state := gate.State{Authenticated: true, EmailVerified: user.IsVerified()}
	if state.EmailVerified {
		prefs, err := h.profileService.Preferences(user.ID)
		if err != nil {
			slog.Warn("failed to check onboarding status", "error", err, "user_id", user.ID)
		} else {
			state.OnboardingCompleted = prefs.OnboardingCompleted
		}
	}
	return gate.Home(state)
}

func googleEmail(ctx context.Context, client *http.Client) (string, error) {
	var info struct {
		Email string `json:"email"`
	}
	err := getJSON(ctx, client, "https://www.googleapis.com/oauth2/v2/userinfo", &info)
	if err != nil {
		return "", err
	}
	if info.Email == "" {
		return "", errors.New("google returned no email")
	}
	return info.Email, nil
}

// githubEmail falls back to /user/emails when the profile email is private.
func githubEmail(ctx context.Context, client *http.Client) (string, error) {
	var info struct {
		Email string `json:"email"`
	}
	err := getJSON(ctx, client, "https://api.github.com/user", &info)
	if err != nil {
		return "", err
	}
	if info.Email != "" {
		return info.Email, nil
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	err = getJSON(ctx, client, "https://api.github.com/user/emails", &emails)
	if err != nil {
		return "", err
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", errors.New("github account has no verified primary email")
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// generateOAuthState creates the random state echoed back by the provider.
func generateOAuthState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
