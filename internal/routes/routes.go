package routes

import (
	"net/http"
	"time"

	"github.com/korusync/korusync/internal/app"
	"github.com/korusync/korusync/internal/handler"
	"github.com/korusync/korusync/internal/metrics"
	"github.com/korusync/korusync/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	page := handler.NewPageHandler(app.Cfg.StaticDir, app.Cfg.AppName)
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.SessionService, app.ProfileService, app.Cfg)
	onboarding := handler.NewOnboardingHandler(app.OnboardingService)
	dashboard := handler.NewDashboardHandler(app.DashboardService)
	pillar := handler.NewPillarHandler(app.PillarService)
	task := handler.NewTaskHandler(app.TaskService)
	timeEntry := handler.NewTimeEntryHandler(app.TimeEntryService)
	goal := handler.NewGoalHandler(app.GoalService)
	journal := handler.NewJournalHandler(app.JournalService)
	friend := handler.NewFriendHandler(app.FriendshipService)
	badge := handler.NewBadgeHandler(app.GamificationService)
	profile := handler.NewProfileHandler(app.ProfileService)
	account := handler.NewAccountHandler(app.UserService, app.FileService, app.SessionService)

	mux := http.NewServeMux()

	// ============================================================================
	// PAGES (session gate)
	// ============================================================================

	mux.Handle("GET /assets/", page.Assets())

	gated := middleware.SessionGate(http.HandlerFunc(page.Page))
	for _, path := range []string{
		"/{$}",
		"/login",
		"/signup",
		"/verify-otp",
		"/forgot-password",
		"/reset-password",
		"/onboarding",
		"/dashboard",
		"/dashboard/{path...}",
		"/settings",
		"/settings/{path...}",
	} {
		mux.Handle("GET "+path, gated)
	}

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// ============================================================================
	// AUTH API
	// ============================================================================

	// Auth - credential endpoints share one limiter per IP
	rateLimiter := middleware.RateLimitAuth()
	otpLimiter := middleware.RateLimit(middleware.NewRateLimiter(10, 15*time.Minute))

	mux.HandleFunc("GET /api/auth/session", auth.Session)
	mux.HandleFunc("POST /api/auth/signup", rateLimiter(auth.SignUp))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("POST /api/auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", rateLimiter(auth.ResetPassword))
	mux.HandleFunc("POST /api/auth/verify-otp", otpLimiter(middleware.RequireAuth(auth.VerifyOTP)))
	mux.HandleFunc("POST /api/auth/resend-otp", middleware.RequireAuth(auth.ResendOTP))

	// OAuth
	mux.HandleFunc("GET /api/auth/oauth/{provider}", rateLimiter(auth.OAuthStart))
	mux.HandleFunc("GET /api/auth/oauth/{provider}/callback", rateLimiter(auth.OAuthCallback))

	// ============================================================================
	// ONBOARDING API (verified, onboarding may be incomplete)
	// ============================================================================

	mux.HandleFunc("GET /api/onboarding", middleware.RequireVerified(onboarding.State))
	mux.HandleFunc("POST /api/onboarding/steps/{step}", middleware.RequireVerified(onboarding.Step))
	mux.HandleFunc("POST /api/onboarding/complete", middleware.RequireVerified(onboarding.Complete))
	mux.HandleFunc("GET /api/onboarding/username-available", middleware.RequireVerified(onboarding.UsernameAvailable))
	mux.HandleFunc("GET /api/onboarding/suggestions", middleware.RequireVerified(onboarding.Suggestions))

	// ============================================================================
	// APP API (fully set up)
	// ============================================================================

	ready := middleware.RequireOnboarded

	// Dashboard
	mux.HandleFunc("GET /api/dashboard", ready(dashboard.Dashboard))
	mux.HandleFunc("GET /api/dashboard/focus", ready(dashboard.Focus))
	mux.HandleFunc("GET /api/dashboard/streak", ready(dashboard.Streak))
	mux.HandleFunc("GET /api/dashboard/balance", ready(dashboard.Balance))

	// Pillars
	mux.HandleFunc("GET /api/pillars", ready(pillar.List))
	mux.HandleFunc("POST /api/pillars", ready(pillar.Create))
	mux.HandleFunc("PATCH /api/pillars/{id}", ready(pillar.Update))
	mux.HandleFunc("DELETE /api/pillars/{id}", ready(pillar.Delete))

	// Tasks
	mux.HandleFunc("GET /api/tasks", ready(task.List))
	mux.HandleFunc("POST /api/tasks", ready(task.Create))
	mux.HandleFunc("GET /api/tasks/{id}", ready(task.Get))
	mux.HandleFunc("PATCH /api/tasks/{id}", ready(task.Update))
	mux.HandleFunc("POST /api/tasks/{id}/complete", ready(task.Complete))
	mux.HandleFunc("POST /api/tasks/{id}/reopen", ready(task.Reopen))
	mux.HandleFunc("DELETE /api/tasks/{id}", ready(task.Delete))

	// Time entries
	mux.HandleFunc("GET /api/time-entries", ready(timeEntry.List))
	mux.HandleFunc("POST /api/time-entries", ready(timeEntry.Create))
	mux.HandleFunc("GET /api/time-entries/running", ready(timeEntry.Running))
	mux.HandleFunc("POST /api/time-entries/start", ready(timeEntry.Start))
	mux.HandleFunc("POST /api/time-entries/{id}/stop", ready(timeEntry.Stop))
	mux.HandleFunc("DELETE /api/time-entries/{id}", ready(timeEntry.Delete))

	// Goals
	mux.HandleFunc("GET /api/goals", ready(goal.List))
	mux.HandleFunc("GET /api/goals/export", ready(goal.Export))
	mux.HandleFunc("POST /api/goals", ready(goal.Create))
	mux.HandleFunc("GET /api/goals/{id}", ready(goal.Get))
	mux.HandleFunc("PATCH /api/goals/{id}", ready(goal.Update))
	mux.HandleFunc("POST /api/goals/{id}/check-ins", ready(goal.CheckIn))
	mux.HandleFunc("DELETE /api/goals/{id}/check-ins/last", ready(goal.Undo))
	mux.HandleFunc("DELETE /api/goals/{id}", ready(goal.Delete))

	// Journal
	mux.HandleFunc("GET /api/journal", ready(journal.List))
	mux.HandleFunc("POST /api/journal", ready(journal.Create))
	mux.HandleFunc("POST /api/journal/import", ready(journal.Import))
	mux.HandleFunc("GET /api/journal/{id}", ready(journal.Get))
	mux.HandleFunc("PATCH /api/journal/{id}", ready(journal.Update))
	mux.HandleFunc("DELETE /api/journal/{id}", ready(journal.Delete))

	// Friends & badges
	mux.HandleFunc("GET /api/friends", ready(friend.List))
	mux.HandleFunc("GET /api/friends/pending", ready(friend.Pending))
	mux.HandleFunc("POST /api/friends", ready(friend.Request))
	mux.HandleFunc("POST /api/friends/{id}/accept", ready(friend.Accept))
	mux.HandleFunc("POST /api/friends/{id}/decline", ready(friend.Decline))
	mux.HandleFunc("DELETE /api/friends/{id}", ready(friend.Remove))
	mux.HandleFunc("GET /api/badges", ready(badge.List))

	// Profile & preferences
	mux.HandleFunc("GET /api/profile", ready(profile.Profile))
	mux.HandleFunc("PATCH /api/profile", ready(profile.UpdateProfile))
	mux.HandleFunc("GET /api/preferences", ready(profile.Preferences))
	mux.HandleFunc("PATCH /api/preferences", ready(profile.UpdatePreferences))

	// Account (Security & Identity)
	mux.HandleFunc("POST /api/profile/avatar", ready(account.UploadAvatar))
	mux.HandleFunc("DELETE /api/profile/avatar", ready(account.DeleteAvatar))
	mux.HandleFunc("PUT /api/account/password", ready(account.ChangePassword))
	// Any signed-in user may delete their account, set up or not.
	mux.HandleFunc("DELETE /api/account", middleware.RequireAuth(account.DeleteAccount))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/api/", page.NotFound)
	mux.Handle("/{path...}", gated)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (needed by SecurityHeaders)
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection, // Double-submit check for state-changing /api requests
		middleware.Session(app.SessionService, app.UserService, app.ProfileService),
		middleware.Metrics, // Innermost so the matched pattern is set
	)

	return handler
}
