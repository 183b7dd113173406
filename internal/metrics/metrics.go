// Package metrics registers Prometheus collectors for the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "korusync_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	SignupCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "korusync_signups_total",
			Help: "Accounts created",
		},
		[]string{"provider"}, // password, google, github
	)

	LoginCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "korusync_logins_total",
			Help: "Successful sign-ins",
		},
		[]string{"provider"},
	)

	OTPVerificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "korusync_otp_verifications_total",
			Help: "OTP verification attempts",
		},
		[]string{"result"}, // success, invalid, exhausted, expired
	)

	OnboardingCompletedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "korusync_onboarding_completed_total",
			Help: "Users who finished the onboarding wizard",
		},
	)

	FocusMinutes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "korusync_focus_minutes_total",
			Help: "Minutes logged through time entries",
		},
	)

	AccountDeletionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "korusync_account_deletions_total",
			Help: "Account deletion requests",
		},
		[]string{"status"}, // success, failed
	)

	GateRedirectCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "korusync_gate_redirects_total",
			Help: "Session gate redirects by target",
		},
		[]string{"target"},
	)
)

func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func IncrementSignup(provider string) {
	SignupCount.WithLabelValues(provider).Inc()
}

func IncrementLogin(provider string) {
	LoginCount.WithLabelValues(provider).Inc()
}

func IncrementOTPVerification(result string) {
	OTPVerificationCount.WithLabelValues(result).Inc()
}

func IncrementOnboardingCompleted() {
	OnboardingCompletedCount.Inc()
}

func AddFocusMinutes(minutes int) {
	if minutes > 0 {
		FocusMinutes.Add(float64(minutes))
	}
}

func IncrementAccountDeletion(status string) {
	AccountDeletionCount.WithLabelValues(status).Inc()
}

func IncrementGateRedirect(target string) {
	GateRedirectCount.WithLabelValues(target).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
