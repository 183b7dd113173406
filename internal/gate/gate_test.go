package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want RouteKind
	}{
		{"/", Public},
		{"/healthz", Public},
		{"/login", Auth},
		{"/signup/", Auth},
		{"/verify-otp", Auth},
		{"/reset-password", Auth},
		{"/onboarding", Onboarding},
		{"/dashboard", Protected},
		{"/dashboard/tasks", Protected},
		{"/dashboards", Public},
		{"/settings", Protected},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.path))
		})
	}
}

func TestDecide(t *testing.T) {
	signedOut := State{}
	unverified := State{Authenticated: true}
	onboarding := State{Authenticated: true, EmailVerified: true}
	ready := State{Authenticated: true, EmailVerified: true, OnboardingCompleted: true}

	tests := []struct {
		name  string
		state State
		path  string
		want  Decision
	}{
		{"signed out on landing", signedOut, "/", Decision{Allow: true}},
		{"signed out on login", signedOut, "/login", Decision{Allow: true}},
		{"signed out on dashboard", signedOut, "/dashboard", Decision{Redirect: "/login"}},
		{"signed out on onboarding", signedOut, "/onboarding", Decision{Redirect: "/login"}},
		{"signed out on verify", signedOut, "/verify-otp", Decision{Allow: true}},

		{"unverified on verify", unverified, "/verify-otp", Decision{Allow: true}},
		{"unverified on landing", unverified, "/", Decision{Allow: true}},
		{"unverified on login", unverified, "/login", Decision{Redirect: "/verify-otp"}},
		{"unverified on dashboard", unverified, "/dashboard/goals", Decision{Redirect: "/verify-otp"}},
		{"unverified on onboarding", unverified, "/onboarding", Decision{Redirect: "/verify-otp"}},

		{"onboarding on onboarding", onboarding, "/onboarding", Decision{Allow: true}},
		{"onboarding on dashboard", onboarding, "/dashboard", Decision{Redirect: "/onboarding"}},
		{"onboarding on verify", onboarding, "/verify-otp", Decision{Redirect: "/onboarding"}},
		{"onboarding on settings", onboarding, "/settings", Decision{Redirect: "/onboarding"}},
		{"onboarding on landing", onboarding, "/", Decision{Allow: true}},

		{"ready on dashboard", ready, "/dashboard", Decision{Allow: true}},
		{"ready on login", ready, "/login", Decision{Redirect: "/dashboard"}},
		{"ready on verify", ready, "/verify-otp", Decision{Redirect: "/dashboard"}},
		{"ready on onboarding", ready, "/onboarding", Decision{Redirect: "/dashboard"}},
		{"ready on landing", ready, "/", Decision{Allow: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.state, tt.path))
		})
	}
}

// Verification is checked before onboarding even if the flags disagree.
func TestDecideOrderUnverifiedWins(t *testing.T) {
	s := State{Authenticated: true, OnboardingCompleted: true}
	assert.Equal(t, Decision{Redirect: "/verify-otp"}, Decide(s, "/dashboard"))
}

func TestHome(t *testing.T) {
	assert.Equal(t, "/login", Home(State{}))
	assert.Equal(t, "/verify-otp", Home(State{Authenticated: true}))
	assert.Equal(t, "/onboarding", Home(State{Authenticated: true, EmailVerified: true}))
	assert.Equal(t, "/dashboard", Home(State{Authenticated: true, EmailVerified: true, OnboardingCompleted: true}))

	// Every home is reachable for its own state.
	for _, s := range []State{
		{Authenticated: true},
		{Authenticated: true, EmailVerified: true},
		{Authenticated: true, EmailVerified: true, OnboardingCompleted: true},
	} {
		assert.True(t, Decide(s, Home(s)).Allow, "%+v", s)
	}
}
