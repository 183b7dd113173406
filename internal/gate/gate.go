// Package gate decides where a visitor may go based on how far their
// account setup has progressed.
package gate

import "strings"

const (
	LoginPath      = "/login"
	VerifyOTPPath  = "/verify-otp"
	OnboardingPath = "/onboarding"
	DashboardPath  = "/dashboard"
)

type RouteKind int

const (
	Public RouteKind = iota
	Auth
	Onboarding
	Protected
)

func (k RouteKind) String() string {
	switch k {
	case Auth:
		return "auth"
	case Onboarding:
		return "onboarding"
	case Protected:
		return "protected"
	default:
		return "public"
	}
}

var authPaths = map[string]bool{
	"/login":           true,
	"/signup":          true,
	"/verify-otp":      true,
	"/forgot-password": true,
	"/reset-password":  true,
}

// Classify maps a page path to its route kind. Unknown paths are public.
func Classify(path string) RouteKind {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	switch {
	case authPaths[path]:
		return Auth
	case path == OnboardingPath || strings.HasPrefix(path, OnboardingPath+"/"):
		return Onboarding
	case hasSegmentPrefix(path, DashboardPath), hasSegmentPrefix(path, "/settings"):
		return Protected
	}
	return Public
}

func hasSegmentPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// State is what the gate knows about the visitor.
type State struct {
	Authenticated       bool
	EmailVerified       bool
	OnboardingCompleted bool
}

// Decision is either Allow or a Redirect target.
type Decision struct {
	Allow    bool
	Redirect string
}

func allow() Decision             { return Decision{Allow: true} }
func redirect(to string) Decision { return Decision{Redirect: to} }

// Decide applies the checks in a fixed order: signed out, unverified,
// onboarding incomplete, then fully set up. The first matching rule wins.
func Decide(s State, path string) Decision {
	kind := Classify(path)
	clean := strings.TrimSuffix(path, "/")

	if !s.Authenticated {
		if kind == Protected || kind == Onboarding {
			return redirect(LoginPath)
		}
		return allow()
	}

	if !s.EmailVerified {
		if kind == Public || clean == VerifyOTPPath {
			return allow()
		}
		return redirect(VerifyOTPPath)
	}

	if !s.OnboardingCompleted {
		if kind == Public || kind == Onboarding {
			return allow()
		}
		return redirect(OnboardingPath)
	}

	if kind == Auth || kind == Onboarding {
		return redirect(DashboardPath)
	}

	return allow()
}

// Home is where a visitor in state s belongs after signing in.
func Home(s State) string {
	switch {
	case !s.Authenticated:
		return LoginPath
	case !s.EmailVerified:
		return VerifyOTPPath
	case !s.OnboardingCompleted:
		return OnboardingPath
	}
	return DashboardPath
}
