package handler

import (
	"net/http"

	"github.com/korusync/korusync/internal/gate"
	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/onboarding"
	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/service"
	"github.com/korusync/korusync/internal/validation"
)

type OnboardingHandler struct {
	onboardingService *service.OnboardingService
}

func NewOnboardingHandler(onboardingService *service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{
		onboardingService: onboardingService,
	}
}

func (h *OnboardingHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.onboardingService.State(userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, state)
}

type completeResponse struct {
	Profile *model.Profile  `json:"profile"`
	Pillars []*model.Pillar `json:"pillars"`
	Next    string          `json:"next"`
}

// Complete submits every wizard step at once.
func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var sub onboarding.Submission
	err := render.Decode(w, r, &sub)
	if err != nil {
		respondError(w, r, err)
		return
	}

	profile, pillars, err := h.onboardingService.Complete(userID(r), sub)
	if err != nil {
		respondError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, completeResponse{Profile: profile, Pillars: pillars, Next: gate.DashboardPath})
}

// Step checks one wizard step, plus the answers before it, so the client
// can show errors before the final submit.
func (h *OnboardingHandler) Step(w http.ResponseWriter, r *http.Request) {
	var sub onboarding.Submission
	err := render.Decode(w, r, &sub)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.onboardingService.CheckStep(userID(r), r.PathValue("step"), sub)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, result)
}

type usernameResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// UsernameAvailable answers 200 for malformed names too; the reason says why
// the name cannot be used.
func (h *OnboardingHandler) UsernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	resp := usernameResponse{Username: username}
	available, err := h.onboardingService.UsernameAvailable(userID(r), username)
	switch {
	case validation.IsInvalid(err):
		resp.Reason = err.Error()
	case err != nil:
		respondError(w, r, err)
		return
	default:
		resp.Available = available
		if !available {
			resp.Reason = service.ErrUsernameTaken.Error()
		}
	}

	render.JSON(w, http.StatusOK, resp)
}

func (h *OnboardingHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, h.onboardingService.Suggestions())
}
