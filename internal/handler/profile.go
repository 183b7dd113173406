package handler

import (
	"net/http"

	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profileService.ByUserID(userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, profile)
}

// UpdateProfile changes full name, username or timezone; omitted fields
// are kept.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileUpdate
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	profile, err := h.profileService.Update(userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.profileService.Preferences(userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, prefs)
}

func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var in service.PreferencesUpdate
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	prefs, err := h.profileService.UpdatePreferences(userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, prefs)
}
