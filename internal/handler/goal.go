package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/service"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

// List sorts by ?sort=recent|progress|title.
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if sortBy == "" {
		sortBy = "recent"
	}

	goals, err := h.goalService.Goals(userID(r), sortBy)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, goals)
}

type goalDetail struct {
	Goal    *model.Goal        `json:"goal"`
	Entries []*model.GoalEntry `json:"entries"`
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, entries, err := h.goalService.GoalWithEntries(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, goalDetail{Goal: goal, Entries: entries})
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.GoalInput
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	goal, err := h.goalService.Create(userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.GoalUpdate
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	goal, err := h.goalService.Update(userID(r), r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, goal)
}

// CheckIn accepts an empty body as a check-in of one.
func (h *GoalHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var in service.CheckInInput
	if r.ContentLength != 0 {
		err := render.Decode(w, r, &in)
		if err != nil {
			respondError(w, r, err)
			return
		}
	}

	result, err := h.goalService.CheckIn(userID(r), r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, result)
}

func (h *GoalHandler) Undo(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.Undo(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.Delete(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}

// Export downloads every goal as a JSON attachment.
func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := userID(r)

	goals, err := h.goalService.Goals(id, "")
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=goals-export.json")

	enc := json.NewEncoder(w)
	enc.SetIndent("", strings.Repeat(" ", 2))
	err = enc.Encode(goals)
	if err != nil {
		slog.Error("failed to encode goals", "error", err, "user_id", id)
	}
}
