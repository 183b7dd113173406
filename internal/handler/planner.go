package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/korusync/korusync/internal/model"
	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/repository"
	"github.com/korusync/korusync/internal/service"
	"github.com/korusync/korusync/internal/validation"
)

type PillarHandler struct {
	pillarService *service.PillarService
}

func NewPillarHandler(pillarService *service.PillarService) *PillarHandler {
	return &PillarHandler{pillarService: pillarService}
}

func (h *PillarHandler) List(w http.ResponseWriter, r *http.Request) {
	pillars, err := h.pillarService.Pillars(userID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, pillars)
}

func (h *PillarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in validation.PillarInput
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	pillar, err := h.pillarService.Create(userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, pillar)
}

func (h *PillarHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.PillarUpdate
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	pillar, err := h.pillarService.Update(userID(r), r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, pillar)
}

// Delete unlinks the pillar's tasks, time entries and goals.
func (h *PillarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.pillarService.Delete(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// List filters by ?status=, ?pillar_id= and ?due_before= (RFC 3339).
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.TaskFilter{
		Status:   q.Get("status"),
		PillarID: q.Get("pillar_id"),
	}

	dueBefore, err := queryTime(r, "due_before", time.Time{})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !dueBefore.IsZero() {
		filter.DueBefore = &dueBefore
	}

	tasks, err := h.taskService.Tasks(userID(r), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.ByID(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.TaskInput
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	task, err := h.taskService.Create(userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.TaskUpdate
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	task, err := h.taskService.Update(userID(r), r.PathValue("id"), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	result, err := h.taskService.Complete(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, result)
}

func (h *TaskHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.Reopen(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.taskService.Delete(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}

// defaultEntryRange is the window listed when the client sends no bounds.
const defaultEntryRange = 7 * 24 * time.Hour

type TimeEntryHandler struct {
	timeEntryService *service.TimeEntryService
	now              func() time.Time
}

func NewTimeEntryHandler(timeEntryService *service.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{timeEntryService: timeEntryService, now: time.Now}
}

// List returns entries overlapping ?from= and ?to= (RFC 3339), defaulting
// to the last seven days.
func (h *TimeEntryHandler) List(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	to, err := queryTime(r, "to", now)
	if err != nil {
		respondError(w, r, err)
		return
	}
	from, err := queryTime(r, "from", to.Add(-defaultEntryRange))
	if err != nil {
		respondError(w, r, err)
		return
	}

	entries, err := h.timeEntryService.List(userID(r), from, to)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, entries)
}

// Running answers null when no timer is running.
func (h *TimeEntryHandler) Running(w http.ResponseWriter, r *http.Request) {
	entry, err := h.timeEntryService.Running(userID(r))
	if errors.Is(err, repository.ErrTimeEntryNotFound) {
		render.JSON(w, http.StatusOK, map[string]any{"entry": nil})
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (h *TimeEntryHandler) Start(w http.ResponseWriter, r *http.Request) {
	var in service.TimerInput
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	entry, err := h.timeEntryService.Start(userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, entry)
}

func (h *TimeEntryHandler) Stop(w http.ResponseWriter, r *http.Request) {
	result, err := h.timeEntryService.Stop(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, result)
}

// Create logs a finished session after the fact.
func (h *TimeEntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ManualEntryInput
	err := render.Decode(w, r, &in)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := h.timeEntryService.Create(userID(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, result)
}

func (h *TimeEntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.timeEntryService.Delete(userID(r), r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.NoContent(w)
}
