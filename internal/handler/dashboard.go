package handler

import (
	"net/http"
	"time"

	"github.com/korusync/korusync/internal/render"
	"github.com/korusync/korusync/internal/service"
)

// DashboardHandler serves the aggregate and one endpoint per widget so the
// client can refresh a single widget.
type DashboardHandler struct {
	dashboardService *service.DashboardService
	now              func() time.Time
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		now:              time.Now,
	}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, h.dashboardService.Dashboard(userID(r), h.now()))
}

func (h *DashboardHandler) Focus(w http.ResponseWriter, r *http.Request) {
	focus, err := h.dashboardService.FocusTime(userID(r), h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, focus)
}

func (h *DashboardHandler) Streak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.dashboardService.Streak(userID(r), h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, streak)
}

func (h *DashboardHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.dashboardService.BalanceScore(userID(r), h.now())
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, balance)
}
