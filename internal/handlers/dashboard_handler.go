package handlers

import (
	"net/http"

	"padelmanager/internal/service"
)

// DashboardHandler renders the overview page
type DashboardHandler struct {
	dashboardService *service.DashboardService
	view             *View
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *service.DashboardService, view *View) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, view: view}
}

// Dashboard renders totals, today's and upcoming lessons, and low balances
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	today := h.view.today()
	stats, err := h.dashboardService.Stats(today)
	if err != nil {
		h.view.serverError(w, "Error loading dashboard", err)
		return
	}

	h.view.render(w, "dashboard.tmpl", DashboardViewData{
		Page:  h.view.page(w, r, "Dashboard"),
		Today: today,
		Stats: stats,
	})
}
