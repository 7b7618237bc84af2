package handler

import (
	"net/http"

	"complianceai/internal/service"

	"github.com/rs/zerolog"
)

type DashboardHandler struct {
	base
	dashboard service.DashboardService
}

func NewDashboardHandler(dashboard service.DashboardService, production bool, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		base:      base{production: production, logger: logger.With().Str("handler", "DashboardHandler").Logger()},
		dashboard: dashboard,
	}
}

// RegisterRoutes mounts v1 dashboard routes
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("GET /dashboard/stats", authMw(http.HandlerFunc(h.stats)))
	mux.Handle("GET /dashboard/activity", authMw(http.HandlerFunc(h.activity)))
}

func (h *DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	stats, err := h.dashboard.Stats(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, stats)
}

func (h *DashboardHandler) activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	logs, err := h.dashboard.Activity(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, logs)
}
