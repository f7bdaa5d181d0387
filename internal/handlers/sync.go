package handlers

import (
	"context"
	"net/http"

	"github.com/fariasdev/mycar-sync/internal/alerts"
	"github.com/fariasdev/mycar-sync/internal/models"
)

// FullSyncRunner triggers one serialized full reconciliation.
type FullSyncRunner interface {
	RunFullSync(ctx context.Context) error
}

// SyncHandler exposes the on-demand sync trigger and the alert feed.
type SyncHandler struct {
	runner FullSyncRunner
	alerts *alerts.Service
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(runner FullSyncRunner, alertService *alerts.Service) *SyncHandler {
	return &SyncHandler{runner: runner, alerts: alertService}
}

// Sync handles POST /api/sync: a user-requested full sync. Unlike the
// background cadence, errors here are surfaced to the caller.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.runner.RunFullSync(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// Alerts handles GET /api/alerts: the current car's derived alert feed,
// regenerated on every request.
func (h *SyncHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if carID := r.URL.Query().Get("car_id"); carID != "" {
		feed, err := h.alerts.ForCar(r.Context(), carID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, feed)
		return
	}
	feed, err := h.alerts.ForCurrentCar(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if feed == nil {
		// No current car selected: empty feed, not an error.
		feed = []models.VehicleAlert{}
	}
	writeJSON(w, http.StatusOK, feed)
}
