package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/models"
	syncengine "github.com/fariasdev/mycar-sync/internal/sync"
)

// HistoryHandler exposes local-first history CRUD. History is append and
// delete only.
type HistoryHandler struct {
	engine  *syncengine.Engine
	history db.HistoryCollection
}

// NewHistoryHandler creates a history handler.
func NewHistoryHandler(engine *syncengine.Engine, history db.HistoryCollection) *HistoryHandler {
	return &HistoryHandler{engine: engine, history: history}
}

type historyRequest struct {
	CarID             string   `json:"car_id"`
	TaskType          string   `json:"task_type"`
	ServiceDateMillis int64    `json:"service_date_millis"`
	MileageKm         *int     `json:"mileage_km,omitempty"`
	WorkshopName      string   `json:"workshop_name,omitempty"`
	Cost              *float64 `json:"cost,omitempty"`
	Notes             string   `json:"notes,omitempty"`
}

// History handles /api/history: GET lists records for a car, POST adds a
// manual record.
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		carID := r.URL.Query().Get("car_id")
		if carID == "" {
			http.Error(w, "car_id is required", http.StatusBadRequest)
			return
		}
		records, err := h.history.ListHistoryForCar(r.Context(), carID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		var req historyRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.CarID == "" || req.ServiceDateMillis == 0 {
			http.Error(w, "car_id and service_date_millis are required", http.StatusBadRequest)
			return
		}
		record, err := h.engine.AddHistoryRecord(r.Context(), models.MaintenanceHistory{
			CarID:             req.CarID,
			TaskType:          req.TaskType,
			ServiceDateMillis: req.ServiceDateMillis,
			MileageKm:         req.MileageKm,
			WorkshopName:      req.WorkshopName,
			Cost:              req.Cost,
			Notes:             req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, record)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HistoryByID handles /api/history/{id}: GET and DELETE.
func (h *HistoryHandler) HistoryByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid history id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		record, err := h.history.GetHistoryByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)

	case http.MethodDelete:
		if err := h.engine.DeleteHistoryRecord(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
