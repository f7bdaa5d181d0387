package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fariasdev/mycar-sync/internal/db"
	"github.com/fariasdev/mycar-sync/internal/models"
	syncengine "github.com/fariasdev/mycar-sync/internal/sync"
)

// TaskHandler exposes local-first task CRUD. Every write lands in the local
// store immediately with a pending marker; nothing here waits on the
// network.
type TaskHandler struct {
	engine *syncengine.Engine
	tasks  db.TaskCollection
}

// NewTaskHandler creates a task handler.
func NewTaskHandler(engine *syncengine.Engine, tasks db.TaskCollection) *TaskHandler {
	return &TaskHandler{engine: engine, tasks: tasks}
}

type taskRequest struct {
	CarID         string          `json:"car_id"`
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	DueDateMillis *int64          `json:"due_date_millis,omitempty"`
	DueMileageKm  *int            `json:"due_mileage_km,omitempty"`
	Severity      models.Severity `json:"severity"`
}

// Tasks handles /api/tasks: GET lists tasks for a car, POST creates one.
func (h *TaskHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		carID := r.URL.Query().Get("car_id")
		if carID == "" {
			http.Error(w, "car_id is required", http.StatusBadRequest)
			return
		}
		tasks, err := h.tasks.ListTasksForCar(r.Context(), carID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		var req taskRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.CarID == "" || req.Title == "" {
			http.Error(w, "car_id and title are required", http.StatusBadRequest)
			return
		}
		task, err := h.engine.CreateTaskLocal(r.Context(), models.MaintenanceTask{
			CarID:         req.CarID,
			Type:          req.Type,
			Title:         req.Title,
			Description:   req.Description,
			DueDateMillis: req.DueDateMillis,
			DueMileageKm:  req.DueMileageKm,
			Severity:      req.Severity,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// TaskByID handles /api/tasks/{id}: GET, PUT, DELETE, and POST on the
// /complete suffix.
func (h *TaskHandler) TaskByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if completeID, ok := strings.CutSuffix(id, "/complete"); ok {
		h.complete(w, r, completeID)
		return
	}
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := h.tasks.GetTaskByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)

	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		var req taskRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		task, err := h.engine.UpdateTaskLocal(r.Context(), models.MaintenanceTask{
			ID:            id,
			Type:          req.Type,
			Title:         req.Title,
			Description:   req.Description,
			DueDateMillis: req.DueDateMillis,
			DueMileageKm:  req.DueMileageKm,
			Severity:      req.Severity,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)

	case http.MethodDelete:
		if err := h.engine.DeleteTaskLocal(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type completeRequest struct {
	CompletionMillis int64 `json:"completion_millis"`
}

func (h *TaskHandler) complete(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	var req completeRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}
	if req.CompletionMillis == 0 {
		req.CompletionMillis = time.Now().UnixMilli()
	}
	if err := h.engine.MarkTaskCompleted(r.Context(), id, req.CompletionMillis); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
