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

// CarHandler exposes local-first car CRUD and current-car selection.
type CarHandler struct {
	engine *syncengine.Engine
	cars   db.CarCollection
}

// NewCarHandler creates a car handler.
func NewCarHandler(engine *syncengine.Engine, cars db.CarCollection) *CarHandler {
	return &CarHandler{engine: engine, cars: cars}
}

type carRequest struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Plate string `json:"plate,omitempty"`
}

// Cars handles /api/cars: GET lists cars, POST adds one.
func (h *CarHandler) Cars(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cars, err := h.cars.ListCars(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cars)

	case http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		var req carRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		car, err := h.engine.AddCarLocal(r.Context(), models.UserCar{
			Name:  req.Name,
			Brand: req.Brand,
			Model: req.Model,
			Year:  req.Year,
			Plate: req.Plate,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, car)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// CarByID handles /api/cars/{id}: GET, PUT, DELETE, and POST on the
// /select suffix for current-car selection.
func (h *CarHandler) CarByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/cars/")
	if selectID, ok := strings.CutSuffix(id, "/select"); ok {
		h.selectCar(w, r, selectID)
		return
	}
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid car id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		car, err := h.cars.GetCarByID(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, car)

	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request body", http.StatusBadRequest)
			return
		}
		var req carRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		car, err := h.engine.UpdateCarLocal(r.Context(), models.UserCar{
			ID:    id,
			Name:  req.Name,
			Brand: req.Brand,
			Model: req.Model,
			Year:  req.Year,
			Plate: req.Plate,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, car)

	case http.MethodDelete:
		if err := h.engine.DeleteCarLocal(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CarHandler) selectCar(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.engine.SetCurrentCar(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
