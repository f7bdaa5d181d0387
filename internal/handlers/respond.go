package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fariasdev/mycar-sync/internal/db"
	syncengine "github.com/fariasdev/mycar-sync/internal/sync"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps store and sync errors to HTTP statuses. Remote trouble
// surfaces as 502/503 while the local data stays served.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, db.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	if kind, ok := syncengine.KindOf(err); ok {
		switch kind {
		case syncengine.KindNetwork:
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Kind: kind.String()})
		case syncengine.KindRemoteRejected:
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Kind: kind.String()})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: kind.String()})
		}
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
