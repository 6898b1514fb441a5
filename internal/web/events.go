package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evcraddock/estate-browser/internal/calendar"
	"github.com/evcraddock/estate-browser/internal/client"
)

// handleEvents returns the building's calendar events as JSON.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, id int64) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v, err := s.loadBuilding(r.Context(), id)
	if errors.Is(err, client.ErrNotFound) {
		apiError(w, "building not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("loading building", "building_id", id, "error", err)
		apiError(w, "Error fetching apartments", http.StatusBadGateway)
		return
	}
	if v.BookingsErr != nil {
		slog.Error("listing bookings", "building_id", id, "error", v.BookingsErr)
		apiError(w, "Error fetching bookings", http.StatusBadGateway)
		return
	}

	apiJSON(w, calendar.Events(v.Bookings, v.Building), http.StatusOK)
}

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}
