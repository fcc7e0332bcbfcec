package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/middleware"
)

// tripListResponse is the paginated envelope for GET /trips.
type tripListResponse struct {
	Data       []domain.Trip `json:"data"`
	Pagination pagination    `json:"pagination"`
}

// GetTrip handles GET /api/v1/trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid trip id")
		return
	}

	trip, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// ListTrips handles GET /api/v1/trips.
// Lists the caller's trips newest-first; supports ?vehicle_id=, ?page=, ?limit=.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "caller identity is required")
		return
	}

	var vehicleID *uuid.UUID
	if v := r.URL.Query().Get("vehicle_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid vehicle_id")
			return
		}
		vehicleID = &id
	}

	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	trips, total, err := s.trips.ListForUser(r.Context(), caller, vehicleID, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tripListResponse{
		Data:       trips,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}
