package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/middleware"
)

// submitLegRequest is the inbound payload for POST /legs.
// The submitting user is taken from the caller identity, never the body.
type submitLegRequest struct {
	VehicleID uuid.UUID        `json:"vehicle_id"`
	Kind      domain.LegKind   `json:"kind"`
	Odometer  int64            `json:"odometer"`
	Checklist domain.Checklist `json:"checklist"`
}

// submitLegResponse returns both the stored leg and the trip it paired into.
type submitLegResponse struct {
	Leg  domain.InspectionLeg `json:"leg"`
	Trip domain.Trip          `json:"trip"`
}

// SubmitLeg handles POST /api/v1/legs.
func (s *Server) SubmitLeg(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "caller identity is required")
		return
	}

	var req submitLegRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body")
		return
	}

	leg := domain.InspectionLeg{
		VehicleID: req.VehicleID,
		UserID:    caller,
		Kind:      req.Kind,
		Odometer:  req.Odometer,
		Checklist: req.Checklist,
	}

	created, trip, err := s.pairing.SubmitLeg(r.Context(), leg)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitLegResponse{Leg: created, Trip: trip})
}
