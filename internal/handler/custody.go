package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/middleware"
)

// requestTransferRequest is the inbound payload for a custody transfer request.
type requestTransferRequest struct {
	ToUserID uuid.UUID `json:"to_user_id"`
}

// resolveTransferRequest carries the recipient's accept/reject decision.
type resolveTransferRequest struct {
	Resolution domain.TransferStatus `json:"resolution"`
}

// custodyListResponse is the envelope for history and pending listings.
type custodyListResponse struct {
	Data []domain.KeyCustodyNode `json:"data"`
}

// RequestTransfer handles POST /api/v1/vehicles/{vehicleID}/custody/transfers.
func (s *Server) RequestTransfer(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := uuid.Parse(chi.URLParam(r, "vehicleID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid vehicle id")
		return
	}

	var req requestTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body")
		return
	}

	node, err := s.custody.RequestTransfer(r.Context(), vehicleID, req.ToUserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

// ResolveTransfer handles POST /api/v1/custody/transfers/{nodeID}/resolve.
func (s *Server) ResolveTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "caller identity is required")
		return
	}

	nodeID, err := uuid.Parse(chi.URLParam(r, "nodeID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid transfer id")
		return
	}

	var req resolveTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body")
		return
	}

	node, err := s.custody.ResolveTransfer(r.Context(), caller, nodeID, req.Resolution)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, node)
}

// GetCustodyHistory handles GET /api/v1/vehicles/{vehicleID}/custody/history.
func (s *Server) GetCustodyHistory(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := uuid.Parse(chi.URLParam(r, "vehicleID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid vehicle id")
		return
	}

	nodes, err := s.custody.History(r.Context(), vehicleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, custodyListResponse{Data: nodes})
}

// ListPendingTransfers handles GET /api/v1/custody/transfers/pending.
// Returns the PENDING transfers awaiting the caller's decision — the endpoint
// clients poll for the confirmation workflow.
func (s *Server) ListPendingTransfers(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "caller identity is required")
		return
	}

	nodes, err := s.custody.PendingFor(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, custodyListResponse{Data: nodes})
}
