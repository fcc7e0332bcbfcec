package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/middleware"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

// createOrderRequest is the inbound payload for POST /service-orders.
type createOrderRequest struct {
	VehicleID   uuid.UUID `json:"vehicle_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Odometer    int64     `json:"odometer"`
}

// updateOrderStatusRequest carries a status transition.
type updateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// orderListResponse is the paginated envelope for GET /service-orders.
type orderListResponse struct {
	Data       []domain.ServiceOrder `json:"data"`
	Pagination pagination            `json:"pagination"`
}

// CreateOrder handles POST /api/v1/service-orders.
func (s *Server) CreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "caller identity is required")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body")
		return
	}

	order, err := s.orders.Create(r.Context(), domain.ServiceOrder{
		VehicleID:   req.VehicleID,
		OpenedBy:    caller,
		Title:       req.Title,
		Description: req.Description,
		Odometer:    req.Odometer,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/v1/service-orders/{orderID}.
func (s *Server) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid order id")
		return
	}

	order, err := s.orders.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/service-orders.
// Supports ?vehicle_id=, ?status=, ?page=, ?limit=.
func (s *Server) ListOrders(w http.ResponseWriter, r *http.Request) {
	var filter repo.OrderFilter

	if v := r.URL.Query().Get("vehicle_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid vehicle_id")
			return
		}
		filter.VehicleID = &id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.OrderStatus(v)
		if !status.Valid() {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid status")
			return
		}
		filter.Status = &status
	}

	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))

	orders, total, err := s.orders.List(r.Context(), filter, params)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Data:       orders,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total},
	})
}

// UpdateOrderStatus handles PATCH /api/v1/service-orders/{orderID}/status.
func (s *Server) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid order id")
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body")
		return
	}

	order, err := s.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
