// Package handler implements the HTTP handlers for the fleet logbook API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (leg.go, custody.go, etc.) but all share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/middleware"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

// PairingServicer defines the business operations the leg handler depends on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type PairingServicer interface {
	SubmitLeg(ctx context.Context, leg domain.InspectionLeg) (domain.InspectionLeg, domain.Trip, error)
}

// TripServicer defines the read operations the trip handler depends on.
type TripServicer interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListForUser(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

// CustodyServicer defines the custody chain operations the handler depends on.
type CustodyServicer interface {
	RequestTransfer(ctx context.Context, vehicleID, toUserID uuid.UUID) (domain.KeyCustodyNode, error)
	ResolveTransfer(ctx context.Context, callerID, nodeID uuid.UUID, resolution domain.TransferStatus) (domain.KeyCustodyNode, error)
	History(ctx context.Context, vehicleID uuid.UUID) ([]domain.KeyCustodyNode, error)
	PendingFor(ctx context.Context, holderID uuid.UUID) ([]domain.KeyCustodyNode, error)
}

// OrderServicer defines the service-order operations the handler depends on.
type OrderServicer interface {
	Create(ctx context.Context, order domain.ServiceOrder) (domain.ServiceOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ServiceOrder, error)
	List(ctx context.Context, f repo.OrderFilter, p domain.PaginationParams) ([]domain.ServiceOrder, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.ServiceOrder, error)
}

// Server holds the dependencies shared by all API endpoints.
type Server struct {
	pairing PairingServicer
	trips   TripServicer
	custody CustodyServicer
	orders  OrderServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(pairing PairingServicer, trips TripServicer, custody CustodyServicer, orders OrderServicer) *Server {
	return &Server{pairing: pairing, trips: trips, custody: custody, orders: orders}
}

// Routes builds the chi router for the full API surface. Health and the
// OpenAPI document are public; everything under /api/v1 requires a caller
// identity supplied by the identity middleware.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NewIdentity())

		r.Post("/legs", s.SubmitLeg)

		r.Get("/trips", s.ListTrips)
		r.Get("/trips/{tripID}", s.GetTrip)

		r.Post("/vehicles/{vehicleID}/custody/transfers", s.RequestTransfer)
		r.Get("/vehicles/{vehicleID}/custody/history", s.GetCustodyHistory)
		r.Post("/custody/transfers/{nodeID}/resolve", s.ResolveTransfer)
		r.Get("/custody/transfers/pending", s.ListPendingTransfers)

		r.Post("/service-orders", s.CreateOrder)
		r.Get("/service-orders", s.ListOrders)
		r.Get("/service-orders/{orderID}", s.GetOrder)
		r.Patch("/service-orders/{orderID}/status", s.UpdateOrderStatus)
	})

	return r
}

// pagination is the standard list-response envelope metadata.
type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// queryInt parses an optional integer query parameter, returning nil when the
// parameter is absent or not a number (the domain defaults then apply).
func queryInt(r *http.Request, key string) *int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
