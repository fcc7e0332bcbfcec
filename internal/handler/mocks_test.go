package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/handler"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

// Hand-written servicer mocks with function fields; each test assigns only
// what it needs.

type mockPairingService struct {
	SubmitLegFunc func(ctx context.Context, leg domain.InspectionLeg) (domain.InspectionLeg, domain.Trip, error)
}

func (m *mockPairingService) SubmitLeg(ctx context.Context, leg domain.InspectionLeg) (domain.InspectionLeg, domain.Trip, error) {
	return m.SubmitLegFunc(ctx, leg)
}

type mockTripService struct {
	GetByIDFunc     func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListForUserFunc func(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

func (m *mockTripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockTripService) ListForUser(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.ListForUserFunc(ctx, userID, vehicleID, p)
}

type mockCustodyService struct {
	RequestTransferFunc func(ctx context.Context, vehicleID, toUserID uuid.UUID) (domain.KeyCustodyNode, error)
	ResolveTransferFunc func(ctx context.Context, callerID, nodeID uuid.UUID, resolution domain.TransferStatus) (domain.KeyCustodyNode, error)
	HistoryFunc         func(ctx context.Context, vehicleID uuid.UUID) ([]domain.KeyCustodyNode, error)
	PendingForFunc      func(ctx context.Context, holderID uuid.UUID) ([]domain.KeyCustodyNode, error)
}

func (m *mockCustodyService) RequestTransfer(ctx context.Context, vehicleID, toUserID uuid.UUID) (domain.KeyCustodyNode, error) {
	return m.RequestTransferFunc(ctx, vehicleID, toUserID)
}

func (m *mockCustodyService) ResolveTransfer(ctx context.Context, callerID, nodeID uuid.UUID, resolution domain.TransferStatus) (domain.KeyCustodyNode, error) {
	return m.ResolveTransferFunc(ctx, callerID, nodeID, resolution)
}

func (m *mockCustodyService) History(ctx context.Context, vehicleID uuid.UUID) ([]domain.KeyCustodyNode, error) {
	return m.HistoryFunc(ctx, vehicleID)
}

func (m *mockCustodyService) PendingFor(ctx context.Context, holderID uuid.UUID) ([]domain.KeyCustodyNode, error) {
	return m.PendingForFunc(ctx, holderID)
}

type mockOrderService struct {
	CreateFunc       func(ctx context.Context, order domain.ServiceOrder) (domain.ServiceOrder, error)
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (domain.ServiceOrder, error)
	ListFunc         func(ctx context.Context, f repo.OrderFilter, p domain.PaginationParams) ([]domain.ServiceOrder, int64, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.ServiceOrder, error)
}

func (m *mockOrderService) Create(ctx context.Context, order domain.ServiceOrder) (domain.ServiceOrder, error) {
	return m.CreateFunc(ctx, order)
}

func (m *mockOrderService) GetByID(ctx context.Context, id uuid.UUID) (domain.ServiceOrder, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockOrderService) List(ctx context.Context, f repo.OrderFilter, p domain.PaginationParams) ([]domain.ServiceOrder, int64, error) {
	return m.ListFunc(ctx, f, p)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.ServiceOrder, error) {
	return m.UpdateStatusFunc(ctx, id, status)
}

// serverOpt customizes the mock wiring for newTestServer.
type serverOpt func(*mocks)

type mocks struct {
	pairing *mockPairingService
	trips   *mockTripService
	custody *mockCustodyService
	orders  *mockOrderService
}

func withPairing(m *mockPairingService) serverOpt { return func(s *mocks) { s.pairing = m } }
func withTrips(m *mockTripService) serverOpt      { return func(s *mocks) { s.trips = m } }
func withCustody(m *mockCustodyService) serverOpt { return func(s *mocks) { s.custody = m } }
func withOrders(m *mockOrderService) serverOpt    { return func(s *mocks) { s.orders = m } }

// newTestServer builds the full router over mock services, so tests exercise
// routing, the identity middleware, and JSON mapping exactly as production does.
func newTestServer(opts ...serverOpt) http.Handler {
	m := &mocks{
		pairing: &mockPairingService{},
		trips:   &mockTripService{},
		custody: &mockCustodyService{},
		orders:  &mockOrderService{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return handler.NewServer(m.pairing, m.trips, m.custody, m.orders).Routes()
}

// doJSON performs a request with an optional JSON body and caller identity.
func doJSON(t *testing.T, h http.Handler, method, target string, caller uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	if caller != uuid.Nil {
		req.Header.Set("X-User-Id", caller.String())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals the recorded response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// errorCode extracts the machine-readable error code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.ErrorResponse
	decodeBody(t, rec, &resp)
	return resp.Error.Code
}
