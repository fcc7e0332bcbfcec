package service_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

// Hand-written mocks with function fields: each test assigns only the
// functions it needs, and unassigned calls panic loudly.

type mockLegRepo struct {
	CreateFunc  func(ctx context.Context, leg domain.InspectionLeg) (domain.InspectionLeg, error)
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (domain.InspectionLeg, error)
}

func (m *mockLegRepo) Create(ctx context.Context, leg domain.InspectionLeg) (domain.InspectionLeg, error) {
	return m.CreateFunc(ctx, leg)
}

func (m *mockLegRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.InspectionLeg, error) {
	return m.GetByIDFunc(ctx, id)
}

type mockTripRepo struct {
	CreateFunc            func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	FindOpenForUpdateFunc func(ctx context.Context, userID, vehicleID uuid.UUID) (domain.Trip, error)
	SetStartLegFunc       func(ctx context.Context, tripID, legID uuid.UUID) (domain.Trip, error)
	SetEndLegFunc         func(ctx context.Context, tripID, legID uuid.UUID) (domain.Trip, error)
	ListByUserFunc        func(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return m.CreateFunc(ctx, trip)
}

func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockTripRepo) FindOpenForUpdate(ctx context.Context, userID, vehicleID uuid.UUID) (domain.Trip, error) {
	return m.FindOpenForUpdateFunc(ctx, userID, vehicleID)
}

func (m *mockTripRepo) SetStartLeg(ctx context.Context, tripID, legID uuid.UUID) (domain.Trip, error) {
	return m.SetStartLegFunc(ctx, tripID, legID)
}

func (m *mockTripRepo) SetEndLeg(ctx context.Context, tripID, legID uuid.UUID) (domain.Trip, error) {
	return m.SetEndLegFunc(ctx, tripID, legID)
}

func (m *mockTripRepo) ListByUser(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.ListByUserFunc(ctx, userID, vehicleID, p)
}

type mockCustodyRepo struct {
	CreateFunc              func(ctx context.Context, node domain.KeyCustodyNode) (domain.KeyCustodyNode, error)
	GetByIDFunc             func(ctx context.Context, id uuid.UUID) (domain.KeyCustodyNode, error)
	HeadFunc                func(ctx context.Context, vehicleID uuid.UUID) (domain.KeyCustodyNode, error)
	ResolveFunc             func(ctx context.Context, nodeID uuid.UUID, status domain.TransferStatus) (domain.KeyCustodyNode, error)
	ListByVehicleFunc       func(ctx context.Context, vehicleID uuid.UUID) ([]domain.KeyCustodyNode, error)
	ListPendingByHolderFunc func(ctx context.Context, holderID uuid.UUID) ([]domain.KeyCustodyNode, error)
	LockVehicleFunc         func(ctx context.Context, vehicleID uuid.UUID) error
}

func (m *mockCustodyRepo) Create(ctx context.Context, node domain.KeyCustodyNode) (domain.KeyCustodyNode, error) {
	return m.CreateFunc(ctx, node)
}

func (m *mockCustodyRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.KeyCustodyNode, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockCustodyRepo) Head(ctx context.Context, vehicleID uuid.UUID) (domain.KeyCustodyNode, error) {
	return m.HeadFunc(ctx, vehicleID)
}

func (m *mockCustodyRepo) Resolve(ctx context.Context, nodeID uuid.UUID, status domain.TransferStatus) (domain.KeyCustodyNode, error) {
	return m.ResolveFunc(ctx, nodeID, status)
}

func (m *mockCustodyRepo) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]domain.KeyCustodyNode, error) {
	return m.ListByVehicleFunc(ctx, vehicleID)
}

func (m *mockCustodyRepo) ListPendingByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.KeyCustodyNode, error) {
	return m.ListPendingByHolderFunc(ctx, holderID)
}

func (m *mockCustodyRepo) LockVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	return m.LockVehicleFunc(ctx, vehicleID)
}

type mockOrderRepo struct {
	CreateFunc       func(ctx context.Context, order domain.ServiceOrder) (domain.ServiceOrder, error)
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (domain.ServiceOrder, error)
	ListFunc         func(ctx context.Context, f repo.OrderFilter, p domain.PaginationParams) ([]domain.ServiceOrder, int64, error)
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, expected, next domain.OrderStatus) (domain.ServiceOrder, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, order domain.ServiceOrder) (domain.ServiceOrder, error) {
	return m.CreateFunc(ctx, order)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ServiceOrder, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockOrderRepo) List(ctx context.Context, f repo.OrderFilter, p domain.PaginationParams) ([]domain.ServiceOrder, int64, error) {
	return m.ListFunc(ctx, f, p)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.OrderStatus) (domain.ServiceOrder, error) {
	return m.UpdateStatusFunc(ctx, id, expected, next)
}

// fakeTxManager hands the provided repos to fn without any real transaction.
// Errors from fn pass through unchanged, like business errors do in production.
// Calls records how many times WithTx ran, so tests can assert that validation
// failures never reach the store.
type fakeTxManager struct {
	Legs    repo.LegRepo
	Trips   repo.TripRepo
	Custody repo.CustodyRepo
	Calls   int
}

func (m *fakeTxManager) WithTx(_ context.Context, fn func(q repo.Queries) error) error {
	m.Calls++
	return fn(repo.Queries{Legs: m.Legs, Trips: m.Trips, Custody: m.Custody})
}
