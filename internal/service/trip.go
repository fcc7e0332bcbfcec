package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

// TripService is the read surface over trips for dashboards and audit views.
// All trip writes go through PairingService.
type TripService struct {
	trips repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(trips repo.TripRepo) *TripService {
	return &TripService{trips: trips}
}

// GetByID returns a single trip by ID.
// Returns domain.ErrNotFound if no trip with that ID exists.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// ListForUser returns the caller's trips newest-first, optionally filtered to
// one vehicle, with the total count for pagination.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListForUser(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.trips.ListByUser(ctx, userID, vehicleID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListForUser: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, total, nil
	}
	return trips, total, nil
}
