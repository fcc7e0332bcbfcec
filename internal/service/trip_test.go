package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/service"
)

func TestTripService_GetByID(t *testing.T) {
	tripID := uuid.New()
	trips := &mockTripRepo{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (domain.Trip, error) {
			assert.Equal(t, tripID, id)
			return domain.Trip{ID: id}, nil
		},
	}
	svc := service.NewTripService(trips)

	got, err := svc.GetByID(context.Background(), tripID)

	require.NoError(t, err)
	assert.Equal(t, tripID, got.ID)
}

func TestTripService_GetByID_NotFound(t *testing.T) {
	trips := &mockTripRepo{
		GetByIDFunc: func(_ context.Context, _ uuid.UUID) (domain.Trip, error) {
			return domain.Trip{}, domain.ErrNotFound
		},
	}
	svc := service.NewTripService(trips)

	_, err := svc.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTripService_ListForUser_PassesFilter(t *testing.T) {
	userID, vehicleID := uuid.New(), uuid.New()
	trips := &mockTripRepo{
		ListByUserFunc: func(_ context.Context, uid uuid.UUID, vid *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
			assert.Equal(t, userID, uid)
			require.NotNil(t, vid)
			assert.Equal(t, vehicleID, *vid)
			assert.Equal(t, 2, p.Page)
			return []domain.Trip{{ID: uuid.New()}}, 21, nil
		},
	}
	svc := service.NewTripService(trips)

	got, total, err := svc.ListForUser(context.Background(), userID, &vehicleID, domain.PaginationParams{Page: 2, Limit: 20})

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.EqualValues(t, 21, total)
}

func TestTripService_ListForUser_NeverNil(t *testing.T) {
	trips := &mockTripRepo{
		ListByUserFunc: func(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ domain.PaginationParams) ([]domain.Trip, int64, error) {
			return nil, 0, nil
		},
	}
	svc := service.NewTripService(trips)

	got, total, err := svc.ListForUser(context.Background(), uuid.New(), nil, domain.PaginationParams{Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Zero(t, total)
}
