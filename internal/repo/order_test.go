package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

func orderFixture(vehicleID uuid.UUID) domain.ServiceOrder {
	return domain.ServiceOrder{
		VehicleID:   vehicleID,
		OpenedBy:    uuid.New(),
		Title:       "brake pads worn",
		Description: "front pads below 3mm, replace both sides",
		Odometer:    51230,
	}
}

func TestOrderRepo_Create(t *testing.T) {
	r := repo.NewOrderRepo(newTestTx(t))
	ctx := context.Background()

	input := orderFixture(uuid.New())
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, input.VehicleID, got.VehicleID)
	assert.Equal(t, input.Title, got.Title)
	assert.Equal(t, domain.OrderOpen, got.Status, "new orders always start OPEN")
	assert.Nil(t, got.ClosedAt)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestOrderRepo_GetByID_NotFound(t *testing.T) {
	r := repo.NewOrderRepo(newTestTx(t))

	_, err := r.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepo_UpdateStatus(t *testing.T) {
	r := repo.NewOrderRepo(newTestTx(t))
	ctx := context.Background()

	created, err := r.Create(ctx, orderFixture(uuid.New()))
	require.NoError(t, err)

	inProgress, err := r.UpdateStatus(ctx, created.ID, domain.OrderOpen, domain.OrderInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInProgress, inProgress.Status)
	assert.Nil(t, inProgress.ClosedAt, "closed_at is only stamped on CLOSED")

	closed, err := r.UpdateStatus(ctx, created.ID, domain.OrderInProgress, domain.OrderClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.False(t, closed.ClosedAt.IsZero())
}

func TestOrderRepo_UpdateStatus_NotFound(t *testing.T) {
	r := repo.NewOrderRepo(newTestTx(t))

	_, err := r.UpdateStatus(context.Background(), uuid.New(), domain.OrderOpen, domain.OrderClosed)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrderRepo_UpdateStatus_StaleStatus(t *testing.T) {
	r := repo.NewOrderRepo(newTestTx(t))
	ctx := context.Background()

	created, err := r.Create(ctx, orderFixture(uuid.New()))
	require.NoError(t, err)

	_, err = r.UpdateStatus(ctx, created.ID, domain.OrderOpen, domain.OrderClosed)
	require.NoError(t, err)

	// A second caller that also read OPEN must match zero rows: the guard
	// keeps the closed order from being dragged back to IN_PROGRESS.
	_, err = r.UpdateStatus(ctx, created.ID, domain.OrderOpen, domain.OrderInProgress)
	assert.ErrorIs(t, err, domain.ErrTxConflict)

	got, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderClosed, got.Status, "first transition must stick")
	assert.NotNil(t, got.ClosedAt)
}

func TestOrderRepo_List(t *testing.T) {
	r := repo.NewOrderRepo(newTestTx(t))
	ctx := context.Background()

	vehicleA, vehicleB := uuid.New(), uuid.New()

	a, err := r.Create(ctx, orderFixture(vehicleA))
	require.NoError(t, err)
	_, err = r.Create(ctx, orderFixture(vehicleB))
	require.NoError(t, err)

	closed, err := r.Create(ctx, orderFixture(vehicleA))
	require.NoError(t, err)
	_, err = r.UpdateStatus(ctx, closed.ID, domain.OrderOpen, domain.OrderClosed)
	require.NoError(t, err)

	page := domain.PaginationParams{Page: 1, Limit: 20}

	all, total, err := r.List(ctx, repo.OrderFilter{}, page)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(3))
	assert.GreaterOrEqual(t, len(all), 3)

	byVehicle, total, err := r.List(ctx, repo.OrderFilter{VehicleID: &vehicleA}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, byVehicle, 2)

	open := domain.OrderOpen
	openOnly, total, err := r.List(ctx, repo.OrderFilter{VehicleID: &vehicleA, Status: &open}, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, openOnly, 1)
	assert.Equal(t, a.ID, openOnly[0].ID)
}

func TestOrderRepo_List_Pagination(t *testing.T) {
	r := repo.NewOrderRepo(newTestTx(t))
	ctx := context.Background()

	vehicleID := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := r.Create(ctx, orderFixture(vehicleID))
		require.NoError(t, err)
	}

	first, total, err := r.List(ctx, repo.OrderFilter{VehicleID: &vehicleID}, domain.PaginationParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, first, 2)

	second, total, err := r.List(ctx, repo.OrderFilter{VehicleID: &vehicleID}, domain.PaginationParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, second, 1)
}
