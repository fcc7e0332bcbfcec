package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/fleetops/fleetlog/backend/internal/domain"
)

const tripColumns = `id, user_id, vehicle_id, start_leg_id, end_leg_id, created_at, updated_at`

// TripRepo defines the persistence operations for trips.
// The pairing engine depends on this interface, not the concrete Postgres
// implementation, which allows it to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record.
	// At least one of StartLegID/EndLegID must be set (schema-enforced).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// FindOpenForUpdate returns the most recently created open trip (start leg
	// set, end leg unset) for the given driver/vehicle pair, locking the row
	// with FOR UPDATE so a concurrent submission blocks until this transaction
	// finishes. Returns domain.ErrNotFound when no open trip exists.
	//
	// Must be called inside a transaction — the lock is released on commit
	// or rollback.
	FindOpenForUpdate(ctx context.Context, userID, vehicleID uuid.UUID) (domain.Trip, error)

	// SetStartLeg points the trip's start at the given leg and returns the
	// updated record. Returns domain.ErrNotFound if the trip does not exist.
	SetStartLeg(ctx context.Context, tripID, legID uuid.UUID) (domain.Trip, error)

	// SetEndLeg closes the trip with the given leg and returns the updated
	// record. Refuses to overwrite an already-set end leg (domain.ErrNotFound
	// if the trip is missing or already closed).
	SetEndLeg(ctx context.Context, tripID, legID uuid.UUID) (domain.Trip, error)

	// ListByUser returns the caller's trips newest-first, optionally filtered
	// to one vehicle, along with the total row count for pagination.
	ListByUser(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool or a pgx.Tx from TxManager; in tests pass
// a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (user_id, vehicle_id, start_leg_id, end_leg_id)
		VALUES (@user_id, @vehicle_id, @start_leg_id, @end_leg_id)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"user_id":      trip.UserID,
		"vehicle_id":   trip.VehicleID,
		"start_leg_id": trip.StartLegID, // nil becomes NULL
		"end_leg_id":   trip.EndLegID,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) FindOpenForUpdate(ctx context.Context, userID, vehicleID uuid.UUID) (domain.Trip, error) {
	// Tie-break: most recent open trip wins. The partial unique index keeps
	// the open set at ≤1 row per pair, but the ORDER BY makes the policy
	// explicit rather than an accident of the index.
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE user_id = @user_id
		  AND vehicle_id = @vehicle_id
		  AND start_leg_id IS NOT NULL
		  AND end_leg_id IS NULL
		ORDER BY created_at DESC, id
		LIMIT 1
		FOR UPDATE`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "vehicle_id": vehicleID})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.FindOpenForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) SetStartLeg(ctx context.Context, tripID, legID uuid.UUID) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET start_leg_id = @leg_id,
		    updated_at   = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": tripID, "leg_id": legID})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.SetStartLeg: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) SetEndLeg(ctx context.Context, tripID, legID uuid.UUID) (domain.Trip, error) {
	// The end_leg_id IS NULL guard means a concurrent close that slipped in
	// first makes this update match zero rows instead of overwriting.
	const q = `
		UPDATE trips
		SET end_leg_id = @leg_id,
		    updated_at = now()
		WHERE id = @id
		  AND end_leg_id IS NULL
		RETURNING ` + tripColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": tripID, "leg_id": legID})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.SetEndLeg: %w", err)
	}
	return result, nil
}

func (r *pgTripRepo) ListByUser(ctx context.Context, userID uuid.UUID, vehicleID *uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	const countQ = `
		SELECT count(*)
		FROM trips
		WHERE user_id = @user_id
		  AND (@vehicle_id::uuid IS NULL OR vehicle_id = @vehicle_id)`

	const pageQ = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE user_id = @user_id
		  AND (@vehicle_id::uuid IS NULL OR vehicle_id = @vehicle_id)
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{"user_id": userID, "vehicle_id": vehicleID}

	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByUser: count: %w", err)
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()

	rows, err := r.db.Query(ctx, pageQ, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TripRepo.ListByUser: scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TripRepo.ListByUser: rows: %w", err)
	}

	return trips, total, nil
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and nullable leg reference conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t         domain.Trip
		id        pgtype.UUID
		userID    pgtype.UUID
		vehicleID pgtype.UUID
		startLeg  pgtype.UUID
		endLeg    pgtype.UUID
	)

	err := s.Scan(&id, &userID, &vehicleID, &startLeg, &endLeg, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	t.UserID = uuid.UUID(userID.Bytes)
	t.VehicleID = uuid.UUID(vehicleID.Bytes)
	if startLeg.Valid {
		v := uuid.UUID(startLeg.Bytes)
		t.StartLegID = &v
	}
	if endLeg.Valid {
		v := uuid.UUID(endLeg.Bytes)
		t.EndLegID = &v
	}

	return t, nil
}
