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

// legColumns is the SELECT list shared by every inspection_legs query.
const legColumns = `id, vehicle_id, user_id, kind, odometer,
	fluid_levels_ok, tires_front_ok, tires_rear_ok,
	documents_ok, has_damage, damage_notes, created_at`

// LegRepo defines the persistence operations for inspection legs.
// Legs are append-only: there is no update or delete.
type LegRepo interface {
	// Create inserts a new leg and returns the persisted record (with
	// DB-generated id and created_at populated).
	Create(ctx context.Context, leg domain.InspectionLeg) (domain.InspectionLeg, error)

	// GetByID retrieves a single leg by its UUID primary key.
	// Returns domain.ErrNotFound if no leg with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.InspectionLeg, error)
}

// pgLegRepo is the Postgres implementation of LegRepo.
type pgLegRepo struct {
	db db
}

// NewLegRepo constructs a LegRepo backed by the provided db connection.
// In production pass *pgxpool.Pool or a pgx.Tx from TxManager; in tests pass
// a pgx.Tx for rollback isolation.
func NewLegRepo(db db) LegRepo {
	return &pgLegRepo{db: db}
}

func (r *pgLegRepo) Create(ctx context.Context, leg domain.InspectionLeg) (domain.InspectionLeg, error) {
	const q = `
		INSERT INTO inspection_legs
			(vehicle_id, user_id, kind, odometer,
			 fluid_levels_ok, tires_front_ok, tires_rear_ok,
			 documents_ok, has_damage, damage_notes)
		VALUES
			(@vehicle_id, @user_id, @kind, @odometer,
			 @fluid_levels_ok, @tires_front_ok, @tires_rear_ok,
			 @documents_ok, @has_damage, @damage_notes)
		RETURNING ` + legColumns

	cl := leg.Checklist
	args := pgx.NamedArgs{
		"vehicle_id":      leg.VehicleID,
		"user_id":         leg.UserID,
		"kind":            string(leg.Kind),
		"odometer":        leg.Odometer,
		"fluid_levels_ok": cl.FluidLevelsOK,
		"tires_front_ok":  cl.TiresFrontOK,
		"tires_rear_ok":   cl.TiresRearOK,
		"documents_ok":    cl.DocumentsOK, // nil becomes NULL
		"has_damage":      cl.HasDamage,
		"damage_notes":    cl.DamageNotes,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanLeg(row)
	if err != nil {
		return domain.InspectionLeg{}, fmt.Errorf("repo.LegRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgLegRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.InspectionLeg, error) {
	const q = `SELECT ` + legColumns + ` FROM inspection_legs WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanLeg(row)
	if err != nil {
		return domain.InspectionLeg{}, fmt.Errorf("repo.LegRepo.GetByID: %w", err)
	}
	return result, nil
}

// scanLeg maps a single database row into a domain.InspectionLeg.
// The three required checklist booleans are NOT NULL in the schema, so their
// pointers are always populated on the way out.
func scanLeg(s scanner) (domain.InspectionLeg, error) {
	var (
		l         domain.InspectionLeg
		id        pgtype.UUID
		vehicleID pgtype.UUID
		userID    pgtype.UUID
		kind      string
		fluids    bool
		front     bool
		rear      bool
		documents pgtype.Bool
		damage    pgtype.Bool
	)

	err := s.Scan(&id, &vehicleID, &userID, &kind, &l.Odometer,
		&fluids, &front, &rear,
		&documents, &damage, &l.Checklist.DamageNotes, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.InspectionLeg{}, domain.ErrNotFound
		}
		return domain.InspectionLeg{}, err
	}

	l.ID = uuid.UUID(id.Bytes)
	l.VehicleID = uuid.UUID(vehicleID.Bytes)
	l.UserID = uuid.UUID(userID.Bytes)
	l.Kind = domain.LegKind(kind)
	l.Checklist.FluidLevelsOK = &fluids
	l.Checklist.TiresFrontOK = &front
	l.Checklist.TiresRearOK = &rear
	if documents.Valid {
		v := documents.Bool
		l.Checklist.DocumentsOK = &v
	}
	if damage.Valid {
		v := damage.Bool
		l.Checklist.HasDamage = &v
	}

	return l, nil
}
