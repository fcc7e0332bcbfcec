// Package service contains the business logic for the fleet logbook API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

// PairingService implements the trip pairing engine: every submitted
// inspection leg either opens a new trip, restarts or closes the existing
// open trip, or records an orphan end.
//
// Leg creation and trip mutation happen inside one transaction, so a failed
// pairing never leaves a leg behind without a trip reference.
type PairingService struct {
	tx repo.TxManager
}

// NewPairingService constructs a PairingService backed by the provided TxManager.
func NewPairingService(tx repo.TxManager) *PairingService {
	return &PairingService{tx: tx}
}

// SubmitLeg validates and persists a new inspection leg, then pairs it into a
// trip, returning both the created leg and the resulting trip.
//
// Pairing rules, keyed on (UserID, VehicleID, open-state):
//   - START with no open trip: a new open trip is created.
//   - START with an open trip: the open trip's start leg is replaced — a
//     second open trip is never created.
//   - FINAL with an open trip: the most recently created open trip is closed.
//   - FINAL with no open trip: an orphan-end trip (no start leg) is created
//     rather than discarding the inspection.
//
// Returns domain.ErrValidation (before any transaction opens) naming every
// missing or invalid field, or domain.ErrTxConflict if the store could not
// commit — in which case nothing was written.
func (s *PairingService) SubmitLeg(ctx context.Context, leg domain.InspectionLeg) (domain.InspectionLeg, domain.Trip, error) {
	if err := validateLeg(leg); err != nil {
		return domain.InspectionLeg{}, domain.Trip{}, err
	}

	var (
		created domain.InspectionLeg
		trip    domain.Trip
	)

	err := s.tx.WithTx(ctx, func(q repo.Queries) error {
		var err error
		created, err = q.Legs.Create(ctx, leg)
		if err != nil {
			return fmt.Errorf("service.PairingService.SubmitLeg: create leg: %w", err)
		}

		open, err := q.Trips.FindOpenForUpdate(ctx, leg.UserID, leg.VehicleID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("service.PairingService.SubmitLeg: find open trip: %w", err)
		}
		hasOpen := err == nil

		switch {
		case leg.Kind == domain.LegKindStart && hasOpen:
			trip, err = q.Trips.SetStartLeg(ctx, open.ID, created.ID)
		case leg.Kind == domain.LegKindStart:
			trip, err = q.Trips.Create(ctx, domain.Trip{
				UserID:     leg.UserID,
				VehicleID:  leg.VehicleID,
				StartLegID: &created.ID,
			})
		case hasOpen: // FINAL closing the open trip
			trip, err = q.Trips.SetEndLeg(ctx, open.ID, created.ID)
		default: // FINAL with nothing to close: orphan end
			trip, err = q.Trips.Create(ctx, domain.Trip{
				UserID:    leg.UserID,
				VehicleID: leg.VehicleID,
				EndLegID:  &created.ID,
			})
		}
		if err != nil {
			return fmt.Errorf("service.PairingService.SubmitLeg: pair trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.InspectionLeg{}, domain.Trip{}, err
	}

	return created, trip, nil
}

// validateLeg enforces the per-kind leg contract before any transaction opens.
// All problems are collected so the error names every missing field at once.
//   - vehicle_id, user_id, and a valid kind are always required.
//   - fluids and both tire checks are required for every leg.
//   - START legs additionally require the documents check.
//   - FINAL legs additionally require the damage flag, plus damage notes
//     whenever damage is reported.
func validateLeg(leg domain.InspectionLeg) error {
	var missing []string

	if leg.VehicleID == uuid.Nil {
		missing = append(missing, "vehicle_id")
	}
	if leg.UserID == uuid.Nil {
		missing = append(missing, "user_id")
	}
	if !leg.Kind.Valid() {
		missing = append(missing, "kind")
	}
	if leg.Odometer < 0 {
		missing = append(missing, "odometer")
	}

	cl := leg.Checklist
	if cl.FluidLevelsOK == nil {
		missing = append(missing, "checklist.fluid_levels_ok")
	}
	if cl.TiresFrontOK == nil {
		missing = append(missing, "checklist.tires_front_ok")
	}
	if cl.TiresRearOK == nil {
		missing = append(missing, "checklist.tires_rear_ok")
	}

	switch leg.Kind {
	case domain.LegKindStart:
		if cl.DocumentsOK == nil {
			missing = append(missing, "checklist.documents_ok")
		}
	case domain.LegKindFinal:
		if cl.HasDamage == nil {
			missing = append(missing, "checklist.has_damage")
		} else if *cl.HasDamage && strings.TrimSpace(cl.DamageNotes) == "" {
			missing = append(missing, "checklist.damage_notes")
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing or invalid fields: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}
