// Package domain contains the core data types for the fleet logbook service.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip pairs a START inspection leg with (eventually) a FINAL leg for one
// vehicle usage episode by one driver.
//
// At least one of StartLegID/EndLegID is always set. A trip with a start leg
// and no end leg is open; once both are set the trip is closed and immutable.
// At most one trip per (UserID, VehicleID) may be open at any time — the
// pairing engine and a partial unique index both enforce this.
type Trip struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	VehicleID  uuid.UUID  `json:"vehicle_id"`
	StartLegID *uuid.UUID `json:"start_leg_id,omitempty"` // nil for an orphan-end trip
	EndLegID   *uuid.UUID `json:"end_leg_id,omitempty"`   // nil while the trip is open
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Open reports whether the trip has a start leg but no end leg yet.
func (t Trip) Open() bool {
	return t.StartLegID != nil && t.EndLegID == nil
}

// Closed reports whether both legs are set, making the trip immutable.
func (t Trip) Closed() bool {
	return t.StartLegID != nil && t.EndLegID != nil
}
