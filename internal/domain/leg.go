package domain

import (
	"time"

	"github.com/google/uuid"
)

// LegKind distinguishes the two halves of a vehicle usage episode.
type LegKind string

const (
	// LegKindStart is the inspection recorded when a driver takes a vehicle out.
	LegKindStart LegKind = "START"
	// LegKindFinal is the inspection recorded when the vehicle is returned.
	LegKindFinal LegKind = "FINAL"
)

// Valid reports whether k is one of the known leg kinds.
func (k LegKind) Valid() bool {
	return k == LegKindStart || k == LegKindFinal
}

// Checklist holds the vehicle condition answers recorded with a leg.
// Fields are pointers so that "not answered" is distinguishable from "answered
// false" — validation reports every unanswered required field by name.
//
// DocumentsOK applies to START legs only (departure paperwork check).
// HasDamage and DamageNotes apply to FINAL legs only.
type Checklist struct {
	FluidLevelsOK *bool  `json:"fluid_levels_ok"`
	TiresFrontOK  *bool  `json:"tires_front_ok"`
	TiresRearOK   *bool  `json:"tires_rear_ok"`
	DocumentsOK   *bool  `json:"documents_ok,omitempty"`
	HasDamage     *bool  `json:"has_damage,omitempty"`
	DamageNotes   string `json:"damage_notes,omitempty"`
}

// InspectionLeg is one inspection snapshot, tagged START or FINAL.
// Legs are immutable once created; corrections are appended elsewhere as
// separate audit entries, never written back onto the leg row.
type InspectionLeg struct {
	ID        uuid.UUID `json:"id"`
	VehicleID uuid.UUID `json:"vehicle_id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      LegKind   `json:"kind"`
	Odometer  int64     `json:"odometer"`
	Checklist Checklist `json:"checklist"`
	CreatedAt time.Time `json:"created_at"`
}
