package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of a maintenance service order.
// Status only moves forward: OPEN → IN_PROGRESS → CLOSED.
type OrderStatus string

const (
	OrderOpen       OrderStatus = "OPEN"
	OrderInProgress OrderStatus = "IN_PROGRESS"
	OrderClosed     OrderStatus = "CLOSED"
)

// Valid reports whether s is one of the known order statuses.
func (s OrderStatus) Valid() bool {
	return s == OrderOpen || s == OrderInProgress || s == OrderClosed
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderOpen:
		return next == OrderInProgress || next == OrderClosed
	case OrderInProgress:
		return next == OrderClosed
	default:
		return false
	}
}

// ServiceOrder is a maintenance job recorded against a vehicle.
type ServiceOrder struct {
	ID          uuid.UUID   `json:"id"`
	VehicleID   uuid.UUID   `json:"vehicle_id"`
	OpenedBy    uuid.UUID   `json:"opened_by"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Odometer    int64       `json:"odometer"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ClosedAt    *time.Time  `json:"closed_at,omitempty"`
}
