package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferStatus is the resolution state of a key custody transfer.
type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferConfirmed TransferStatus = "CONFIRMED"
	TransferRejected  TransferStatus = "REJECTED"
)

// Resolution reports whether s is a terminal status a pending node may move to.
func (s TransferStatus) Resolution() bool {
	return s == TransferConfirmed || s == TransferRejected
}

// KeyCustodyNode is one link in a vehicle's key transfer history.
//
// Nodes for a vehicle form a singly-linked list via ParentNodeID, ordered by
// CreatedAt. The latest non-REJECTED node is the vehicle's current custody
// record; while that node is PENDING it does not yet make its holder the
// operational key holder, but it does anchor the chain for the next transfer.
// Nodes are never deleted; a REJECTED node stays as a dead branch off the chain.
type KeyCustodyNode struct {
	ID           uuid.UUID      `json:"id"`
	VehicleID    uuid.UUID      `json:"vehicle_id"`
	HolderUserID uuid.UUID      `json:"holder_user_id"`
	ParentNodeID *uuid.UUID     `json:"parent_node_id,omitempty"` // nil for the root of the chain
	Status       TransferStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	ResolvedAt   *time.Time     `json:"resolved_at,omitempty"` // set exactly once, on confirm or reject
}
