package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

// CustodyService implements the key custody chain engine and the transfer
// confirmation workflow. Transfer requests are serialized per vehicle by an
// advisory lock; resolution is a compare-and-swap on the PENDING status.
type CustodyService struct {
	tx      repo.TxManager
	custody repo.CustodyRepo
}

// NewCustodyService constructs a CustodyService. The TxManager carries the
// write paths; the plain CustodyRepo serves the read-only history and
// pending-list queries.
func NewCustodyService(tx repo.TxManager, custody repo.CustodyRepo) *CustodyService {
	return &CustodyService{tx: tx, custody: custody}
}

// RequestTransfer records a request to hand the vehicle's key to toUserID.
//
// The new node is created PENDING with its parent pointing at the current
// chain head (the latest non-rejected node), or no parent when the vehicle has
// no custody history. A PENDING head does not yet make its holder the
// operational key holder, but it anchors the chain — so a repeat request for
// the same target fails with domain.ErrNoOpTransfer rather than forking the
// chain.
func (s *CustodyService) RequestTransfer(ctx context.Context, vehicleID, toUserID uuid.UUID) (domain.KeyCustodyNode, error) {
	if vehicleID == uuid.Nil || toUserID == uuid.Nil {
		return domain.KeyCustodyNode{}, fmt.Errorf("%w: vehicle_id and to_user_id are required", domain.ErrValidation)
	}

	var node domain.KeyCustodyNode

	err := s.tx.WithTx(ctx, func(q repo.Queries) error {
		if err := q.Custody.LockVehicle(ctx, vehicleID); err != nil {
			return fmt.Errorf("service.CustodyService.RequestTransfer: %w", err)
		}

		head, err := q.Custody.Head(ctx, vehicleID)
		var parentID *uuid.UUID
		switch {
		case err == nil:
			if head.HolderUserID == toUserID {
				return fmt.Errorf("service.CustodyService.RequestTransfer: %w", domain.ErrNoOpTransfer)
			}
			parentID = &head.ID
		case errors.Is(err, domain.ErrNotFound):
			// First custody record for this vehicle — chain root.
		default:
			return fmt.Errorf("service.CustodyService.RequestTransfer: %w", err)
		}

		node, err = q.Custody.Create(ctx, domain.KeyCustodyNode{
			VehicleID:    vehicleID,
			HolderUserID: toUserID,
			ParentNodeID: parentID,
			Status:       domain.TransferPending,
		})
		if err != nil {
			return fmt.Errorf("service.CustodyService.RequestTransfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.KeyCustodyNode{}, err
	}

	return node, nil
}

// ResolveTransfer moves a PENDING node to CONFIRMED or REJECTED, exactly once.
//
// Only the node's designated recipient may resolve it (domain.ErrForbidden
// otherwise). A node that is no longer PENDING fails with
// domain.ErrAlreadyResolved and keeps the status the first resolution gave it.
// The status change and the node's disappearance from the pending list commit
// atomically.
func (s *CustodyService) ResolveTransfer(ctx context.Context, callerID, nodeID uuid.UUID, resolution domain.TransferStatus) (domain.KeyCustodyNode, error) {
	if !resolution.Resolution() {
		return domain.KeyCustodyNode{}, fmt.Errorf("%w: resolution must be CONFIRMED or REJECTED", domain.ErrValidation)
	}

	var node domain.KeyCustodyNode

	err := s.tx.WithTx(ctx, func(q repo.Queries) error {
		existing, err := q.Custody.GetByID(ctx, nodeID)
		if err != nil {
			return fmt.Errorf("service.CustodyService.ResolveTransfer: %w", err)
		}
		if existing.HolderUserID != callerID {
			return fmt.Errorf("service.CustodyService.ResolveTransfer: %w", domain.ErrForbidden)
		}
		if existing.Status != domain.TransferPending {
			return fmt.Errorf("service.CustodyService.ResolveTransfer: %w", domain.ErrAlreadyResolved)
		}

		// The repo-level CAS re-checks PENDING, so a racing resolution that
		// commits between the read above and this update still loses cleanly.
		node, err = q.Custody.Resolve(ctx, nodeID, resolution)
		if err != nil {
			return fmt.Errorf("service.CustodyService.ResolveTransfer: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.KeyCustodyNode{}, err
	}

	return node, nil
}

// History returns every custody node for a vehicle, most recent first, for
// audit display. The order is imposed here by an explicit sort on CreatedAt
// (node ID as tie-break) — storage iteration order is not trusted. Rejected
// nodes are included; they read as dead branches in the audit trail.
// Always returns a non-nil slice so callers can safely range over it.
func (s *CustodyService) History(ctx context.Context, vehicleID uuid.UUID) ([]domain.KeyCustodyNode, error) {
	nodes, err := s.custody.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("service.CustodyService.History: %w", err)
	}

	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.After(nodes[j].CreatedAt)
		}
		return nodes[i].ID.String() > nodes[j].ID.String()
	})

	if nodes == nil {
		return []domain.KeyCustodyNode{}, nil
	}
	return nodes, nil
}

// PendingFor returns the PENDING transfers awaiting resolution by the given
// user, oldest first — the view clients poll for the confirmation workflow.
// Always returns a non-nil slice so callers can safely range over it.
func (s *CustodyService) PendingFor(ctx context.Context, holderID uuid.UUID) ([]domain.KeyCustodyNode, error) {
	nodes, err := s.custody.ListPendingByHolder(ctx, holderID)
	if err != nil {
		return nil, fmt.Errorf("service.CustodyService.PendingFor: %w", err)
	}
	if nodes == nil {
		return []domain.KeyCustodyNode{}, nil
	}
	return nodes, nil
}
