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

const custodyColumns = `id, vehicle_id, holder_user_id, parent_node_id, status, created_at, resolved_at`

// CustodyRepo defines the persistence operations for key custody nodes.
// Nodes are append-only apart from the single PENDING → CONFIRMED/REJECTED
// transition performed by Resolve.
type CustodyRepo interface {
	// Create inserts a new custody node and returns the persisted record.
	Create(ctx context.Context, node domain.KeyCustodyNode) (domain.KeyCustodyNode, error)

	// GetByID retrieves a single node by its UUID primary key.
	// Returns domain.ErrNotFound if no node with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.KeyCustodyNode, error)

	// Head returns the chain head for a vehicle: the latest node whose status
	// is not REJECTED. Returns domain.ErrNotFound when the vehicle has no
	// custody history yet (or only rejected nodes).
	Head(ctx context.Context, vehicleID uuid.UUID) (domain.KeyCustodyNode, error)

	// Resolve transitions a node from PENDING to the given terminal status and
	// stamps resolved_at, as a compare-and-swap guarded on status = PENDING.
	// Returns domain.ErrAlreadyResolved if the node exists but is no longer
	// PENDING, domain.ErrNotFound if it does not exist.
	Resolve(ctx context.Context, nodeID uuid.UUID, status domain.TransferStatus) (domain.KeyCustodyNode, error)

	// ListByVehicle returns every custody node recorded for a vehicle, in no
	// guaranteed order. Callers that need chain order must sort explicitly.
	ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]domain.KeyCustodyNode, error)

	// ListPendingByHolder returns all PENDING nodes awaiting resolution by the
	// given user, oldest first.
	ListPendingByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.KeyCustodyNode, error)

	// LockVehicle takes a transaction-scoped advisory lock keyed on the
	// vehicle, serializing transfer requests per vehicle. The lock is released
	// automatically on commit or rollback.
	//
	// Must be called inside a transaction.
	LockVehicle(ctx context.Context, vehicleID uuid.UUID) error
}

// pgCustodyRepo is the Postgres implementation of CustodyRepo.
type pgCustodyRepo struct {
	db db
}

// NewCustodyRepo constructs a CustodyRepo backed by the provided db connection.
// In production pass *pgxpool.Pool or a pgx.Tx from TxManager; in tests pass
// a pgx.Tx for rollback isolation.
func NewCustodyRepo(db db) CustodyRepo {
	return &pgCustodyRepo{db: db}
}

func (r *pgCustodyRepo) Create(ctx context.Context, node domain.KeyCustodyNode) (domain.KeyCustodyNode, error) {
	const q = `
		INSERT INTO custody_nodes (vehicle_id, holder_user_id, parent_node_id, status)
		VALUES (@vehicle_id, @holder_user_id, @parent_node_id, @status)
		RETURNING ` + custodyColumns

	status := node.Status
	if status == "" {
		status = domain.TransferPending
	}

	args := pgx.NamedArgs{
		"vehicle_id":     node.VehicleID,
		"holder_user_id": node.HolderUserID,
		"parent_node_id": node.ParentNodeID, // nil becomes NULL (chain root)
		"status":         string(status),
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanCustodyNode(row)
	if err != nil {
		return domain.KeyCustodyNode{}, fmt.Errorf("repo.CustodyRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgCustodyRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.KeyCustodyNode, error) {
	const q = `SELECT ` + custodyColumns + ` FROM custody_nodes WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanCustodyNode(row)
	if err != nil {
		return domain.KeyCustodyNode{}, fmt.Errorf("repo.CustodyRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgCustodyRepo) Head(ctx context.Context, vehicleID uuid.UUID) (domain.KeyCustodyNode, error) {
	const q = `
		SELECT ` + custodyColumns + `
		FROM custody_nodes
		WHERE vehicle_id = @vehicle_id
		  AND status <> 'REJECTED'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"vehicle_id": vehicleID})
	result, err := scanCustodyNode(row)
	if err != nil {
		return domain.KeyCustodyNode{}, fmt.Errorf("repo.CustodyRepo.Head: %w", err)
	}
	return result, nil
}

func (r *pgCustodyRepo) Resolve(ctx context.Context, nodeID uuid.UUID, status domain.TransferStatus) (domain.KeyCustodyNode, error) {
	const q = `
		UPDATE custody_nodes
		SET status      = @status,
		    resolved_at = now()
		WHERE id = @id
		  AND status = 'PENDING'
		RETURNING ` + custodyColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": nodeID, "status": string(status)})
	result, err := scanCustodyNode(row)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.KeyCustodyNode{}, fmt.Errorf("repo.CustodyRepo.Resolve: %w", err)
	}

	// Zero rows: the node is either absent or already resolved. A follow-up
	// read in the same transaction tells the two apart.
	if _, err := r.GetByID(ctx, nodeID); err != nil {
		return domain.KeyCustodyNode{}, fmt.Errorf("repo.CustodyRepo.Resolve: %w", err)
	}
	return domain.KeyCustodyNode{}, fmt.Errorf("repo.CustodyRepo.Resolve: %w", domain.ErrAlreadyResolved)
}

func (r *pgCustodyRepo) ListByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]domain.KeyCustodyNode, error) {
	const q = `SELECT ` + custodyColumns + ` FROM custody_nodes WHERE vehicle_id = @vehicle_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"vehicle_id": vehicleID})
	if err != nil {
		return nil, fmt.Errorf("repo.CustodyRepo.ListByVehicle: %w", err)
	}
	defer rows.Close()

	nodes, err := collectCustodyNodes(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.CustodyRepo.ListByVehicle: %w", err)
	}
	return nodes, nil
}

func (r *pgCustodyRepo) ListPendingByHolder(ctx context.Context, holderID uuid.UUID) ([]domain.KeyCustodyNode, error) {
	const q = `
		SELECT ` + custodyColumns + `
		FROM custody_nodes
		WHERE holder_user_id = @holder_user_id
		  AND status = 'PENDING'
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"holder_user_id": holderID})
	if err != nil {
		return nil, fmt.Errorf("repo.CustodyRepo.ListPendingByHolder: %w", err)
	}
	defer rows.Close()

	nodes, err := collectCustodyNodes(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.CustodyRepo.ListPendingByHolder: %w", err)
	}
	return nodes, nil
}

func (r *pgCustodyRepo) LockVehicle(ctx context.Context, vehicleID uuid.UUID) error {
	// hashtextextended maps the UUID onto the bigint advisory lock keyspace.
	const q = `SELECT pg_advisory_xact_lock(hashtextextended(@vehicle_id::text, 0))`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"vehicle_id": vehicleID}); err != nil {
		return fmt.Errorf("repo.CustodyRepo.LockVehicle: %w", err)
	}
	return nil
}

func collectCustodyNodes(rows pgx.Rows) ([]domain.KeyCustodyNode, error) {
	var nodes []domain.KeyCustodyNode
	for rows.Next() {
		n, err := scanCustodyNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return nodes, nil
}

// scanCustodyNode maps a single database row into a domain.KeyCustodyNode.
func scanCustodyNode(s scanner) (domain.KeyCustodyNode, error) {
	var (
		n          domain.KeyCustodyNode
		id         pgtype.UUID
		vehicleID  pgtype.UUID
		holderID   pgtype.UUID
		parentID   pgtype.UUID
		status     string
		resolvedAt pgtype.Timestamptz
	)

	err := s.Scan(&id, &vehicleID, &holderID, &parentID, &status, &n.CreatedAt, &resolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.KeyCustodyNode{}, domain.ErrNotFound
		}
		return domain.KeyCustodyNode{}, err
	}

	n.ID = uuid.UUID(id.Bytes)
	n.VehicleID = uuid.UUID(vehicleID.Bytes)
	n.HolderUserID = uuid.UUID(holderID.Bytes)
	n.Status = domain.TransferStatus(status)
	if parentID.Valid {
		v := uuid.UUID(parentID.Bytes)
		n.ParentNodeID = &v
	}
	if resolvedAt.Valid {
		v := resolvedAt.Time
		n.ResolvedAt = &v
	}

	return n, nil
}
