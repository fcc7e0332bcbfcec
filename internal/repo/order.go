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

const orderColumns = `id, vehicle_id, opened_by, title, description, odometer, status, created_at, updated_at, closed_at`

// OrderFilter narrows OrderRepo.List. Nil fields match everything.
type OrderFilter struct {
	VehicleID *uuid.UUID
	Status    *domain.OrderStatus
}

// OrderRepo defines the persistence operations for maintenance service orders.
type OrderRepo interface {
	// Create inserts a new order (status OPEN) and returns the persisted record.
	Create(ctx context.Context, order domain.ServiceOrder) (domain.ServiceOrder, error)

	// GetByID retrieves a single order by its UUID primary key.
	// Returns domain.ErrNotFound if no order with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.ServiceOrder, error)

	// List returns orders newest-first matching the filter, with the total
	// row count for pagination.
	List(ctx context.Context, f OrderFilter, p domain.PaginationParams) ([]domain.ServiceOrder, int64, error)

	// UpdateStatus moves the order from expected to next, refreshing updated_at
	// and stamping closed_at when next is CLOSED, as a compare-and-swap guarded
	// on status = expected. Returns domain.ErrTxConflict if the order exists
	// but its status no longer matches expected (a concurrent transition won),
	// domain.ErrNotFound if it does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.OrderStatus) (domain.ServiceOrder, error)
}

// pgOrderRepo is the Postgres implementation of OrderRepo.
type pgOrderRepo struct {
	db db
}

// NewOrderRepo constructs an OrderRepo backed by the provided db connection.
func NewOrderRepo(db db) OrderRepo {
	return &pgOrderRepo{db: db}
}

func (r *pgOrderRepo) Create(ctx context.Context, order domain.ServiceOrder) (domain.ServiceOrder, error) {
	const q = `
		INSERT INTO service_orders (vehicle_id, opened_by, title, description, odometer)
		VALUES (@vehicle_id, @opened_by, @title, @description, @odometer)
		RETURNING ` + orderColumns

	args := pgx.NamedArgs{
		"vehicle_id":  order.VehicleID,
		"opened_by":   order.OpenedBy,
		"title":       order.Title,
		"description": order.Description,
		"odometer":    order.Odometer,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanOrder(row)
	if err != nil {
		return domain.ServiceOrder{}, fmt.Errorf("repo.OrderRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ServiceOrder, error) {
	const q = `SELECT ` + orderColumns + ` FROM service_orders WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanOrder(row)
	if err != nil {
		return domain.ServiceOrder{}, fmt.Errorf("repo.OrderRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgOrderRepo) List(ctx context.Context, f OrderFilter, p domain.PaginationParams) ([]domain.ServiceOrder, int64, error) {
	const countQ = `
		SELECT count(*)
		FROM service_orders
		WHERE (@vehicle_id::uuid IS NULL OR vehicle_id = @vehicle_id)
		  AND (@status::text IS NULL OR status = @status)`

	const pageQ = `
		SELECT ` + orderColumns + `
		FROM service_orders
		WHERE (@vehicle_id::uuid IS NULL OR vehicle_id = @vehicle_id)
		  AND (@status::text IS NULL OR status = @status)
		ORDER BY created_at DESC, id
		LIMIT @limit OFFSET @offset`

	var status *string
	if f.Status != nil {
		s := string(*f.Status)
		status = &s
	}
	args := pgx.NamedArgs{"vehicle_id": f.VehicleID, "status": status}

	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.OrderRepo.List: count: %w", err)
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()

	rows, err := r.db.Query(ctx, pageQ, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.OrderRepo.List: %w", err)
	}
	defer rows.Close()

	var orders []domain.ServiceOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.OrderRepo.List: scan: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.OrderRepo.List: rows: %w", err)
	}

	return orders, total, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.OrderStatus) (domain.ServiceOrder, error) {
	const q = `
		UPDATE service_orders
		SET status     = @next,
		    updated_at = now(),
		    closed_at  = CASE WHEN @next = 'CLOSED' THEN now() ELSE closed_at END
		WHERE id = @id
		  AND status = @expected
		RETURNING ` + orderColumns

	args := pgx.NamedArgs{"id": id, "expected": string(expected), "next": string(next)}
	row := r.db.QueryRow(ctx, q, args)
	result, err := scanOrder(row)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.ServiceOrder{}, fmt.Errorf("repo.OrderRepo.UpdateStatus: %w", err)
	}

	// Zero rows: the order is either absent or a concurrent transition moved
	// it past expected. A follow-up read tells the two apart.
	if _, err := r.GetByID(ctx, id); err != nil {
		return domain.ServiceOrder{}, fmt.Errorf("repo.OrderRepo.UpdateStatus: %w", err)
	}
	return domain.ServiceOrder{}, fmt.Errorf("repo.OrderRepo.UpdateStatus: %w", domain.ErrTxConflict)
}

// scanOrder maps a single database row into a domain.ServiceOrder.
func scanOrder(s scanner) (domain.ServiceOrder, error) {
	var (
		o         domain.ServiceOrder
		id        pgtype.UUID
		vehicleID pgtype.UUID
		openedBy  pgtype.UUID
		status    string
		closedAt  pgtype.Timestamptz
	)

	err := s.Scan(&id, &vehicleID, &openedBy, &o.Title, &o.Description, &o.Odometer,
		&status, &o.CreatedAt, &o.UpdatedAt, &closedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ServiceOrder{}, domain.ErrNotFound
		}
		return domain.ServiceOrder{}, err
	}

	o.ID = uuid.UUID(id.Bytes)
	o.VehicleID = uuid.UUID(vehicleID.Bytes)
	o.OpenedBy = uuid.UUID(openedBy.Bytes)
	o.Status = domain.OrderStatus(status)
	if closedAt.Valid {
		v := closedAt.Time
		o.ClosedAt = &v
	}

	return o, nil
}
