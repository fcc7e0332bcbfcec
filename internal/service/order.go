package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fleetops/fleetlog/backend/internal/domain"
	"github.com/fleetops/fleetlog/backend/internal/repo"
)

// OrderService implements business logic for maintenance service orders.
type OrderService struct {
	orders repo.OrderRepo
}

// NewOrderService constructs an OrderService backed by the provided OrderRepo.
func NewOrderService(orders repo.OrderRepo) *OrderService {
	return &OrderService{orders: orders}
}

// Create validates and persists a new service order. New orders always start
// in OPEN regardless of any status supplied by the caller.
func (s *OrderService) Create(ctx context.Context, order domain.ServiceOrder) (domain.ServiceOrder, error) {
	var missing []string
	if order.VehicleID == uuid.Nil {
		missing = append(missing, "vehicle_id")
	}
	if order.OpenedBy == uuid.Nil {
		missing = append(missing, "opened_by")
	}
	if strings.TrimSpace(order.Title) == "" {
		missing = append(missing, "title")
	}
	if order.Odometer < 0 {
		missing = append(missing, "odometer")
	}
	if len(missing) > 0 {
		return domain.ServiceOrder{}, fmt.Errorf("%w: missing or invalid fields: %s", domain.ErrValidation, strings.Join(missing, ", "))
	}

	order.Status = domain.OrderOpen
	result, err := s.orders.Create(ctx, order)
	if err != nil {
		return domain.ServiceOrder{}, fmt.Errorf("service.OrderService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a single service order by ID.
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (domain.ServiceOrder, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return domain.ServiceOrder{}, fmt.Errorf("service.OrderService.GetByID: %w", err)
	}
	return order, nil
}

// List returns service orders newest-first matching the filter.
// Always returns a non-nil slice so callers can safely range over it.
func (s *OrderService) List(ctx context.Context, f repo.OrderFilter, p domain.PaginationParams) ([]domain.ServiceOrder, int64, error) {
	orders, total, err := s.orders.List(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.OrderService.List: %w", err)
	}
	if orders == nil {
		return []domain.ServiceOrder{}, total, nil
	}
	return orders, total, nil
}

// UpdateStatus advances an order along OPEN → IN_PROGRESS → CLOSED.
// Backward or repeated transitions fail with domain.ErrValidation. The
// transition check races against concurrent updates, so the repo applies it
// as a compare-and-swap on the status read here; the losing caller gets
// domain.ErrTxConflict and may re-read and retry.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (domain.ServiceOrder, error) {
	if !status.Valid() {
		return domain.ServiceOrder{}, fmt.Errorf("%w: status must be OPEN, IN_PROGRESS, or CLOSED", domain.ErrValidation)
	}

	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return domain.ServiceOrder{}, fmt.Errorf("service.OrderService.UpdateStatus: %w", err)
	}
	if !current.Status.CanTransitionTo(status) {
		return domain.ServiceOrder{}, fmt.Errorf("%w: cannot move order from %s to %s", domain.ErrValidation, current.Status, status)
	}

	result, err := s.orders.UpdateStatus(ctx, id, current.Status, status)
	if err != nil {
		return domain.ServiceOrder{}, fmt.Errorf("service.OrderService.UpdateStatus: %w", err)
	}
	return result, nil
}
