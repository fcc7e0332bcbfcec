package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/fleetlog/backend/internal/domain"
)

// Queries bundles the repos bound to a single database transaction.
// Everything done through it commits or rolls back as one unit.
type Queries struct {
	Legs    LegRepo
	Trips   TripRepo
	Custody CustodyRepo
}

// TxManager runs a function inside one database transaction with a bounded
// timeout. If fn returns an error the transaction is rolled back and no
// partial state persists.
//
// Store-level conflicts (unique violations, serialization failures, deadlocks,
// lock timeouts) and unexpected persistence faults are surfaced as
// domain.ErrTxConflict; the caller may retry at its discretion — the manager
// never retries on its own. Business errors from fn pass through unchanged.
type TxManager interface {
	WithTx(ctx context.Context, fn func(q Queries) error) error
}

// pgTxManager is the pgx implementation of TxManager.
type pgTxManager struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTxManager constructs a TxManager over the given pool. Every transaction
// it opens is aborted after timeout, surfacing domain.ErrTxConflict.
func NewTxManager(pool *pgxpool.Pool, timeout time.Duration) TxManager {
	return &pgTxManager{pool: pool, timeout: timeout}
}

func (m *pgTxManager) WithTx(ctx context.Context, fn func(q Queries) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("repo.TxManager: begin: %w", coerceTxError(err))
	}
	// Rollback is a no-op once the transaction has committed.
	defer tx.Rollback(ctx)

	q := Queries{
		Legs:    NewLegRepo(tx),
		Trips:   NewTripRepo(tx),
		Custody: NewCustodyRepo(tx),
	}

	if err := fn(q); err != nil {
		return coerceTxError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repo.TxManager: commit: %w", coerceTxError(err))
	}
	return nil
}

// Postgres SQLSTATE codes treated as retryable conflicts.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// coerceTxError maps store-level failures onto domain.ErrTxConflict while
// letting typed business outcomes through untouched.
func coerceTxError(err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		domain.ErrNotFound,
		domain.ErrValidation,
		domain.ErrNoOpTransfer,
		domain.ErrForbidden,
		domain.ErrAlreadyResolved,
		domain.ErrTxConflict,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s (%s)", domain.ErrTxConflict, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: transaction timed out", domain.ErrTxConflict)
	}

	// Anything else is an unexpected persistence fault — the transaction did
	// not commit, so it still belongs in the retryable bucket.
	return fmt.Errorf("%w: %v", domain.ErrTxConflict, err)
}
