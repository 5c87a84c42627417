package ports

import (
	"context"
	"time"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// CommissionRepository persists the commission ledger
type CommissionRepository interface {
	// Create appends a new commission to the ledger
	Create(ctx context.Context, tx DBTX, commission *domain.Commission) error

	// GetByID retrieves a commission
	GetByID(ctx context.Context, tx DBTX, id string) (*domain.Commission, error)

	// ListPayableForUpdate selects all pending/processed commissions for the
	// partner/program inside [periodStart, periodEnd) and row-locks them so a
	// concurrent aggregation run cannot double-assign them to two payouts.
	// Must be called within a transaction.
	ListPayableForUpdate(ctx context.Context, tx DBTX, partnerID, programID string, periodStart, periodEnd time.Time) ([]*domain.Commission, error)

	// AssignPayout stamps payout_id on the given commissions and transitions
	// pending ones to processed. The update is guarded on payout_id IS NULL;
	// assigning fewer rows than requested is a consistency error reported to
	// the caller.
	AssignPayout(ctx context.Context, tx DBTX, commissionIDs []string, payoutID string) error

	// UpdateStatus transitions a commission's status
	UpdateStatus(ctx context.Context, tx DBTX, id string, status domain.CommissionStatus) error

	// MarkPaidByPayout transitions every commission linked to the payout to paid
	MarkPaidByPayout(ctx context.Context, tx DBTX, payoutID string) error

	// ListHeld returns commissions that are payable on their own terms but
	// whose partner has a pending fraud event group. This backs the "hold"
	// review query mode.
	ListHeld(ctx context.Context, tx DBTX, programID string, limit int32) ([]*domain.Commission, error)
}
