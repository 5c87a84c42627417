package ports

import (
	"context"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// PayoutRepository persists payout batches
type PayoutRepository interface {
	Create(ctx context.Context, tx DBTX, payout *domain.Payout) error

	GetByID(ctx context.Context, tx DBTX, id string) (*domain.Payout, error)

	// GetOpenForUpdate returns the open (pending/processing) payout for the
	// partner/program pair, row-locked, or nil when none exists. Serializes
	// concurrent aggregation runs for the same partner.
	GetOpenForUpdate(ctx context.Context, tx DBTX, partnerID, programID string) (*domain.Payout, error)

	// UpdateStatus transitions a payout's status. Mode is fixed at the first
	// transfer attempt and never rewritten afterwards.
	UpdateStatus(ctx context.Context, tx DBTX, id string, status domain.PayoutStatus) error

	// SetMode records the rail the transfer was attempted over
	SetMode(ctx context.Context, tx DBTX, id string, mode domain.PayoutMethod) error

	// LinkInvoice attaches the funding invoice reference
	LinkInvoice(ctx context.Context, tx DBTX, id string, invoiceID string) error

	ListByStatus(ctx context.Context, tx DBTX, status domain.PayoutStatus, limit int32) ([]*domain.Payout, error)
}
