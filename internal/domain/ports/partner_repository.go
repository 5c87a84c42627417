package ports

import (
	"context"
	"time"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// PartnerRepository persists partners and their payout rail state
type PartnerRepository interface {
	GetByID(ctx context.Context, tx DBTX, id string) (*domain.Partner, error)

	// UpdatePayoutState persists the resolver's output. The resolver itself
	// is side-effect free.
	UpdatePayoutState(ctx context.Context, tx DBTX, partnerID string, enabledAt *time.Time, method *domain.PayoutMethod) error

	// AddFeeWaiverUsage records waiver consumption from a payout's fee-free
	// portion as part of the payout-creation transaction
	AddFeeWaiverUsage(ctx context.Context, tx DBTX, partnerID string, cents int64) error

	// ListIDsWithPayableCommissions returns partners in the program with at
	// least one payable commission, for the aggregation sweep
	ListIDsWithPayableCommissions(ctx context.Context, tx DBTX, programID string, limit int32) ([]string, error)
}
