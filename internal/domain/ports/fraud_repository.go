package ports

import (
	"context"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// FraudRepository persists fraud event groups
type FraudRepository interface {
	// HasPendingForPartner reports whether any fraud event group for the
	// partner (any program, any type) is pending
	HasPendingForPartner(ctx context.Context, tx DBTX, partnerID string) (bool, error)

	ListPendingByPartner(ctx context.Context, tx DBTX, partnerID string) ([]*domain.FraudEventGroup, error)

	Resolve(ctx context.Context, tx DBTX, groupID string) error
}
