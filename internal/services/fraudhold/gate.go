// Package fraudhold gates payout eligibility on unresolved fraud findings.
package fraudhold

import (
	"context"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// Service answers the payout-eligibility predicate over fraud event groups
type Service struct {
	fraudRepo ports.FraudRepository
	logger    ports.Logger
}

// NewService creates a new fraud hold gate
func NewService(fraudRepo ports.FraudRepository, logger ports.Logger) *Service {
	return &Service{
		fraudRepo: fraudRepo,
		logger:    logger,
	}
}

// IsHeld reports whether the partner's payouts are held: true iff at least
// one fraud event group for the partner, in any program and of any type, is
// pending. The read must share consistency with the payout-creation
// transaction, so tx is threaded through.
func (s *Service) IsHeld(ctx context.Context, tx ports.DBTX, partnerID string) (bool, error) {
	held, err := s.fraudRepo.HasPendingForPartner(ctx, tx, partnerID)
	if err != nil {
		return false, domain.WrapError(domain.ErrorCodeDatabaseError, "fraud hold check failed", err).
			WithDetail("partner_id", partnerID)
	}
	return held, nil
}

// Resolve marks a fraud event group resolved, lifting its contribution to
// the partner's hold
func (s *Service) Resolve(ctx context.Context, tx ports.DBTX, groupID string) error {
	if err := s.fraudRepo.Resolve(ctx, tx, groupID); err != nil {
		return err
	}
	s.logger.Info("fraud event group resolved", ports.String("group_id", groupID))
	return nil
}

// PendingGroups lists the partner's unresolved fraud event groups for review
func (s *Service) PendingGroups(ctx context.Context, partnerID string) ([]*domain.FraudEventGroup, error) {
	return s.fraudRepo.ListPendingByPartner(ctx, nil, partnerID)
}
