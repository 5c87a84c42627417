package ports

import (
	"context"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// Notifier emits settlement events after terminal state transitions. The
// delivery mechanics (email, webhooks) are outside this core.
type Notifier interface {
	PayoutConfirmed(ctx context.Context, payout *domain.Payout)
	RewardUpdated(ctx context.Context, partnerID string, reward *domain.Reward)
}
