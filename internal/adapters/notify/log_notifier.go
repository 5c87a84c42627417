// Package notify provides Notifier implementations. Delivery mechanics
// (email, webhooks) live outside the settlement core; this logging
// implementation records the events for downstream consumers.
package notify

import (
	"context"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// LogNotifier implements ports.Notifier by emitting structured log events
type LogNotifier struct {
	logger ports.Logger
}

// NewLogNotifier creates a new logging notifier
func NewLogNotifier(logger ports.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// PayoutConfirmed records a completed payout transfer
func (n *LogNotifier) PayoutConfirmed(ctx context.Context, payout *domain.Payout) {
	mode := ""
	if payout.Mode != nil {
		mode = string(*payout.Mode)
	}
	n.logger.Info("notify: payout confirmed",
		ports.String("payout_id", payout.ID),
		ports.String("partner_id", payout.PartnerID),
		ports.String("mode", mode),
		ports.Int64("amount", payout.Amount),
	)
}

// RewardUpdated records a change to a partner's effective reward
func (n *LogNotifier) RewardUpdated(ctx context.Context, partnerID string, reward *domain.Reward) {
	n.logger.Info("notify: reward updated",
		ports.String("partner_id", partnerID),
		ports.String("reward_id", reward.ID),
		ports.String("event", string(reward.Event)),
	)
}
