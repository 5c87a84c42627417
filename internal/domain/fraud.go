package domain

import (
	"time"
)

// FraudEventGroupStatus represents the review state of a fraud finding group
type FraudEventGroupStatus string

const (
	FraudGroupStatusPending  FraudEventGroupStatus = "pending"
	FraudGroupStatusResolved FraudEventGroupStatus = "resolved"
)

// FraudEventType categorizes the raw findings aggregated into a group
type FraudEventType string

const (
	FraudEventTypeSelfReferral    FraudEventType = "self_referral"
	FraudEventTypeClickFlood      FraudEventType = "click_flood"
	FraudEventTypeChargebackAbuse FraudEventType = "chargeback_abuse"
)

// FraudEventGroup aggregates raw fraud findings by (program, partner, type).
// While any group for a partner is pending, that partner's payouts are held
// regardless of individual commission status.
type FraudEventGroup struct {
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
	ResolvedAt *time.Time            `json:"resolved_at"`
	ID         string                `json:"id"`
	ProgramID  string                `json:"program_id"`
	PartnerID  string                `json:"partner_id"`
	Type       FraudEventType        `json:"type"`
	Status     FraudEventGroupStatus `json:"status"`
	EventCount int                   `json:"event_count"`
}

// IsPending returns true if the group still blocks the partner's payouts
func (g *FraudEventGroup) IsPending() bool {
	return g.Status == FraudGroupStatusPending
}
