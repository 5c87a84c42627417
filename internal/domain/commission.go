package domain

import (
	"time"
)

// CommissionStatus represents the payment eligibility of a commission
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusProcessed CommissionStatus = "processed"
	CommissionStatusPaid      CommissionStatus = "paid"
	CommissionStatusRefunded  CommissionStatus = "refunded"
	CommissionStatusDuplicate CommissionStatus = "duplicate"
	CommissionStatusFraud     CommissionStatus = "fraud"
)

// Commission is one attributed conversion event's monetary record.
// Earnings is immutable once Status leaves pending.
type Commission struct {
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	PayoutID  *string          `json:"payout_id"`
	ID        string           `json:"id"`
	ProgramID string           `json:"program_id"`
	PartnerID string           `json:"partner_id"`
	Currency  string           `json:"currency"`
	Type      EventType        `json:"type"`
	Status    CommissionStatus `json:"status"`
	Amount    int64            `json:"amount"`   // gross event value in cents
	Earnings  int64            `json:"earnings"` // partner's computed share in cents
}

// IsPayable returns true if the commission is eligible for aggregation into a
// new payout
func (c *Commission) IsPayable() bool {
	return (c.Status == CommissionStatusPending || c.Status == CommissionStatusProcessed) &&
		c.PayoutID == nil
}

// IsTerminal returns true if the commission can never become payable
func (c *Commission) IsTerminal() bool {
	return c.Status == CommissionStatusRefunded ||
		c.Status == CommissionStatusDuplicate ||
		c.Status == CommissionStatusFraud
}

// CanTransitionTo validates a commission status transition
func (c *Commission) CanTransitionTo(next CommissionStatus) bool {
	if c.Status == next {
		return false
	}
	if c.IsTerminal() {
		return false
	}
	switch c.Status {
	case CommissionStatusPending:
		return true // any non-pending status is reachable from pending
	case CommissionStatusProcessed:
		return next == CommissionStatusPaid ||
			next == CommissionStatusRefunded ||
			next == CommissionStatusFraud
	case CommissionStatusPaid:
		return next == CommissionStatusRefunded
	default:
		return false
	}
}
