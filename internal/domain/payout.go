package domain

import (
	"time"
)

// PayoutStatus represents the state of a payout batch
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
	PayoutStatusCanceled   PayoutStatus = "canceled"
)

// PayoutMethod represents an external payment rail a partner may receive
// funds through
type PayoutMethod string

const (
	PayoutMethodStablecoin   PayoutMethod = "stablecoin"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
	PayoutMethodPayPal       PayoutMethod = "paypal"
)

// MethodPriority is the fixed default-selection order: the first active rail
// in this list wins. Adding a future rail is a one-line change here.
var MethodPriority = []PayoutMethod{
	PayoutMethodStablecoin,
	PayoutMethodBankTransfer,
	PayoutMethodPayPal,
}

// Payout is a batched, payable aggregation of one partner's eligible
// commissions for a period. Amount is net of Fee. Mode is fixed once a
// transfer has been attempted, even if the partner's default method changes.
type Payout struct {
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Mode        *PayoutMethod `json:"mode"`
	InvoiceID   *string       `json:"invoice_id"`
	ID          string        `json:"id"`
	ProgramID   string        `json:"program_id"`
	PartnerID   string        `json:"partner_id"`
	Currency    string        `json:"currency"`
	Status      PayoutStatus  `json:"status"`
	Amount      int64         `json:"amount"` // net payable in cents
	Fee         int64         `json:"fee"`    // transfer fee in cents
}

// IsOpen returns true if the payout has not yet reached a terminal state
func (p *Payout) IsOpen() bool {
	return p.Status == PayoutStatusPending || p.Status == PayoutStatusProcessing
}

// CanTransitionTo validates a payout status transition
func (p *Payout) CanTransitionTo(next PayoutStatus) bool {
	switch p.Status {
	case PayoutStatusPending:
		return next == PayoutStatusProcessing || next == PayoutStatusCanceled
	case PayoutStatusProcessing:
		return next == PayoutStatusCompleted || next == PayoutStatusFailed
	case PayoutStatusFailed:
		// a failed transfer may be re-attempted or abandoned
		return next == PayoutStatusProcessing || next == PayoutStatusCanceled
	default:
		return false
	}
}
