package domain

import (
	"time"
)

// Partner is an identity enrolled in zero or more programs. The payout rail
// identifiers reference externally managed accounts; PayoutsEnabledAt and
// DefaultPayoutMethod are owned by the payout method resolver and persisted
// by its callers.
type Partner struct {
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
	PayoutsEnabledAt      *time.Time    `json:"payouts_enabled_at"`
	DefaultPayoutMethod   *PayoutMethod `json:"default_payout_method"`
	BankAccountID         *string       `json:"bank_account_id"`
	StablecoinRecipientID *string       `json:"stablecoin_recipient_id"`
	PaypalEmail           *string       `json:"paypal_email"`
	ID                    string        `json:"id"`
	Email                 string        `json:"email"`
	FeeWaiverLimitCents   int64         `json:"fee_waiver_limit_cents"` // lifetime allowance of fee-free payout volume
	FeeWaiverUsedCents    int64         `json:"fee_waiver_used_cents"`
}

// PayoutsEnabled returns true if at least one payout rail is active
func (p *Partner) PayoutsEnabled() bool {
	return p.PayoutsEnabledAt != nil
}

// HasPayPal returns true if a verified PayPal email is on file. Presence is
// sufficient; the PayPal rail has no external capability call.
func (p *Partner) HasPayPal() bool {
	return p.PaypalEmail != nil && *p.PaypalEmail != ""
}

// ProgramEnrollment joins a partner to a program and owns the per-event
// reward overrides. Never deleted while commissions reference it.
type ProgramEnrollment struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ClickRewardID *string   `json:"click_reward_id"`
	LeadRewardID  *string   `json:"lead_reward_id"`
	SaleRewardID  *string   `json:"sale_reward_id"`
	DiscountID    *string   `json:"discount_id"`
	ID            string    `json:"id"`
	PartnerID     string    `json:"partner_id"`
	ProgramID     string    `json:"program_id"`
}

// Program holds the settlement-relevant program configuration
type Program struct {
	ID                   string `json:"id"`
	Currency             string `json:"currency"`
	MinPayoutAmountCents int64  `json:"min_payout_amount_cents"`
	HoldCurrentMonth     bool   `json:"hold_current_month"` // exclude the still-accruing UTC month from payouts
}
