package domain

import (
	"time"
)

// InvoiceStatus represents the state of a funding charge
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusFailed  InvoiceStatus = "failed"
)

// InvoiceType represents what a funding charge finances
type InvoiceType string

const (
	InvoiceTypePartnerPayout InvoiceType = "partner_payout"
	InvoiceTypeDomainRenewal InvoiceType = "domain_renewal"
	InvoiceTypeOneOff        InvoiceType = "one_off"
)

// MaxInvoiceRetries is the hard cap on funding retry attempts. At the cap the
// retry controller reports terminal failure and takes no further action.
const MaxInvoiceRetries = 3

// Invoice is the funding charge backing one or more payouts
type Invoice struct {
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
	BillingAccountID *string       `json:"billing_account_id"`
	ID               string        `json:"id"`
	WorkspaceID      string        `json:"workspace_id"`
	Type             InvoiceType   `json:"type"`
	Status           InvoiceStatus `json:"status"`
	FailedAttempts   int           `json:"failed_attempts"`
	Total            int64         `json:"total"` // cents
}

// RetriesExhausted returns true if the invoice has hit the retry cap
func (i *Invoice) RetriesExhausted() bool {
	return i.FailedAttempts >= MaxInvoiceRetries
}

// HasBillingAccount returns true if the owning workspace has an active
// billing account reference to charge against
func (i *Invoice) HasBillingAccount() bool {
	return i.BillingAccountID != nil && *i.BillingAccountID != ""
}
