package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// PartnerBuilder provides a fluent API for building test partners
type PartnerBuilder struct {
	partner *domain.Partner
}

// NewPartner creates a partner builder with sensible defaults: enrolled,
// payouts enabled over the bank rail, no fee waiver.
func NewPartner() *PartnerBuilder {
	now := time.Now().UTC()
	enabledAt := now.Add(-30 * 24 * time.Hour)
	method := domain.PayoutMethodBankTransfer
	return &PartnerBuilder{
		partner: &domain.Partner{
			ID:                  uuid.New().String(),
			Email:               "partner@example.com",
			PayoutsEnabledAt:    &enabledAt,
			DefaultPayoutMethod: &method,
			BankAccountID:       StringPtr("acct_" + uuid.New().String()[:8]),
			CreatedAt:           now,
			UpdatedAt:           now,
		},
	}
}

func (b *PartnerBuilder) WithID(id string) *PartnerBuilder {
	b.partner.ID = id
	return b
}

func (b *PartnerBuilder) WithPayoutsDisabled() *PartnerBuilder {
	b.partner.PayoutsEnabledAt = nil
	b.partner.DefaultPayoutMethod = nil
	return b
}

func (b *PartnerBuilder) WithDefaultMethod(m domain.PayoutMethod) *PartnerBuilder {
	b.partner.DefaultPayoutMethod = &m
	return b
}

func (b *PartnerBuilder) WithBankAccount(accountID string) *PartnerBuilder {
	b.partner.BankAccountID = &accountID
	return b
}

func (b *PartnerBuilder) WithStablecoinRecipient(recipientID string) *PartnerBuilder {
	b.partner.StablecoinRecipientID = &recipientID
	return b
}

func (b *PartnerBuilder) WithPayPal(email string) *PartnerBuilder {
	b.partner.PaypalEmail = &email
	return b
}

func (b *PartnerBuilder) WithFeeWaiver(limitCents, usedCents int64) *PartnerBuilder {
	b.partner.FeeWaiverLimitCents = limitCents
	b.partner.FeeWaiverUsedCents = usedCents
	return b
}

// Build returns the constructed partner
func (b *PartnerBuilder) Build() *domain.Partner {
	return b.partner
}

// NewProgram returns a program with a $100 payout floor in USD
func NewProgram() *domain.Program {
	return &domain.Program{
		ID:                   uuid.New().String(),
		Currency:             "usd",
		MinPayoutAmountCents: 10000,
	}
}
