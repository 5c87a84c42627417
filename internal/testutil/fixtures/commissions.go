package fixtures

import (
	"time"

	"github.com/google/uuid"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// CommissionBuilder provides a fluent API for building test commissions
type CommissionBuilder struct {
	commission *domain.Commission
}

// NewCommission creates a commission builder with sensible defaults: a
// pending, unbatched sale commission earning $25 on a $100 event.
func NewCommission() *CommissionBuilder {
	now := time.Now().UTC()
	return &CommissionBuilder{
		commission: &domain.Commission{
			ID:        uuid.New().String(),
			ProgramID: uuid.New().String(),
			PartnerID: uuid.New().String(),
			Currency:  "usd",
			Type:      domain.EventTypeSale,
			Status:    domain.CommissionStatusPending,
			Amount:    10000,
			Earnings:  2500,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func (b *CommissionBuilder) WithID(id string) *CommissionBuilder {
	b.commission.ID = id
	return b
}

func (b *CommissionBuilder) WithPartner(partnerID string) *CommissionBuilder {
	b.commission.PartnerID = partnerID
	return b
}

func (b *CommissionBuilder) WithProgram(programID string) *CommissionBuilder {
	b.commission.ProgramID = programID
	return b
}

func (b *CommissionBuilder) WithEarnings(cents int64) *CommissionBuilder {
	b.commission.Earnings = cents
	return b
}

func (b *CommissionBuilder) WithStatus(status domain.CommissionStatus) *CommissionBuilder {
	b.commission.Status = status
	return b
}

func (b *CommissionBuilder) WithPayout(payoutID string) *CommissionBuilder {
	b.commission.PayoutID = &payoutID
	if b.commission.Status == domain.CommissionStatusPending {
		b.commission.Status = domain.CommissionStatusProcessed
	}
	return b
}

func (b *CommissionBuilder) WithCreatedAt(t time.Time) *CommissionBuilder {
	b.commission.CreatedAt = t
	b.commission.UpdatedAt = t
	return b
}

func (b *CommissionBuilder) Click() *CommissionBuilder {
	b.commission.Type = domain.EventTypeClick
	b.commission.Amount = 0
	return b
}

func (b *CommissionBuilder) Lead() *CommissionBuilder {
	b.commission.Type = domain.EventTypeLead
	b.commission.Amount = 0
	return b
}

// Build returns the constructed commission
func (b *CommissionBuilder) Build() *domain.Commission {
	return b.commission
}
