package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// PartnerRepository implements ports.PartnerRepository over pgx
type PartnerRepository struct {
	pool *pgxpool.Pool
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db ports.DBPort) *PartnerRepository {
	return &PartnerRepository{pool: db.GetDB()}
}

func (r *PartnerRepository) exec(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.pool
}

// GetByID retrieves a partner by its ID
func (r *PartnerRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Partner, error) {
	var p domain.Partner
	var payoutsEnabledAt pgtype.Timestamptz
	var defaultMethod, bankAccountID, stablecoinRecipientID, paypalEmail pgtype.Text

	err := r.exec(tx).QueryRow(ctx, `
		SELECT id, email, payouts_enabled_at, default_payout_method,
		       bank_account_id, stablecoin_recipient_id, paypal_email,
		       fee_waiver_limit_cents, fee_waiver_used_cents,
		       created_at, updated_at
		FROM partners WHERE id = $1`,
		id).Scan(
		&p.ID,
		&p.Email,
		&payoutsEnabledAt,
		&defaultMethod,
		&bankAccountID,
		&stablecoinRecipientID,
		&paypalEmail,
		&p.FeeWaiverLimitCents,
		&p.FeeWaiverUsedCents,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPartnerNotFound.WithDetail("partner_id", id)
		}
		return nil, fmt.Errorf("get partner by id: %w", err)
	}

	p.PayoutsEnabledAt = timePtr(payoutsEnabledAt)
	p.BankAccountID = textPtr(bankAccountID)
	p.StablecoinRecipientID = textPtr(stablecoinRecipientID)
	p.PaypalEmail = textPtr(paypalEmail)
	if defaultMethod.Valid {
		m := domain.PayoutMethod(defaultMethod.String)
		p.DefaultPayoutMethod = &m
	}
	return &p, nil
}

// UpdatePayoutState persists the payout method resolver's output
func (r *PartnerRepository) UpdatePayoutState(ctx context.Context, tx ports.DBTX, partnerID string, enabledAt *time.Time, method *domain.PayoutMethod) error {
	var methodStr *string
	if method != nil {
		s := string(*method)
		methodStr = &s
	}

	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE partners
		SET payouts_enabled_at = $1, default_payout_method = $2, updated_at = now()
		WHERE id = $3`,
		nullTimestamptz(enabledAt), nullText(methodStr), partnerID)
	if err != nil {
		return fmt.Errorf("update partner payout state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPartnerNotFound.WithDetail("partner_id", partnerID)
	}
	return nil
}

// AddFeeWaiverUsage records waiver consumption from a payout's fee-free
// portion, as part of the payout-creation transaction
func (r *PartnerRepository) AddFeeWaiverUsage(ctx context.Context, tx ports.DBTX, partnerID string, cents int64) error {
	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE partners
		SET fee_waiver_used_cents = fee_waiver_used_cents + $1, updated_at = now()
		WHERE id = $2`,
		cents, partnerID)
	if err != nil {
		return fmt.Errorf("add fee waiver usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPartnerNotFound.WithDetail("partner_id", partnerID)
	}
	return nil
}

// ListIDsWithPayableCommissions returns partners in the program with at least
// one payable commission, for the aggregation sweep
func (r *PartnerRepository) ListIDsWithPayableCommissions(ctx context.Context, tx ports.DBTX, programID string, limit int32) ([]string, error) {
	rows, err := r.exec(tx).Query(ctx, `
		SELECT DISTINCT partner_id
		FROM commissions
		WHERE program_id = $1
		  AND status IN ('pending', 'processed')
		  AND payout_id IS NULL
		LIMIT $2`,
		programID, limit)
	if err != nil {
		return nil, fmt.Errorf("list partners with payable commissions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan partner id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partner ids: %w", err)
	}
	return ids, nil
}
