package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// PayoutRepository implements ports.PayoutRepository over pgx
type PayoutRepository struct {
	pool *pgxpool.Pool
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db ports.DBPort) *PayoutRepository {
	return &PayoutRepository{pool: db.GetDB()}
}

func (r *PayoutRepository) exec(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.pool
}

const payoutColumns = `id, program_id, partner_id, currency, status, mode, invoice_id, amount, fee, period_start, period_end, created_at, updated_at`

// Create persists a new payout batch
func (r *PayoutRepository) Create(ctx context.Context, tx ports.DBTX, payout *domain.Payout) error {
	var mode *string
	if payout.Mode != nil {
		s := string(*payout.Mode)
		mode = &s
	}

	_, err := r.exec(tx).Exec(ctx, `
		INSERT INTO payouts (id, program_id, partner_id, currency, status, mode, invoice_id, amount, fee, period_start, period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		payout.ID,
		payout.ProgramID,
		payout.PartnerID,
		payout.Currency,
		string(payout.Status),
		nullText(mode),
		nullText(payout.InvoiceID),
		payout.Amount,
		payout.Fee,
		payout.PeriodStart,
		payout.PeriodEnd,
		payout.CreatedAt,
		payout.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payout: %w", err)
	}
	return nil
}

// GetByID retrieves a payout by its ID
func (r *PayoutRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Payout, error) {
	row := r.exec(tx).QueryRow(ctx,
		`SELECT `+payoutColumns+` FROM payouts WHERE id = $1`, id)

	payout, err := scanPayout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPayoutNotFound.WithDetail("payout_id", id)
		}
		return nil, fmt.Errorf("get payout by id: %w", err)
	}
	return payout, nil
}

// GetOpenForUpdate returns the open payout for the partner/program pair,
// row-locked, or nil when none exists. The lock serializes concurrent
// aggregation runs for the same partner.
func (r *PayoutRepository) GetOpenForUpdate(ctx context.Context, tx ports.DBTX, partnerID, programID string) (*domain.Payout, error) {
	row := r.exec(tx).QueryRow(ctx, `
		SELECT `+payoutColumns+`
		FROM payouts
		WHERE partner_id = $1
		  AND program_id = $2
		  AND status IN ('pending', 'processing')
		FOR UPDATE`,
		partnerID, programID)

	payout, err := scanPayout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open payout: %w", err)
	}
	return payout, nil
}

// UpdateStatus transitions a payout's status
func (r *PayoutRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status domain.PayoutStatus) error {
	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE payouts SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPayoutNotFound.WithDetail("payout_id", id)
	}
	return nil
}

// SetMode records the rail the transfer was attempted over. Guarded on mode
// IS NULL: once fixed, the rail is never rewritten.
func (r *PayoutRepository) SetMode(ctx context.Context, tx ports.DBTX, id string, mode domain.PayoutMethod) error {
	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE payouts SET mode = $1, updated_at = now() WHERE id = $2 AND mode IS NULL`,
		string(mode), id)
	if err != nil {
		return fmt.Errorf("set payout mode: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPayoutInvalidState.
			WithDetail("payout_id", id).
			WithDetail("reason", "mode already fixed")
	}
	return nil
}

// LinkInvoice attaches the funding invoice reference
func (r *PayoutRepository) LinkInvoice(ctx context.Context, tx ports.DBTX, id string, invoiceID string) error {
	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE payouts SET invoice_id = $1, updated_at = now() WHERE id = $2`,
		invoiceID, id)
	if err != nil {
		return fmt.Errorf("link payout invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPayoutNotFound.WithDetail("payout_id", id)
	}
	return nil
}

// ListByStatus lists payouts in the given status, oldest first
func (r *PayoutRepository) ListByStatus(ctx context.Context, tx ports.DBTX, status domain.PayoutStatus, limit int32) ([]*domain.Payout, error) {
	rows, err := r.exec(tx).Query(ctx, `
		SELECT `+payoutColumns+`
		FROM payouts
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list payouts by status: %w", err)
	}
	defer rows.Close()

	var payouts []*domain.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payouts: %w", err)
	}
	return payouts, nil
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	var p domain.Payout
	var status string
	var mode, invoiceID pgtype.Text

	err := row.Scan(
		&p.ID,
		&p.ProgramID,
		&p.PartnerID,
		&p.Currency,
		&status,
		&mode,
		&invoiceID,
		&p.Amount,
		&p.Fee,
		&p.PeriodStart,
		&p.PeriodEnd,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = domain.PayoutStatus(status)
	p.InvoiceID = textPtr(invoiceID)
	if mode.Valid {
		m := domain.PayoutMethod(mode.String)
		p.Mode = &m
	}
	return &p, nil
}
