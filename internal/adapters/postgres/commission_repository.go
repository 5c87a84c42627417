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

// CommissionRepository implements ports.CommissionRepository over pgx
type CommissionRepository struct {
	pool *pgxpool.Pool
}

// NewCommissionRepository creates a new commission repository
func NewCommissionRepository(db ports.DBPort) *CommissionRepository {
	return &CommissionRepository{pool: db.GetDB()}
}

func (r *CommissionRepository) exec(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.pool
}

const commissionColumns = `id, program_id, partner_id, payout_id, currency, type, status, amount, earnings, created_at, updated_at`

// Create appends a new commission to the ledger
func (r *CommissionRepository) Create(ctx context.Context, tx ports.DBTX, commission *domain.Commission) error {
	_, err := r.exec(tx).Exec(ctx, `
		INSERT INTO commissions (id, program_id, partner_id, payout_id, currency, type, status, amount, earnings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		commission.ID,
		commission.ProgramID,
		commission.PartnerID,
		nullText(commission.PayoutID),
		commission.Currency,
		string(commission.Type),
		string(commission.Status),
		commission.Amount,
		commission.Earnings,
		commission.CreatedAt,
		commission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create commission: %w", err)
	}
	return nil
}

// GetByID retrieves a commission by its ID
func (r *CommissionRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Commission, error) {
	row := r.exec(tx).QueryRow(ctx,
		`SELECT `+commissionColumns+` FROM commissions WHERE id = $1`, id)

	commission, err := scanCommission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCommissionNotFound.WithDetail("commission_id", id)
		}
		return nil, fmt.Errorf("get commission by id: %w", err)
	}
	return commission, nil
}

// ListPayableForUpdate selects and row-locks the payable commissions in the
// accrual window. SKIP LOCKED is deliberately not used: a concurrent
// aggregation run must block and then observe the assigned payout_id rather
// than silently batch a subset.
func (r *CommissionRepository) ListPayableForUpdate(ctx context.Context, tx ports.DBTX, partnerID, programID string, periodStart, periodEnd time.Time) ([]*domain.Commission, error) {
	rows, err := r.exec(tx).Query(ctx, `
		SELECT `+commissionColumns+`
		FROM commissions
		WHERE partner_id = $1
		  AND program_id = $2
		  AND status IN ('pending', 'processed')
		  AND payout_id IS NULL
		  AND created_at >= $3
		  AND created_at < $4
		ORDER BY created_at
		FOR UPDATE`,
		partnerID, programID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("list payable commissions: %w", err)
	}
	defer rows.Close()

	return collectCommissions(rows)
}

// AssignPayout stamps payout_id on the given commissions and transitions
// pending ones to processed. Guarded on payout_id IS NULL; a shortfall in
// affected rows means another payout claimed one of them first.
func (r *CommissionRepository) AssignPayout(ctx context.Context, tx ports.DBTX, commissionIDs []string, payoutID string) error {
	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE commissions
		SET payout_id = $1,
		    status = CASE WHEN status = 'pending' THEN 'processed' ELSE status END,
		    updated_at = now()
		WHERE id = ANY($2)
		  AND payout_id IS NULL`,
		payoutID, commissionIDs)
	if err != nil {
		return fmt.Errorf("assign payout to commissions: %w", err)
	}

	if tag.RowsAffected() != int64(len(commissionIDs)) {
		return domain.ErrCommissionAlreadyBatched.
			WithDetail("payout_id", payoutID).
			WithDetail("requested", len(commissionIDs)).
			WithDetail("assigned", tag.RowsAffected())
	}
	return nil
}

// UpdateStatus transitions a commission's status
func (r *CommissionRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status domain.CommissionStatus) error {
	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE commissions SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update commission status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommissionNotFound.WithDetail("commission_id", id)
	}
	return nil
}

// MarkPaidByPayout transitions every commission linked to the payout to paid
func (r *CommissionRepository) MarkPaidByPayout(ctx context.Context, tx ports.DBTX, payoutID string) error {
	_, err := r.exec(tx).Exec(ctx, `
		UPDATE commissions SET status = 'paid', updated_at = now() WHERE payout_id = $1`,
		payoutID)
	if err != nil {
		return fmt.Errorf("mark commissions paid: %w", err)
	}
	return nil
}

// ListHeld returns commissions payable on their own terms whose partner has a
// pending fraud event group
func (r *CommissionRepository) ListHeld(ctx context.Context, tx ports.DBTX, programID string, limit int32) ([]*domain.Commission, error) {
	rows, err := r.exec(tx).Query(ctx, `
		SELECT `+commissionColumns+`
		FROM commissions c
		WHERE c.program_id = $1
		  AND c.status IN ('pending', 'processed')
		  AND c.payout_id IS NULL
		  AND EXISTS (
			SELECT 1 FROM fraud_event_groups f
			WHERE f.partner_id = c.partner_id AND f.status = 'pending'
		  )
		ORDER BY c.created_at
		LIMIT $2`,
		programID, limit)
	if err != nil {
		return nil, fmt.Errorf("list held commissions: %w", err)
	}
	defer rows.Close()

	return collectCommissions(rows)
}

func scanCommission(row pgx.Row) (*domain.Commission, error) {
	var c domain.Commission
	var payoutID pgtype.Text
	var eventType, status string

	err := row.Scan(
		&c.ID,
		&c.ProgramID,
		&c.PartnerID,
		&payoutID,
		&c.Currency,
		&eventType,
		&status,
		&c.Amount,
		&c.Earnings,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.PayoutID = textPtr(payoutID)
	c.Type = domain.EventType(eventType)
	c.Status = domain.CommissionStatus(status)
	return &c, nil
}

func collectCommissions(rows pgx.Rows) ([]*domain.Commission, error) {
	var commissions []*domain.Commission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commission: %w", err)
		}
		commissions = append(commissions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commissions: %w", err)
	}
	return commissions, nil
}
