package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// ProgramRepository implements ports.ProgramRepository over pgx
type ProgramRepository struct {
	pool *pgxpool.Pool
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db ports.DBPort) *ProgramRepository {
	return &ProgramRepository{pool: db.GetDB()}
}

func (r *ProgramRepository) exec(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.pool
}

// GetByID retrieves a program's settlement configuration
func (r *ProgramRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Program, error) {
	var p domain.Program
	err := r.exec(tx).QueryRow(ctx, `
		SELECT id, currency, min_payout_amount_cents, hold_current_month
		FROM programs WHERE id = $1`,
		id).Scan(&p.ID, &p.Currency, &p.MinPayoutAmountCents, &p.HoldCurrentMonth)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "program not found").
				WithDetail("program_id", id)
		}
		return nil, fmt.Errorf("get program by id: %w", err)
	}
	return &p, nil
}

// ListIDs returns all program IDs, for the aggregation sweep
func (r *ProgramRepository) ListIDs(ctx context.Context, tx ports.DBTX) ([]string, error) {
	rows, err := r.exec(tx).Query(ctx, `SELECT id FROM programs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list program ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan program id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate program ids: %w", err)
	}
	return ids, nil
}
