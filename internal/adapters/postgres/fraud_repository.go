package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// FraudRepository implements ports.FraudRepository over pgx
type FraudRepository struct {
	pool *pgxpool.Pool
}

// NewFraudRepository creates a new fraud event group repository
func NewFraudRepository(db ports.DBPort) *FraudRepository {
	return &FraudRepository{pool: db.GetDB()}
}

func (r *FraudRepository) exec(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.pool
}

// HasPendingForPartner reports whether any fraud event group for the partner,
// in any program and of any type, is pending
func (r *FraudRepository) HasPendingForPartner(ctx context.Context, tx ports.DBTX, partnerID string) (bool, error) {
	var held bool
	err := r.exec(tx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM fraud_event_groups WHERE partner_id = $1 AND status = 'pending'
		)`,
		partnerID).Scan(&held)
	if err != nil {
		return false, fmt.Errorf("check pending fraud groups: %w", err)
	}
	return held, nil
}

// ListPendingByPartner returns the partner's unresolved fraud event groups
func (r *FraudRepository) ListPendingByPartner(ctx context.Context, tx ports.DBTX, partnerID string) ([]*domain.FraudEventGroup, error) {
	rows, err := r.exec(tx).Query(ctx, `
		SELECT id, program_id, partner_id, type, status, event_count, resolved_at, created_at, updated_at
		FROM fraud_event_groups
		WHERE partner_id = $1 AND status = 'pending'
		ORDER BY created_at`,
		partnerID)
	if err != nil {
		return nil, fmt.Errorf("list pending fraud groups: %w", err)
	}
	defer rows.Close()

	var groups []*domain.FraudEventGroup
	for rows.Next() {
		var g domain.FraudEventGroup
		var groupType, status string
		var resolvedAt pgtype.Timestamptz

		if err := rows.Scan(
			&g.ID,
			&g.ProgramID,
			&g.PartnerID,
			&groupType,
			&status,
			&g.EventCount,
			&resolvedAt,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan fraud group: %w", err)
		}

		g.Type = domain.FraudEventType(groupType)
		g.Status = domain.FraudEventGroupStatus(status)
		g.ResolvedAt = timePtr(resolvedAt)
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fraud groups: %w", err)
	}
	return groups, nil
}

// Resolve marks a fraud event group resolved
func (r *FraudRepository) Resolve(ctx context.Context, tx ports.DBTX, groupID string) error {
	_, err := r.exec(tx).Exec(ctx, `
		UPDATE fraud_event_groups
		SET status = 'resolved', resolved_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'`,
		groupID)
	if err != nil {
		return fmt.Errorf("resolve fraud group: %w", err)
	}
	return nil
}
