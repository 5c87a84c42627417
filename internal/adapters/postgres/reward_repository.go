package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// RewardRepository implements ports.RewardRepository over pgx. Modifiers are
// stored as a JSONB document on the reward row; they are read-only from the
// settlement engine's point of view.
type RewardRepository struct {
	pool *pgxpool.Pool
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db ports.DBPort) *RewardRepository {
	return &RewardRepository{pool: db.GetDB()}
}

func (r *RewardRepository) exec(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.pool
}

// GetByID retrieves a reward by its ID
func (r *RewardRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Reward, error) {
	row := r.exec(tx).QueryRow(ctx, `
		SELECT id, program_id, event, type, amount, max_duration, modifiers
		FROM rewards WHERE id = $1`,
		id)

	reward, err := scanReward(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRewardNotFound.WithDetail("reward_id", id)
		}
		return nil, fmt.Errorf("get reward by id: %w", err)
	}
	return reward, nil
}

// GetForEnrollment returns the reward governing the event for an enrollment:
// the per-event override when present, else the program default for the
// event. ErrRewardNotFound when the program does not reward the event.
func (r *RewardRepository) GetForEnrollment(ctx context.Context, tx ports.DBTX, enrollmentID string, event domain.EventType) (*domain.Reward, error) {
	row := r.exec(tx).QueryRow(ctx, `
		SELECT rw.id, rw.program_id, rw.event, rw.type, rw.amount, rw.max_duration, rw.modifiers
		FROM program_enrollments en
		JOIN rewards rw ON rw.id = COALESCE(
			CASE $2
				WHEN 'click' THEN en.click_reward_id
				WHEN 'lead'  THEN en.lead_reward_id
				WHEN 'sale'  THEN en.sale_reward_id
			END,
			(SELECT id FROM rewards
			 WHERE program_id = en.program_id AND event = $2 AND is_default
			 LIMIT 1)
		)
		WHERE en.id = $1`,
		enrollmentID, string(event))

	reward, err := scanReward(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRewardNotFound.
				WithDetail("enrollment_id", enrollmentID).
				WithDetail("event", string(event))
		}
		return nil, fmt.Errorf("get reward for enrollment: %w", err)
	}
	return reward, nil
}

func scanReward(row pgx.Row) (*domain.Reward, error) {
	var rw domain.Reward
	var event, rewardType string
	var maxDuration pgtype.Int4
	var modifiersJSON []byte

	err := row.Scan(
		&rw.ID,
		&rw.ProgramID,
		&event,
		&rewardType,
		&rw.Amount,
		&maxDuration,
		&modifiersJSON,
	)
	if err != nil {
		return nil, err
	}

	rw.Event = domain.EventType(event)
	rw.Type = domain.RewardType(rewardType)
	rw.MaxDuration = intPtr(maxDuration)

	if len(modifiersJSON) > 0 {
		if err := json.Unmarshal(modifiersJSON, &rw.Modifiers); err != nil {
			return nil, fmt.Errorf("unmarshal reward modifiers: %w", err)
		}
	}
	return &rw, nil
}

// EnrollmentRepository implements ports.EnrollmentRepository over pgx
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db ports.DBPort) *EnrollmentRepository {
	return &EnrollmentRepository{pool: db.GetDB()}
}

func (r *EnrollmentRepository) exec(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.pool
}

// GetByPartnerAndProgram retrieves the partner's enrollment in a program
func (r *EnrollmentRepository) GetByPartnerAndProgram(ctx context.Context, tx ports.DBTX, partnerID, programID string) (*domain.ProgramEnrollment, error) {
	var en domain.ProgramEnrollment
	var clickRewardID, leadRewardID, saleRewardID, discountID pgtype.Text

	err := r.exec(tx).QueryRow(ctx, `
		SELECT id, partner_id, program_id, click_reward_id, lead_reward_id, sale_reward_id, discount_id, created_at, updated_at
		FROM program_enrollments
		WHERE partner_id = $1 AND program_id = $2`,
		partnerID, programID).Scan(
		&en.ID,
		&en.PartnerID,
		&en.ProgramID,
		&clickRewardID,
		&leadRewardID,
		&saleRewardID,
		&discountID,
		&en.CreatedAt,
		&en.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPartnerNotFound.
				WithDetail("partner_id", partnerID).
				WithDetail("program_id", programID)
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	en.ClickRewardID = textPtr(clickRewardID)
	en.LeadRewardID = textPtr(leadRewardID)
	en.SaleRewardID = textPtr(saleRewardID)
	en.DiscountID = textPtr(discountID)
	return &en, nil
}
