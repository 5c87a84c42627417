// Package ledger owns the append-only commission ledger: recording attributed
// conversion events with resolved earnings, and validating status
// transitions.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
	"github.com/payoutcore/settlement-service/internal/services/reward"
	"github.com/payoutcore/settlement-service/pkg/observability"
	"github.com/payoutcore/settlement-service/pkg/timeutil"
)

// Service records conversion events as commissions
type Service struct {
	db             ports.DBPort
	commissionRepo ports.CommissionRepository
	enrollmentRepo ports.EnrollmentRepository
	rewardRepo     ports.RewardRepository
	logger         ports.Logger
}

// NewService creates a new commission ledger service
func NewService(
	db ports.DBPort,
	commissionRepo ports.CommissionRepository,
	enrollmentRepo ports.EnrollmentRepository,
	rewardRepo ports.RewardRepository,
	logger ports.Logger,
) *Service {
	return &Service{
		db:             db,
		commissionRepo: commissionRepo,
		enrollmentRepo: enrollmentRepo,
		rewardRepo:     rewardRepo,
		logger:         logger,
	}
}

// RecordConversionRequest describes one attributed event to append
type RecordConversionRequest struct {
	ProgramID   string
	PartnerID   string
	Event       domain.EventType
	AmountCents int64 // gross event value; zero for clicks/leads
	Currency    string
	Period      int // 1-based billing period of the conversion
	OccurredAt  time.Time
}

// RecordConversion resolves the partner's reward for the event and appends a
// pending commission to the ledger. Earnings are computed once here and are
// immutable after the commission leaves pending.
func (s *Service) RecordConversion(ctx context.Context, req RecordConversionRequest) (*domain.Commission, error) {
	if req.AmountCents < 0 {
		return nil, domain.ErrValidationAmountInvalid.WithDetail("amount", req.AmountCents)
	}

	enrollment, err := s.enrollmentRepo.GetByPartnerAndProgram(ctx, nil, req.PartnerID, req.ProgramID)
	if err != nil {
		return nil, err
	}

	rw, err := s.rewardRepo.GetForEnrollment(ctx, nil, enrollment.ID, req.Event)
	if err != nil {
		return nil, err
	}

	earnings := reward.ResolveEarnings(rw, req.Period, req.AmountCents)

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = timeutil.Now()
	}

	commission := &domain.Commission{
		ID:        uuid.New().String(),
		ProgramID: req.ProgramID,
		PartnerID: req.PartnerID,
		Currency:  req.Currency,
		Type:      req.Event,
		Status:    domain.CommissionStatusPending,
		Amount:    req.AmountCents,
		Earnings:  earnings,
		CreatedAt: occurredAt,
		UpdatedAt: occurredAt,
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.commissionRepo.Create(ctx, tx, commission)
	})
	if err != nil {
		s.logger.Error("record conversion failed",
			ports.String("partner_id", req.PartnerID),
			ports.String("program_id", req.ProgramID),
			ports.Err(err))
		return nil, err
	}

	observability.CommissionsRecorded.WithLabelValues(string(req.Event)).Inc()

	s.logger.Info("commission recorded",
		ports.String("commission_id", commission.ID),
		ports.String("partner_id", req.PartnerID),
		ports.String("event", string(req.Event)),
		ports.Int64("earnings", earnings))

	return commission, nil
}

// UpdateStatus transitions a commission's status, rejecting transitions the
// status model forbids. Terminal statuses (refunded, duplicate, fraud) are
// never left.
func (s *Service) UpdateStatus(ctx context.Context, commissionID string, next domain.CommissionStatus) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		commission, err := s.commissionRepo.GetByID(ctx, tx, commissionID)
		if err != nil {
			return err
		}

		if !commission.CanTransitionTo(next) {
			return domain.ErrCommissionInvalidState.
				WithDetail("commission_id", commissionID).
				WithDetail("from", string(commission.Status)).
				WithDetail("to", string(next))
		}

		return s.commissionRepo.UpdateStatus(ctx, tx, commissionID, next)
	})
}

// ListHeld surfaces commissions whose only blocker is an unresolved fraud
// group, for manual review
func (s *Service) ListHeld(ctx context.Context, programID string, limit int32) ([]*domain.Commission, error) {
	return s.commissionRepo.ListHeld(ctx, nil, programID, limit)
}
