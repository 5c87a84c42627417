// Package payout batches a partner's eligible commissions into payable
// amounts, applies the transfer fee, and drives payout status transitions
// through transfer execution.
package payout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
	"github.com/payoutcore/settlement-service/internal/services/fee"
	"github.com/payoutcore/settlement-service/internal/services/fraudhold"
	"github.com/payoutcore/settlement-service/pkg/observability"
	"github.com/payoutcore/settlement-service/pkg/timeutil"
)

// Service aggregates commissions into payouts
type Service struct {
	db             ports.DBPort
	commissionRepo ports.CommissionRepository
	payoutRepo     ports.PayoutRepository
	partnerRepo    ports.PartnerRepository
	programRepo    ports.ProgramRepository
	fraudGate      *fraudhold.Service
	notifier       ports.Notifier
	logger         ports.Logger
	feeRate        decimal.Decimal
}

// NewService creates a new payout aggregator
func NewService(
	db ports.DBPort,
	commissionRepo ports.CommissionRepository,
	payoutRepo ports.PayoutRepository,
	partnerRepo ports.PartnerRepository,
	programRepo ports.ProgramRepository,
	fraudGate *fraudhold.Service,
	notifier ports.Notifier,
	logger ports.Logger,
	feeRate decimal.Decimal,
) *Service {
	return &Service{
		db:             db,
		commissionRepo: commissionRepo,
		payoutRepo:     payoutRepo,
		partnerRepo:    partnerRepo,
		programRepo:    programRepo,
		fraudGate:      fraudGate,
		notifier:       notifier,
		logger:         logger,
		feeRate:        feeRate,
	}
}

// CreatePayoutRequest selects the accrual window to batch
type CreatePayoutRequest struct {
	PartnerID           string
	ProgramID           string
	PeriodStart         time.Time
	PeriodEnd           time.Time
	ExcludeCurrentMonth bool   // hold back the still-accruing UTC month
	FastACHFeeCents     *int64 // optional expedited-transfer surcharge
}

// CreatePayout batches the partner's payable commissions in the window into
// a new pending payout.
//
// Eligibility is three independent AND-combined filters: the partner must
// not be under a fraud hold, the batched amount must meet the program floor,
// and the partner must have an enabled payout method. Commission linkage is
// all-or-nothing: every selected commission is stamped with the payout id
// and the payout created, or the transaction rolls back. Selected rows are
// locked and the open-payout check serializes concurrent runs for the same
// partner.
func (s *Service) CreatePayout(ctx context.Context, req CreatePayoutRequest) (*domain.Payout, error) {
	var payout *domain.Payout

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		partner, err := s.partnerRepo.GetByID(ctx, tx, req.PartnerID)
		if err != nil {
			return err
		}
		program, err := s.programRepo.GetByID(ctx, tx, req.ProgramID)
		if err != nil {
			return err
		}

		if !partner.PayoutsEnabled() {
			return domain.ErrPayoutsDisabled.WithDetail("partner_id", partner.ID)
		}

		held, err := s.fraudGate.IsHeld(ctx, tx, partner.ID)
		if err != nil {
			return err
		}
		if held {
			observability.FraudHolds.Inc()
			return domain.ErrPayoutHeld.WithDetail("partner_id", partner.ID)
		}

		open, err := s.payoutRepo.GetOpenForUpdate(ctx, tx, req.PartnerID, req.ProgramID)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrPayoutOpenExists.WithDetail("payout_id", open.ID)
		}

		periodEnd := req.PeriodEnd
		if req.ExcludeCurrentMonth {
			boundary := timeutil.StartOfMonth(timeutil.Now())
			if periodEnd.After(boundary) {
				periodEnd = boundary
			}
		}

		commissions, err := s.commissionRepo.ListPayableForUpdate(ctx, tx, req.PartnerID, req.ProgramID, req.PeriodStart, periodEnd)
		if err != nil {
			return err
		}
		if len(commissions) == 0 {
			return domain.ErrPayoutNothingToPay.WithDetail("partner_id", partner.ID)
		}

		var total int64
		ids := make([]string, len(commissions))
		for i, c := range commissions {
			total += c.Earnings
			ids[i] = c.ID
		}

		if total < program.MinPayoutAmountCents {
			return domain.ErrPayoutBelowMinimum.
				WithDetail("amount", total).
				WithDetail("minimum", program.MinPayoutAmountCents)
		}

		feeResult := fee.Calculate(total, s.feeRate, partner.FeeWaiverLimitCents, partner.FeeWaiverUsedCents, req.FastACHFeeCents)

		now := timeutil.Now()
		payout = &domain.Payout{
			ID:          uuid.New().String(),
			ProgramID:   req.ProgramID,
			PartnerID:   req.PartnerID,
			Currency:    program.Currency,
			Status:      domain.PayoutStatusPending,
			Amount:      total - feeResult.Fee,
			Fee:         feeResult.Fee,
			PeriodStart: req.PeriodStart,
			PeriodEnd:   periodEnd,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.payoutRepo.Create(ctx, tx, payout); err != nil {
			return err
		}
		if err := s.commissionRepo.AssignPayout(ctx, tx, ids, payout.ID); err != nil {
			return err
		}
		if feeResult.FeeFreeAmount > 0 {
			if err := s.partnerRepo.AddFeeWaiverUsage(ctx, tx, partner.ID, feeResult.FeeFreeAmount); err != nil {
				return err
			}
			observability.FeeWaiverConsumedCents.Add(float64(feeResult.FeeFreeAmount))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.PayoutsCreated.WithLabelValues(req.ProgramID).Inc()
	observability.PayoutAmountCents.Observe(float64(payout.Amount))
	observability.FeesChargedCents.Add(float64(payout.Fee))

	s.logger.Info("payout created",
		ports.String("payout_id", payout.ID),
		ports.String("partner_id", req.PartnerID),
		ports.Int64("amount", payout.Amount),
		ports.Int64("fee", payout.Fee))

	return payout, nil
}

// BeginTransfer moves a pending payout to processing and fixes its rail.
//
// The hold check here is the authoritative gate before money moves; the one
// at creation time tolerates a staleness window. The payout's mode is set
// from the partner's default on the first transfer attempt and never
// rewritten afterwards, even if the default later changes.
func (s *Service) BeginTransfer(ctx context.Context, payoutID string) (*domain.Payout, error) {
	var payout *domain.Payout

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		payout, err = s.payoutRepo.GetByID(ctx, tx, payoutID)
		if err != nil {
			return err
		}

		if !payout.CanTransitionTo(domain.PayoutStatusProcessing) {
			return domain.ErrPayoutInvalidState.
				WithDetail("payout_id", payoutID).
				WithDetail("status", string(payout.Status))
		}

		held, err := s.fraudGate.IsHeld(ctx, tx, payout.PartnerID)
		if err != nil {
			return err
		}
		if held {
			return domain.ErrPayoutHeld.WithDetail("partner_id", payout.PartnerID)
		}

		if payout.Mode == nil {
			partner, err := s.partnerRepo.GetByID(ctx, tx, payout.PartnerID)
			if err != nil {
				return err
			}
			if partner.DefaultPayoutMethod == nil {
				return domain.ErrPayoutMethodMissing.WithDetail("partner_id", payout.PartnerID)
			}
			if err := s.payoutRepo.SetMode(ctx, tx, payoutID, *partner.DefaultPayoutMethod); err != nil {
				return err
			}
			payout.Mode = partner.DefaultPayoutMethod
		}

		if err := s.payoutRepo.UpdateStatus(ctx, tx, payoutID, domain.PayoutStatusProcessing); err != nil {
			return err
		}
		payout.Status = domain.PayoutStatusProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payout transfer started",
		ports.String("payout_id", payoutID),
		ports.String("mode", string(*payout.Mode)))

	return payout, nil
}

// ConfirmTransfer completes a processing payout: linked commissions become
// paid and the confirmation event is emitted
func (s *Service) ConfirmTransfer(ctx context.Context, payoutID string) error {
	var payout *domain.Payout

	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		payout, err = s.payoutRepo.GetByID(ctx, tx, payoutID)
		if err != nil {
			return err
		}

		if !payout.CanTransitionTo(domain.PayoutStatusCompleted) {
			return domain.ErrPayoutInvalidState.
				WithDetail("payout_id", payoutID).
				WithDetail("status", string(payout.Status))
		}

		if err := s.payoutRepo.UpdateStatus(ctx, tx, payoutID, domain.PayoutStatusCompleted); err != nil {
			return err
		}
		return s.commissionRepo.MarkPaidByPayout(ctx, tx, payoutID)
	})
	if err != nil {
		return err
	}

	payout.Status = domain.PayoutStatusCompleted
	s.notifier.PayoutConfirmed(ctx, payout)

	s.logger.Info("payout completed",
		ports.String("payout_id", payoutID),
		ports.Int64("amount", payout.Amount))

	return nil
}

// FailTransfer records a failed transfer attempt; the payout stays
// re-attemptable until canceled
func (s *Service) FailTransfer(ctx context.Context, payoutID string) error {
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		payout, err := s.payoutRepo.GetByID(ctx, tx, payoutID)
		if err != nil {
			return err
		}

		if !payout.CanTransitionTo(domain.PayoutStatusFailed) {
			return domain.ErrPayoutInvalidState.
				WithDetail("payout_id", payoutID).
				WithDetail("status", string(payout.Status))
		}

		return s.payoutRepo.UpdateStatus(ctx, tx, payoutID, domain.PayoutStatusFailed)
	})
}
