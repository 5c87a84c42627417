// Package sweep drives the periodic settlement passes: batching payable
// commissions into payouts per program, re-attempting failed funding
// invoices, and refreshing partner payout rail state.
package sweep

import (
	"context"
	"time"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
	"github.com/payoutcore/settlement-service/internal/services/invoice"
	"github.com/payoutcore/settlement-service/internal/services/payout"
	"github.com/payoutcore/settlement-service/internal/services/payoutmethod"
	"github.com/payoutcore/settlement-service/pkg/resilience"
)

// railLookupAttempts bounds the refresh retries for transient rail failures
const railLookupAttempts = 3

// Sweeper runs the periodic settlement passes
type Sweeper struct {
	programRepo     ports.ProgramRepository
	partnerRepo     ports.PartnerRepository
	invoiceRepo     ports.InvoiceRepository
	aggregator      *payout.Service
	retryController *invoice.RetryController
	methodResolver  *payoutmethod.Service
	retryBackoff    resilience.BackoffStrategy
	logger          ports.Logger
	interval        time.Duration
	batchSize       int32
}

// NewSweeper creates a new settlement sweeper
func NewSweeper(
	programRepo ports.ProgramRepository,
	partnerRepo ports.PartnerRepository,
	invoiceRepo ports.InvoiceRepository,
	aggregator *payout.Service,
	retryController *invoice.RetryController,
	methodResolver *payoutmethod.Service,
	logger ports.Logger,
	interval time.Duration,
	batchSize int32,
) *Sweeper {
	return &Sweeper{
		programRepo:     programRepo,
		partnerRepo:     partnerRepo,
		invoiceRepo:     invoiceRepo,
		aggregator:      aggregator,
		retryController: retryController,
		methodResolver:  methodResolver,
		retryBackoff:    resilience.InvoiceRetryBackoff(),
		logger:          logger,
		interval:        interval,
		batchSize:       batchSize,
	}
}

// Start runs the sweep loop until the context is canceled. One pass runs
// immediately on start.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("settlement sweeper stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	if err := s.RunPayoutSweep(ctx); err != nil {
		s.logger.Error("payout sweep failed", ports.Err(err))
	}
	if err := s.RunInvoiceRetrySweep(ctx); err != nil {
		s.logger.Error("invoice retry sweep failed", ports.Err(err))
	}
}

// RunPayoutSweep batches payable commissions into payouts for every partner
// with outstanding earnings, program by program. Per-partner ineligibility
// (held, below minimum, disabled, already open) is expected and skipped;
// consistency errors abort the sweep so they surface instead of silently
// under-paying.
func (s *Sweeper) RunPayoutSweep(ctx context.Context) error {
	programIDs, err := s.programRepo.ListIDs(ctx, nil)
	if err != nil {
		return err
	}

	var created, skipped int
	for _, programID := range programIDs {
		program, err := s.programRepo.GetByID(ctx, nil, programID)
		if err != nil {
			return err
		}

		partnerIDs, err := s.partnerRepo.ListIDsWithPayableCommissions(ctx, nil, programID, s.batchSize)
		if err != nil {
			return err
		}

		for _, partnerID := range partnerIDs {
			_, err := s.aggregator.CreatePayout(ctx, payout.CreatePayoutRequest{
				PartnerID:           partnerID,
				ProgramID:           programID,
				PeriodStart:         time.Time{},
				PeriodEnd:           time.Now().UTC(),
				ExcludeCurrentMonth: program.HoldCurrentMonth,
			})
			if err != nil {
				if isExpectedSkip(err) {
					skipped++
					s.logger.Debug("partner skipped in payout sweep",
						ports.String("partner_id", partnerID),
						ports.String("reason", string(domain.GetErrorCode(err))))
					continue
				}
				return err
			}
			created++
		}
	}

	s.logger.Info("payout sweep finished",
		ports.Int("programs", len(programIDs)),
		ports.Int("payouts_created", created),
		ports.Int("partners_skipped", skipped))
	return nil
}

// RunInvoiceRetrySweep re-attempts failed funding invoices that are still
// within the retry budget. Each invoice waits out an exponentially growing
// window since its last failure before the next attempt fires.
func (s *Sweeper) RunInvoiceRetrySweep(ctx context.Context) error {
	invoices, err := s.invoiceRepo.ListRetryable(ctx, nil, s.retryController.RetryableTypes(), s.batchSize)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var dispatched, deferred int
	for _, inv := range invoices {
		wait := s.retryBackoff.NextDelay(inv.FailedAttempts - 1)
		if now.Sub(inv.UpdatedAt) < wait {
			deferred++
			continue
		}
		if err := s.retryController.Retry(ctx, inv.ID); err != nil {
			// eligibility can change between listing and the locked re-check
			if domain.IsTerminalRetryError(err) || domain.IsDomainError(err, domain.ErrorCodeInvoiceNotRetryable) {
				continue
			}
			s.logger.Error("invoice retry failed",
				ports.String("invoice_id", inv.ID),
				ports.Err(err))
			continue
		}
		dispatched++
	}

	s.logger.Info("invoice retry sweep finished",
		ports.Int("candidates", len(invoices)),
		ports.Int("dispatched", dispatched),
		ports.Int("deferred", deferred))
	return nil
}

// RefreshPayoutMethods recomputes payout rail state for the given partners.
// Rail lookups hit external providers, so this runs on demand (capability
// webhooks, enrollment changes) rather than inside the main sweep. Transient
// lookup failures are retried with backoff; other errors are not.
func (s *Sweeper) RefreshPayoutMethods(ctx context.Context, partnerIDs []string) {
	backoff := resilience.RailLookupBackoff()

	for _, partnerID := range partnerIDs {
		var err error
		for attempt := 0; attempt < railLookupAttempts; attempt++ {
			if _, err = s.methodResolver.Refresh(ctx, partnerID); err == nil {
				break
			}
			if !domain.IsDomainError(err, domain.ErrorCodeRailLookupFailed) {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff.NextDelay(attempt)):
			}
		}
		if err != nil {
			s.logger.Error("payout method refresh failed",
				ports.String("partner_id", partnerID),
				ports.Err(err))
		}
	}
}

func isExpectedSkip(err error) bool {
	switch domain.GetErrorCode(err) {
	case domain.ErrorCodePayoutHeld,
		domain.ErrorCodePayoutBelowMinimum,
		domain.ErrorCodePayoutNothingToPay,
		domain.ErrorCodePayoutsDisabled,
		domain.ErrorCodePayoutOpenExists:
		return true
	}
	return false
}
