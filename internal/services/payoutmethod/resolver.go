// Package payoutmethod derives a partner's effective default payout method
// and payable-enabled flag from the live capability state of each connected
// rail.
package payoutmethod

import (
	"context"
	"sync"
	"time"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
	"github.com/payoutcore/settlement-service/pkg/timeutil"
)

// State is the resolver's output. Callers persist it; the resolver has no
// side effects of its own.
type State struct {
	PayoutsEnabledAt    *time.Time
	DefaultPayoutMethod *domain.PayoutMethod
}

// Service resolves payout method state from rail capability lookups
type Service struct {
	bank        ports.BankRailGateway
	stablecoin  ports.StablecoinRailGateway
	partnerRepo ports.PartnerRepository
	db          ports.DBPort
	logger      ports.Logger
}

// NewService creates a new payout method resolver
func NewService(
	bank ports.BankRailGateway,
	stablecoin ports.StablecoinRailGateway,
	partnerRepo ports.PartnerRepository,
	db ports.DBPort,
	logger ports.Logger,
) *Service {
	return &Service{
		bank:        bank,
		stablecoin:  stablecoin,
		partnerRepo: partnerRepo,
		db:          db,
		logger:      logger,
	}
}

// Recompute derives the partner's payout state from live rail capability.
//
// The bank and stablecoin lookups run concurrently; both must complete before
// the default-method decision is made. A failed lookup fails the whole call —
// it is never treated as "rail inactive". The first active rail in
// domain.MethodPriority becomes the default. PayoutsEnabledAt is idempotent:
// re-enabling keeps the original enablement timestamp, while losing the last
// active rail revokes it.
func (s *Service) Recompute(ctx context.Context, partner *domain.Partner) (*State, error) {
	var (
		wg         sync.WaitGroup
		bankActive bool
		coinActive bool
		bankErr    error
		coinErr    error
	)

	if partner.BankAccountID != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := s.bank.GetAccountStatus(ctx, *partner.BankAccountID)
			if err != nil {
				bankErr = err
				return
			}
			bankActive = status.PayoutsEnabled && status.TransferCapability == ports.CapabilityActive
		}()
	}

	if partner.StablecoinRecipientID != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := s.stablecoin.GetRecipientStatus(ctx, *partner.StablecoinRecipientID)
			if err != nil {
				coinErr = err
				return
			}
			coinActive = status.WalletCapability == ports.CapabilityActive
		}()
	}

	wg.Wait()

	if bankErr != nil {
		return nil, domain.WrapError(domain.ErrorCodeRailLookupFailed, "bank transfer capability lookup failed", bankErr).
			WithDetail("partner_id", partner.ID)
	}
	if coinErr != nil {
		return nil, domain.WrapError(domain.ErrorCodeRailLookupFailed, "stablecoin capability lookup failed", coinErr).
			WithDetail("partner_id", partner.ID)
	}

	active := map[domain.PayoutMethod]bool{
		domain.PayoutMethodBankTransfer: bankActive,
		domain.PayoutMethodStablecoin:   coinActive,
		domain.PayoutMethodPayPal:       partner.HasPayPal(),
	}

	state := &State{}
	for _, method := range domain.MethodPriority {
		if active[method] {
			m := method
			state.DefaultPayoutMethod = &m
			break
		}
	}

	if state.DefaultPayoutMethod != nil {
		if partner.PayoutsEnabledAt != nil {
			state.PayoutsEnabledAt = partner.PayoutsEnabledAt
		} else {
			now := timeutil.Now()
			state.PayoutsEnabledAt = &now
		}
	}

	return state, nil
}

// Refresh recomputes and persists a partner's payout state
func (s *Service) Refresh(ctx context.Context, partnerID string) (*State, error) {
	partner, err := s.partnerRepo.GetByID(ctx, nil, partnerID)
	if err != nil {
		return nil, err
	}

	state, err := s.Recompute(ctx, partner)
	if err != nil {
		s.logger.Error("payout state recompute failed",
			ports.String("partner_id", partnerID),
			ports.Err(err))
		return nil, err
	}

	if err := s.partnerRepo.UpdatePayoutState(ctx, nil, partnerID, state.PayoutsEnabledAt, state.DefaultPayoutMethod); err != nil {
		return nil, err
	}

	method := ""
	if state.DefaultPayoutMethod != nil {
		method = string(*state.DefaultPayoutMethod)
	}
	s.logger.Info("payout state refreshed",
		ports.String("partner_id", partnerID),
		ports.String("default_method", method),
		ports.Bool("payouts_enabled", state.PayoutsEnabledAt != nil))

	return state, nil
}
