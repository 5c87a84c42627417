package payoutmethod

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

type MockBankRailGateway struct {
	mock.Mock
}

func (m *MockBankRailGateway) GetAccountStatus(ctx context.Context, accountID string) (*ports.BankAccountStatus, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.BankAccountStatus), args.Error(1)
}

type MockStablecoinRailGateway struct {
	mock.Mock
}

func (m *MockStablecoinRailGateway) GetRecipientStatus(ctx context.Context, recipientID string) (*ports.StablecoinRecipientStatus, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.StablecoinRecipientStatus), args.Error(1)
}

type MockPartnerRepository struct {
	mock.Mock
}

func (m *MockPartnerRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Partner, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Partner), args.Error(1)
}

func (m *MockPartnerRepository) UpdatePayoutState(ctx context.Context, tx ports.DBTX, partnerID string, enabledAt *time.Time, method *domain.PayoutMethod) error {
	args := m.Called(ctx, tx, partnerID, enabledAt, method)
	return args.Error(0)
}

func (m *MockPartnerRepository) AddFeeWaiverUsage(ctx context.Context, tx ports.DBTX, partnerID string, cents int64) error {
	args := m.Called(ctx, tx, partnerID, cents)
	return args.Error(0)
}

func (m *MockPartnerRepository) ListIDsWithPayableCommissions(ctx context.Context, tx ports.DBTX, programID string, limit int32) ([]string, error) {
	args := m.Called(ctx, tx, programID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockDBPort struct {
	mock.Mock
}

func (m *MockDBPort) GetDB() *pgxpool.Pool { return nil }

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

func (m *MockDBPort) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Info(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Error(msg string, fields ...ports.Field) {}
func (m *MockLogger) Debug(msg string, fields ...ports.Field) {}

func strPtr(s string) *string { return &s }

func newResolver(bank *MockBankRailGateway, coin *MockStablecoinRailGateway, repo *MockPartnerRepository) *Service {
	return NewService(bank, coin, repo, new(MockDBPort), new(MockLogger))
}

func TestRecompute_StablecoinWinsOverBank(t *testing.T) {
	bank := new(MockBankRailGateway)
	coin := new(MockStablecoinRailGateway)
	service := newResolver(bank, coin, new(MockPartnerRepository))

	partner := &domain.Partner{
		ID:                    "pn_1",
		BankAccountID:         strPtr("acct_1"),
		StablecoinRecipientID: strPtr("rcpt_1"),
	}

	bank.On("GetAccountStatus", mock.Anything, "acct_1").
		Return(&ports.BankAccountStatus{PayoutsEnabled: true, TransferCapability: ports.CapabilityActive}, nil)
	coin.On("GetRecipientStatus", mock.Anything, "rcpt_1").
		Return(&ports.StablecoinRecipientStatus{WalletCapability: ports.CapabilityActive}, nil)

	state, err := service.Recompute(context.Background(), partner)

	require.NoError(t, err)
	require.NotNil(t, state.DefaultPayoutMethod)
	assert.Equal(t, domain.PayoutMethodStablecoin, *state.DefaultPayoutMethod)
	assert.NotNil(t, state.PayoutsEnabledAt)
}

func TestRecompute_FallsBackThroughPriority(t *testing.T) {
	bank := new(MockBankRailGateway)
	coin := new(MockStablecoinRailGateway)
	service := newResolver(bank, coin, new(MockPartnerRepository))

	partner := &domain.Partner{
		ID:                    "pn_1",
		BankAccountID:         strPtr("acct_1"),
		StablecoinRecipientID: strPtr("rcpt_1"),
		PaypalEmail:           strPtr("partner@example.com"),
	}

	bank.On("GetAccountStatus", mock.Anything, "acct_1").
		Return(&ports.BankAccountStatus{PayoutsEnabled: true, TransferCapability: ports.CapabilityActive}, nil)
	coin.On("GetRecipientStatus", mock.Anything, "rcpt_1").
		Return(&ports.StablecoinRecipientStatus{WalletCapability: ports.CapabilityPending}, nil)

	state, err := service.Recompute(context.Background(), partner)

	require.NoError(t, err)
	require.NotNil(t, state.DefaultPayoutMethod)
	assert.Equal(t, domain.PayoutMethodBankTransfer, *state.DefaultPayoutMethod)
}

func TestRecompute_PayPalPresenceIsSufficient(t *testing.T) {
	service := newResolver(new(MockBankRailGateway), new(MockStablecoinRailGateway), new(MockPartnerRepository))

	partner := &domain.Partner{
		ID:          "pn_1",
		PaypalEmail: strPtr("partner@example.com"),
	}

	state, err := service.Recompute(context.Background(), partner)

	require.NoError(t, err)
	require.NotNil(t, state.DefaultPayoutMethod)
	assert.Equal(t, domain.PayoutMethodPayPal, *state.DefaultPayoutMethod)
}

func TestRecompute_NoActiveRailRevokesEnablement(t *testing.T) {
	bank := new(MockBankRailGateway)
	service := newResolver(bank, new(MockStablecoinRailGateway), new(MockPartnerRepository))

	enabled := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	partner := &domain.Partner{
		ID:               "pn_1",
		BankAccountID:    strPtr("acct_1"),
		PayoutsEnabledAt: &enabled,
	}

	bank.On("GetAccountStatus", mock.Anything, "acct_1").
		Return(&ports.BankAccountStatus{PayoutsEnabled: false, TransferCapability: ports.CapabilityActive}, nil)

	state, err := service.Recompute(context.Background(), partner)

	require.NoError(t, err)
	assert.Nil(t, state.DefaultPayoutMethod)
	assert.Nil(t, state.PayoutsEnabledAt)
}

func TestRecompute_EnablementTimestampIsIdempotent(t *testing.T) {
	bank := new(MockBankRailGateway)
	service := newResolver(bank, new(MockStablecoinRailGateway), new(MockPartnerRepository))

	enabled := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	partner := &domain.Partner{
		ID:               "pn_1",
		BankAccountID:    strPtr("acct_1"),
		PayoutsEnabledAt: &enabled,
	}

	bank.On("GetAccountStatus", mock.Anything, "acct_1").
		Return(&ports.BankAccountStatus{PayoutsEnabled: true, TransferCapability: ports.CapabilityActive}, nil)

	state, err := service.Recompute(context.Background(), partner)

	require.NoError(t, err)
	require.NotNil(t, state.PayoutsEnabledAt)
	assert.Equal(t, enabled, *state.PayoutsEnabledAt)
}

func TestRecompute_LookupFailureIsNotInactive(t *testing.T) {
	bank := new(MockBankRailGateway)
	coin := new(MockStablecoinRailGateway)
	service := newResolver(bank, coin, new(MockPartnerRepository))

	partner := &domain.Partner{
		ID:                    "pn_1",
		BankAccountID:         strPtr("acct_1"),
		StablecoinRecipientID: strPtr("rcpt_1"),
		PaypalEmail:           strPtr("partner@example.com"),
	}

	bank.On("GetAccountStatus", mock.Anything, "acct_1").
		Return(&ports.BankAccountStatus{PayoutsEnabled: true, TransferCapability: ports.CapabilityActive}, nil)
	coin.On("GetRecipientStatus", mock.Anything, "rcpt_1").
		Return(nil, errors.New("connection reset"))

	state, err := service.Recompute(context.Background(), partner)

	require.Error(t, err)
	assert.Nil(t, state)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeRailLookupFailed))
}

func TestRefresh_PersistsResolvedState(t *testing.T) {
	bank := new(MockBankRailGateway)
	repo := new(MockPartnerRepository)
	service := newResolver(bank, new(MockStablecoinRailGateway), repo)

	partner := &domain.Partner{
		ID:            "pn_1",
		BankAccountID: strPtr("acct_1"),
	}

	repo.On("GetByID", mock.Anything, nil, "pn_1").Return(partner, nil)
	bank.On("GetAccountStatus", mock.Anything, "acct_1").
		Return(&ports.BankAccountStatus{PayoutsEnabled: true, TransferCapability: ports.CapabilityActive}, nil)
	repo.On("UpdatePayoutState", mock.Anything, nil, "pn_1",
		mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*domain.PayoutMethod")).
		Return(nil)

	state, err := service.Refresh(context.Background(), "pn_1")

	require.NoError(t, err)
	require.NotNil(t, state.DefaultPayoutMethod)
	assert.Equal(t, domain.PayoutMethodBankTransfer, *state.DefaultPayoutMethod)
	repo.AssertExpectations(t)
}
