package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
	"github.com/payoutcore/settlement-service/internal/services/fraudhold"
	"github.com/payoutcore/settlement-service/internal/services/invoice"
	"github.com/payoutcore/settlement-service/internal/services/payout"
	"github.com/payoutcore/settlement-service/internal/testutil/fixtures"
)

type MockDBPort struct{}

func (m *MockDBPort) GetDB() *pgxpool.Pool { return nil }

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

func (m *MockDBPort) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) Create(ctx context.Context, tx ports.DBTX, commission *domain.Commission) error {
	args := m.Called(ctx, tx, commission)
	return args.Error(0)
}

func (m *MockCommissionRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Commission, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Commission), args.Error(1)
}

func (m *MockCommissionRepository) ListPayableForUpdate(ctx context.Context, tx ports.DBTX, partnerID, programID string, periodStart, periodEnd time.Time) ([]*domain.Commission, error) {
	args := m.Called(ctx, tx, partnerID, programID, periodStart, periodEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Commission), args.Error(1)
}

func (m *MockCommissionRepository) AssignPayout(ctx context.Context, tx ports.DBTX, commissionIDs []string, payoutID string) error {
	args := m.Called(ctx, tx, commissionIDs, payoutID)
	return args.Error(0)
}

func (m *MockCommissionRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status domain.CommissionStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

func (m *MockCommissionRepository) MarkPaidByPayout(ctx context.Context, tx ports.DBTX, payoutID string) error {
	args := m.Called(ctx, tx, payoutID)
	return args.Error(0)
}

func (m *MockCommissionRepository) ListHeld(ctx context.Context, tx ports.DBTX, programID string, limit int32) ([]*domain.Commission, error) {
	args := m.Called(ctx, tx, programID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Commission), args.Error(1)
}

type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Create(ctx context.Context, tx ports.DBTX, p *domain.Payout) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}

func (m *MockPayoutRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Payout, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutRepository) GetOpenForUpdate(ctx context.Context, tx ports.DBTX, partnerID, programID string) (*domain.Payout, error) {
	args := m.Called(ctx, tx, partnerID, programID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockPayoutRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status domain.PayoutStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

func (m *MockPayoutRepository) SetMode(ctx context.Context, tx ports.DBTX, id string, mode domain.PayoutMethod) error {
	args := m.Called(ctx, tx, id, mode)
	return args.Error(0)
}

func (m *MockPayoutRepository) LinkInvoice(ctx context.Context, tx ports.DBTX, id string, invoiceID string) error {
	args := m.Called(ctx, tx, id, invoiceID)
	return args.Error(0)
}

func (m *MockPayoutRepository) ListByStatus(ctx context.Context, tx ports.DBTX, status domain.PayoutStatus, limit int32) ([]*domain.Payout, error) {
	args := m.Called(ctx, tx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Payout), args.Error(1)
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

type MockProgramRepository struct {
	mock.Mock
}

func (m *MockProgramRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Program, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Program), args.Error(1)
}

func (m *MockProgramRepository) ListIDs(ctx context.Context, tx ports.DBTX) ([]string, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, tx ports.DBTX, inv *domain.Invoice) error {
	args := m.Called(ctx, tx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Invoice, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id string) (*domain.Invoice, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status domain.InvoiceStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

func (m *MockInvoiceRepository) IncrementFailedAttempts(ctx context.Context, tx ports.DBTX, id string) (int, error) {
	args := m.Called(ctx, tx, id)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepository) RecordDispatch(ctx context.Context, tx ports.DBTX, invoiceID, idempotencyKey string) (bool, error) {
	args := m.Called(ctx, tx, invoiceID, idempotencyKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) ListRetryable(ctx context.Context, tx ports.DBTX, types []domain.InvoiceType, limit int32) ([]*domain.Invoice, error) {
	args := m.Called(ctx, tx, types, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

type MockFraudRepository struct {
	mock.Mock
}

func (m *MockFraudRepository) HasPendingForPartner(ctx context.Context, tx ports.DBTX, partnerID string) (bool, error) {
	args := m.Called(ctx, tx, partnerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFraudRepository) ListPendingByPartner(ctx context.Context, tx ports.DBTX, partnerID string) ([]*domain.FraudEventGroup, error) {
	args := m.Called(ctx, tx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.FraudEventGroup), args.Error(1)
}

func (m *MockFraudRepository) Resolve(ctx context.Context, tx ports.DBTX, groupID string) error {
	args := m.Called(ctx, tx, groupID)
	return args.Error(0)
}

type MockFundingDispatcher struct {
	mock.Mock
}

func (m *MockFundingDispatcher) Submit(ctx context.Context, req ports.FundingRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PayoutConfirmed(ctx context.Context, payout *domain.Payout) {
	m.Called(ctx, payout)
}

func (m *MockNotifier) RewardUpdated(ctx context.Context, partnerID string, reward *domain.Reward) {
	m.Called(ctx, partnerID, reward)
}

type MockLogger struct{}

func (m *MockLogger) Info(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Error(msg string, fields ...ports.Field) {}
func (m *MockLogger) Debug(msg string, fields ...ports.Field) {}

type sweeperMocks struct {
	commissionRepo *MockCommissionRepository
	payoutRepo     *MockPayoutRepository
	partnerRepo    *MockPartnerRepository
	programRepo    *MockProgramRepository
	invoiceRepo    *MockInvoiceRepository
	fraudRepo      *MockFraudRepository
	dispatcher     *MockFundingDispatcher
}

func newSweeper() (*Sweeper, *sweeperMocks) {
	m := &sweeperMocks{
		commissionRepo: new(MockCommissionRepository),
		payoutRepo:     new(MockPayoutRepository),
		partnerRepo:    new(MockPartnerRepository),
		programRepo:    new(MockProgramRepository),
		invoiceRepo:    new(MockInvoiceRepository),
		fraudRepo:      new(MockFraudRepository),
		dispatcher:     new(MockFundingDispatcher),
	}
	logger := &MockLogger{}
	db := &MockDBPort{}

	aggregator := payout.NewService(
		db,
		m.commissionRepo,
		m.payoutRepo,
		m.partnerRepo,
		m.programRepo,
		fraudhold.NewService(m.fraudRepo, logger),
		new(MockNotifier),
		logger,
		decimal.RequireFromString("0.02"),
	)
	controller := invoice.NewRetryController(
		db,
		m.invoiceRepo,
		m.dispatcher,
		[]domain.InvoiceType{domain.InvoiceTypePartnerPayout},
		logger,
	)

	sweeper := NewSweeper(
		m.programRepo,
		m.partnerRepo,
		m.invoiceRepo,
		aggregator,
		controller,
		nil, // method resolver unused in these tests
		logger,
		time.Hour,
		100,
	)
	return sweeper, m
}

func TestRunPayoutSweep_SkipsIneligiblePartners(t *testing.T) {
	sweeper, m := newSweeper()

	eligible := fixtures.NewPartner().WithID("pn_ok").Build()
	heldPartner := fixtures.NewPartner().WithID("pn_held").Build()
	program := &domain.Program{ID: "prog_1", Currency: "usd", MinPayoutAmountCents: 1000}

	m.programRepo.On("ListIDs", mock.Anything, nil).Return([]string{"prog_1"}, nil)
	m.programRepo.On("GetByID", mock.Anything, nil, "prog_1").Return(program, nil)
	m.partnerRepo.On("ListIDsWithPayableCommissions", mock.Anything, nil, "prog_1", int32(100)).
		Return([]string{"pn_ok", "pn_held"}, nil)

	// eligible partner gets a payout
	m.partnerRepo.On("GetByID", mock.Anything, nil, "pn_ok").Return(eligible, nil)
	m.fraudRepo.On("HasPendingForPartner", mock.Anything, nil, "pn_ok").Return(false, nil)
	m.payoutRepo.On("GetOpenForUpdate", mock.Anything, nil, "pn_ok", "prog_1").Return(nil, nil)
	m.commissionRepo.On("ListPayableForUpdate", mock.Anything, nil, "pn_ok", "prog_1", mock.Anything, mock.Anything).
		Return([]*domain.Commission{
			fixtures.NewCommission().WithID("cm_1").WithPartner("pn_ok").WithProgram("prog_1").WithEarnings(5000).Build(),
		}, nil)
	m.payoutRepo.On("Create", mock.Anything, nil, mock.AnythingOfType("*domain.Payout")).Return(nil)
	m.commissionRepo.On("AssignPayout", mock.Anything, nil, []string{"cm_1"}, mock.Anything).Return(nil)

	// held partner is skipped, not fatal
	m.partnerRepo.On("GetByID", mock.Anything, nil, "pn_held").Return(heldPartner, nil)
	m.fraudRepo.On("HasPendingForPartner", mock.Anything, nil, "pn_held").Return(true, nil)

	err := sweeper.RunPayoutSweep(context.Background())

	require.NoError(t, err)
	m.payoutRepo.AssertNumberOfCalls(t, "Create", 1)
}

func TestRunInvoiceRetrySweep_DispatchesAndToleratesStaleCandidates(t *testing.T) {
	sweeper, m := newSweeper()

	ba := "ba_1"
	retryable := &domain.Invoice{
		ID: "inv_ok", WorkspaceID: "ws_1", Type: domain.InvoiceTypePartnerPayout,
		Status: domain.InvoiceStatusFailed, FailedAttempts: 1, Total: 20000, BillingAccountID: &ba,
	}
	// listed as a candidate but exhausted by the time the lock is taken
	stale := &domain.Invoice{
		ID: "inv_stale", WorkspaceID: "ws_2", Type: domain.InvoiceTypePartnerPayout,
		Status: domain.InvoiceStatusFailed, FailedAttempts: 3, Total: 5000, BillingAccountID: &ba,
	}

	m.invoiceRepo.On("ListRetryable", mock.Anything, nil, []domain.InvoiceType{domain.InvoiceTypePartnerPayout}, int32(100)).
		Return([]*domain.Invoice{retryable, stale}, nil)

	m.invoiceRepo.On("GetByIDForUpdate", mock.Anything, nil, "inv_ok").Return(retryable, nil)
	m.invoiceRepo.On("RecordDispatch", mock.Anything, nil, "inv_ok", "inv_ok-1").Return(true, nil)
	m.dispatcher.On("Submit", mock.Anything, mock.Anything).Return(nil)

	m.invoiceRepo.On("GetByIDForUpdate", mock.Anything, nil, "inv_stale").Return(stale, nil)

	err := sweeper.RunInvoiceRetrySweep(context.Background())

	require.NoError(t, err)
	m.dispatcher.AssertNumberOfCalls(t, "Submit", 1)
}

func TestRunInvoiceRetrySweep_DefersRecentlyFailedInvoices(t *testing.T) {
	sweeper, m := newSweeper()

	ba := "ba_1"
	// failed moments ago: the first ~2h backoff window has not elapsed
	recent := &domain.Invoice{
		ID: "inv_recent", WorkspaceID: "ws_1", Type: domain.InvoiceTypePartnerPayout,
		Status: domain.InvoiceStatusFailed, FailedAttempts: 1, Total: 20000,
		BillingAccountID: &ba, UpdatedAt: time.Now().UTC(),
	}

	m.invoiceRepo.On("ListRetryable", mock.Anything, nil, []domain.InvoiceType{domain.InvoiceTypePartnerPayout}, int32(100)).
		Return([]*domain.Invoice{recent}, nil)

	err := sweeper.RunInvoiceRetrySweep(context.Background())

	require.NoError(t, err)
	m.invoiceRepo.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, nil, "inv_recent")
	m.dispatcher.AssertNumberOfCalls(t, "Submit", 0)
}
