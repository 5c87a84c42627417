package invoice

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

type MockDBPort struct{}

func (m *MockDBPort) GetDB() *pgxpool.Pool { return nil }

func (m *MockDBPort) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

func (m *MockDBPort) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, tx ports.DBTX, invoice *domain.Invoice) error {
	args := m.Called(ctx, tx, invoice)
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

type MockFundingDispatcher struct {
	mock.Mock
}

func (m *MockFundingDispatcher) Submit(ctx context.Context, req ports.FundingRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type MockLogger struct{}

func (m *MockLogger) Info(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Warn(msg string, fields ...ports.Field)  {}
func (m *MockLogger) Error(msg string, fields ...ports.Field) {}
func (m *MockLogger) Debug(msg string, fields ...ports.Field) {}

func strPtr(s string) *string { return &s }

func failedInvoice(attempts int) *domain.Invoice {
	return &domain.Invoice{
		ID:               "inv_1",
		WorkspaceID:      "ws_1",
		Type:             domain.InvoiceTypePartnerPayout,
		Status:           domain.InvoiceStatusFailed,
		FailedAttempts:   attempts,
		Total:            50000,
		BillingAccountID: strPtr("ba_1"),
	}
}

func newController(repo *MockInvoiceRepository, dispatcher *MockFundingDispatcher) *RetryController {
	return NewRetryController(
		&MockDBPort{},
		repo,
		dispatcher,
		[]domain.InvoiceType{domain.InvoiceTypePartnerPayout},
		&MockLogger{},
	)
}

func TestRetry_DispatchesWithDerivedIdempotencyKey(t *testing.T) {
	repo := new(MockInvoiceRepository)
	dispatcher := new(MockFundingDispatcher)
	controller := newController(repo, dispatcher)

	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(failedInvoice(2), nil)
	repo.On("RecordDispatch", mock.Anything, nil, "inv_1", "inv_1-2").Return(true, nil)
	dispatcher.On("Submit", mock.Anything, ports.FundingRequest{
		IdempotencyKey: "inv_1-2",
		InvoiceID:      "inv_1",
		AmountCents:    50000,
	}).Return(nil)

	err := controller.Retry(context.Background(), "inv_1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestRetry_ExhaustedIsTerminalNoOp(t *testing.T) {
	repo := new(MockInvoiceRepository)
	dispatcher := new(MockFundingDispatcher)
	controller := newController(repo, dispatcher)

	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(failedInvoice(3), nil)

	err := controller.Retry(context.Background(), "inv_1")

	require.Error(t, err)
	assert.True(t, domain.IsTerminalRetryError(err))
	dispatcher.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestRetry_RejectsNonFailedInvoice(t *testing.T) {
	repo := new(MockInvoiceRepository)
	dispatcher := new(MockFundingDispatcher)
	controller := newController(repo, dispatcher)

	inv := failedInvoice(0)
	inv.Status = domain.InvoiceStatusPaid
	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(inv, nil)

	err := controller.Retry(context.Background(), "inv_1")

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvoiceNotRetryable))
	dispatcher.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestRetry_RejectsTypeOutsideAllowList(t *testing.T) {
	repo := new(MockInvoiceRepository)
	dispatcher := new(MockFundingDispatcher)
	controller := newController(repo, dispatcher)

	inv := failedInvoice(1)
	inv.Type = domain.InvoiceTypeOneOff
	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(inv, nil)

	err := controller.Retry(context.Background(), "inv_1")

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvoiceNotRetryable))
	dispatcher.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestRetry_RejectsWithoutBillingAccount(t *testing.T) {
	repo := new(MockInvoiceRepository)
	dispatcher := new(MockFundingDispatcher)
	controller := newController(repo, dispatcher)

	inv := failedInvoice(1)
	inv.BillingAccountID = nil
	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(inv, nil)

	err := controller.Retry(context.Background(), "inv_1")

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeInvoiceNoBilling))
	dispatcher.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestRetry_DuplicateTriggerIsNoOp(t *testing.T) {
	repo := new(MockInvoiceRepository)
	dispatcher := new(MockFundingDispatcher)
	controller := newController(repo, dispatcher)

	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(failedInvoice(2), nil)
	// idempotency key already recorded by a concurrent trigger
	repo.On("RecordDispatch", mock.Anything, nil, "inv_1", "inv_1-2").Return(false, nil)

	err := controller.Retry(context.Background(), "inv_1")

	require.NoError(t, err)
	dispatcher.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestRetry_DispatchFailurePropagates(t *testing.T) {
	repo := new(MockInvoiceRepository)
	dispatcher := new(MockFundingDispatcher)
	controller := newController(repo, dispatcher)

	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(failedInvoice(0), nil)
	repo.On("RecordDispatch", mock.Anything, nil, "inv_1", "inv_1-0").Return(true, nil)
	dispatcher.On("Submit", mock.Anything, mock.Anything).Return(errors.New("provider unavailable"))

	err := controller.Retry(context.Background(), "inv_1")

	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrorCodeFundingDispatchFailed))
}

func TestHandleFundingResult_SuccessMarksPaid(t *testing.T) {
	repo := new(MockInvoiceRepository)
	controller := newController(repo, new(MockFundingDispatcher))

	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(failedInvoice(1), nil)
	repo.On("UpdateStatus", mock.Anything, nil, "inv_1", domain.InvoiceStatusPaid).Return(nil)

	err := controller.HandleFundingResult(context.Background(), "inv_1", true)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestHandleFundingResult_FailureIncrementsAttempts(t *testing.T) {
	repo := new(MockInvoiceRepository)
	controller := newController(repo, new(MockFundingDispatcher))

	repo.On("GetByIDForUpdate", mock.Anything, nil, "inv_1").Return(failedInvoice(2), nil)
	repo.On("IncrementFailedAttempts", mock.Anything, nil, "inv_1").Return(3, nil)
	repo.On("UpdateStatus", mock.Anything, nil, "inv_1", domain.InvoiceStatusFailed).Return(nil)

	err := controller.HandleFundingResult(context.Background(), "inv_1", false)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}
