package ports

import (
	"context"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// InvoiceRepository persists funding invoices and their retry accounting
type InvoiceRepository interface {
	Create(ctx context.Context, tx DBTX, invoice *domain.Invoice) error

	GetByID(ctx context.Context, tx DBTX, id string) (*domain.Invoice, error)

	// GetByIDForUpdate row-locks the invoice so the failed-attempts guard is
	// checked transactionally with the dispatch recording
	GetByIDForUpdate(ctx context.Context, tx DBTX, id string) (*domain.Invoice, error)

	UpdateStatus(ctx context.Context, tx DBTX, id string, status domain.InvoiceStatus) error

	// IncrementFailedAttempts bumps the retry counter and returns the new
	// count. Driven by the funding provider's failure callback, not by the
	// retry controller itself.
	IncrementFailedAttempts(ctx context.Context, tx DBTX, id string) (int, error)

	// RecordDispatch inserts into the dispatch ledger keyed by idempotency
	// key. Returns false when the key was already recorded, in which case the
	// caller must not submit another funding attempt.
	RecordDispatch(ctx context.Context, tx DBTX, invoiceID, idempotencyKey string) (bool, error)

	// ListRetryable returns failed invoices below the retry cap whose type is
	// in the allow-list
	ListRetryable(ctx context.Context, tx DBTX, types []domain.InvoiceType, limit int32) ([]*domain.Invoice, error)
}
