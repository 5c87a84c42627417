package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// InvoiceRepository implements ports.InvoiceRepository over pgx. The
// invoice_dispatches table doubles as the idempotency ledger for funding
// attempts: one row per (invoice, attempt) pair, enforced by a unique index
// on the idempotency key.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db ports.DBPort) *InvoiceRepository {
	return &InvoiceRepository{pool: db.GetDB()}
}

func (r *InvoiceRepository) exec(tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return r.pool
}

const invoiceColumns = `id, workspace_id, billing_account_id, type, status, failed_attempts, total, created_at, updated_at`

// Create persists a new invoice
func (r *InvoiceRepository) Create(ctx context.Context, tx ports.DBTX, invoice *domain.Invoice) error {
	_, err := r.exec(tx).Exec(ctx, `
		INSERT INTO invoices (id, workspace_id, billing_account_id, type, status, failed_attempts, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		invoice.ID,
		invoice.WorkspaceID,
		nullText(invoice.BillingAccountID),
		string(invoice.Type),
		string(invoice.Status),
		invoice.FailedAttempts,
		invoice.Total,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// GetByID retrieves an invoice by its ID
func (r *InvoiceRepository) GetByID(ctx context.Context, tx ports.DBTX, id string) (*domain.Invoice, error) {
	row := r.exec(tx).QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	return r.scanOne(row, id)
}

// GetByIDForUpdate retrieves an invoice with a row lock, serializing
// concurrent retry triggers for the same invoice
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, tx ports.DBTX, id string) (*domain.Invoice, error) {
	row := r.exec(tx).QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
	return r.scanOne(row, id)
}

// UpdateStatus transitions an invoice's status
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, tx ports.DBTX, id string, status domain.InvoiceStatus) error {
	tag, err := r.exec(tx).Exec(ctx, `
		UPDATE invoices SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound.WithDetail("invoice_id", id)
	}
	return nil
}

// IncrementFailedAttempts bumps the attempt counter and returns the new value
func (r *InvoiceRepository) IncrementFailedAttempts(ctx context.Context, tx ports.DBTX, id string) (int, error) {
	var attempts int
	err := r.exec(tx).QueryRow(ctx, `
		UPDATE invoices SET failed_attempts = failed_attempts + 1, updated_at = now()
		WHERE id = $1
		RETURNING failed_attempts`,
		id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInvoiceNotFound.WithDetail("invoice_id", id)
		}
		return 0, fmt.Errorf("increment failed attempts: %w", err)
	}
	return attempts, nil
}

// RecordDispatch inserts the idempotency record for one funding attempt.
// Returns false when the key is already present, meaning a concurrent trigger
// won the race for this attempt.
func (r *InvoiceRepository) RecordDispatch(ctx context.Context, tx ports.DBTX, invoiceID, idempotencyKey string) (bool, error) {
	_, err := r.exec(tx).Exec(ctx, `
		INSERT INTO invoice_dispatches (invoice_id, idempotency_key, created_at)
		VALUES ($1, $2, now())`,
		invoiceID, idempotencyKey)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return false, nil
		}
		return false, fmt.Errorf("record invoice dispatch: %w", err)
	}
	return true, nil
}

// ListRetryable returns failed invoices of the allowed types that are below
// the retry cap and have a billing account on file
func (r *InvoiceRepository) ListRetryable(ctx context.Context, tx ports.DBTX, types []domain.InvoiceType, limit int32) ([]*domain.Invoice, error) {
	typeStrings := make([]string, len(types))
	for i, t := range types {
		typeStrings[i] = string(t)
	}

	rows, err := r.exec(tx).Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE status = 'failed'
		  AND failed_attempts < $1
		  AND type = ANY($2)
		  AND billing_account_id IS NOT NULL
		ORDER BY updated_at
		LIMIT $3`,
		domain.MaxInvoiceRetries, typeStrings, limit)
	if err != nil {
		return nil, fmt.Errorf("list retryable invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, nil
}

func (r *InvoiceRepository) scanOne(row pgx.Row, id string) (*domain.Invoice, error) {
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound.WithDetail("invoice_id", id)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var billingAccountID pgtype.Text
	var invType, status string

	err := row.Scan(
		&inv.ID,
		&inv.WorkspaceID,
		&billingAccountID,
		&invType,
		&status,
		&inv.FailedAttempts,
		&inv.Total,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.BillingAccountID = textPtr(billingAccountID)
	inv.Type = domain.InvoiceType(invType)
	inv.Status = domain.InvoiceStatus(status)
	return &inv, nil
}
