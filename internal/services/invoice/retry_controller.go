// Package invoice implements the bounded-retry state machine over funding
// invoices: failed charges are re-attempted at most three times, with one
// dispatch per distinct (invoice, attempt) pair.
package invoice

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/payoutcore/settlement-service/internal/domain"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
	"github.com/payoutcore/settlement-service/pkg/observability"
)

// RetryController re-attempts failed funding charges within the retry budget
type RetryController struct {
	db             ports.DBPort
	invoiceRepo    ports.InvoiceRepository
	dispatcher     ports.FundingDispatcher
	retryableTypes map[domain.InvoiceType]bool
	logger         ports.Logger
}

// NewRetryController creates a new invoice retry controller. retryableTypes
// is the allow-list of invoice types eligible for automatic funding retry;
// ad hoc invoices are never auto-retried.
func NewRetryController(
	db ports.DBPort,
	invoiceRepo ports.InvoiceRepository,
	dispatcher ports.FundingDispatcher,
	retryableTypes []domain.InvoiceType,
	logger ports.Logger,
) *RetryController {
	allowed := make(map[domain.InvoiceType]bool, len(retryableTypes))
	for _, t := range retryableTypes {
		allowed[t] = true
	}
	return &RetryController{
		db:             db,
		invoiceRepo:    invoiceRepo,
		dispatcher:     dispatcher,
		retryableTypes: allowed,
		logger:         logger,
	}
}

// Retry submits one funding attempt for a failed invoice.
//
// Guards: the invoice must be failed, below the attempt cap, of a retryable
// type, and its workspace must have a billing account. The attempt-cap guard
// is checked under a row lock, transactionally with the dispatch-ledger
// insert, so two concurrent triggers cannot both fire. A duplicate trigger
// for the same (invoice, failedAttempts) pair is a no-op. The controller
// never marks the charge's outcome itself; that arrives via
// HandleFundingResult.
func (c *RetryController) Retry(ctx context.Context, invoiceID string) error {
	return c.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		inv, err := c.invoiceRepo.GetByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		if inv.Status != domain.InvoiceStatusFailed {
			observability.InvoiceRetryAttempts.WithLabelValues("rejected").Inc()
			return domain.ErrInvoiceNotRetryable.
				WithDetail("invoice_id", invoiceID).
				WithDetail("status", string(inv.Status))
		}

		if inv.RetriesExhausted() {
			observability.InvoiceRetryAttempts.WithLabelValues("exhausted").Inc()
			return domain.ErrInvoiceRetryExhausted.
				WithDetail("invoice_id", invoiceID).
				WithDetail("failed_attempts", inv.FailedAttempts)
		}

		if !c.retryableTypes[inv.Type] {
			observability.InvoiceRetryAttempts.WithLabelValues("rejected").Inc()
			return domain.ErrInvoiceNotRetryable.
				WithDetail("invoice_id", invoiceID).
				WithDetail("type", string(inv.Type))
		}

		if !inv.HasBillingAccount() {
			observability.InvoiceRetryAttempts.WithLabelValues("rejected").Inc()
			return domain.ErrInvoiceNoBilling.WithDetail("invoice_id", invoiceID)
		}

		idempotencyKey := fmt.Sprintf("%s-%d", inv.ID, inv.FailedAttempts)

		inserted, err := c.invoiceRepo.RecordDispatch(ctx, tx, inv.ID, idempotencyKey)
		if err != nil {
			return err
		}
		if !inserted {
			// a concurrent trigger already dispatched this attempt
			observability.InvoiceRetryAttempts.WithLabelValues("duplicate").Inc()
			c.logger.Debug("duplicate invoice retry trigger ignored",
				ports.String("invoice_id", invoiceID),
				ports.String("idempotency_key", idempotencyKey))
			return nil
		}

		if err := c.dispatcher.Submit(ctx, ports.FundingRequest{
			IdempotencyKey: idempotencyKey,
			InvoiceID:      inv.ID,
			AmountCents:    inv.Total,
		}); err != nil {
			// rollback releases the dispatch record so the attempt stays
			// available to a later trigger
			return domain.WrapError(domain.ErrorCodeFundingDispatchFailed, "funding dispatch failed", err).
				WithDetail("invoice_id", invoiceID)
		}

		observability.InvoiceRetryAttempts.WithLabelValues("dispatched").Inc()
		c.logger.Info("invoice funding retry dispatched",
			ports.String("invoice_id", invoiceID),
			ports.String("idempotency_key", idempotencyKey),
			ports.Int("attempt", inv.FailedAttempts))
		return nil
	})
}

// HandleFundingResult applies the funding provider's asynchronous outcome
// callback: success marks the invoice paid; failure increments the attempt
// counter and leaves the invoice failed.
func (c *RetryController) HandleFundingResult(ctx context.Context, invoiceID string, succeeded bool) error {
	return c.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		inv, err := c.invoiceRepo.GetByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}

		if succeeded {
			return c.invoiceRepo.UpdateStatus(ctx, tx, invoiceID, domain.InvoiceStatusPaid)
		}

		attempts, err := c.invoiceRepo.IncrementFailedAttempts(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if err := c.invoiceRepo.UpdateStatus(ctx, tx, invoiceID, domain.InvoiceStatusFailed); err != nil {
			return err
		}

		if attempts >= domain.MaxInvoiceRetries {
			c.logger.Warn("invoice funding retries exhausted",
				ports.String("invoice_id", invoiceID),
				ports.String("workspace_id", inv.WorkspaceID),
				ports.Int("failed_attempts", attempts))
		}
		return nil
	})
}

// RetryableTypes returns the configured allow-list, for the sweep job
func (c *RetryController) RetryableTypes() []domain.InvoiceType {
	types := make([]domain.InvoiceType, 0, len(c.retryableTypes))
	for t := range c.retryableTypes {
		types = append(types, t)
	}
	return types
}
