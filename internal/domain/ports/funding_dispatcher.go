package ports

import (
	"context"
)

// FundingRequest is a fire-and-forget funding charge submission. Success or
// failure of the charge itself is reported asynchronously by the provider
// out of band.
type FundingRequest struct {
	IdempotencyKey string
	InvoiceID      string
	AmountCents    int64
}

// FundingDispatcher submits funding attempts to the charge provider. The
// idempotency key guarantees at most one charge per distinct
// (invoiceID, failedAttempts) pair even under duplicate retry triggers.
type FundingDispatcher interface {
	Submit(ctx context.Context, req FundingRequest) error
}
