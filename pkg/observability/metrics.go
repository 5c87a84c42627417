package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PayoutsCreated counts payout batches created by the aggregator
	PayoutsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_payouts_created_total",
			Help: "Total number of payout batches created",
		},
		[]string{"program_id"},
	)

	// PayoutAmountCents observes net payout amounts
	PayoutAmountCents = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "settlement_payout_amount_cents",
			Help:    "Net payout amounts in cents",
			Buckets: prometheus.ExponentialBuckets(100, 10, 7), // $1 .. $1M
		},
	)

	// FeesChargedCents counts transfer fees charged
	FeesChargedCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_fees_charged_cents_total",
			Help: "Total transfer fees charged in cents",
		},
	)

	// FeeWaiverConsumedCents counts lifetime waiver allowance consumed
	FeeWaiverConsumedCents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_fee_waiver_consumed_cents_total",
			Help: "Total fee waiver allowance consumed in cents",
		},
	)

	// CommissionsRecorded counts ledger entries by event type
	CommissionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_commissions_recorded_total",
			Help: "Total commissions appended to the ledger",
		},
		[]string{"event"},
	)

	// InvoiceRetryAttempts counts funding retry dispatches by outcome
	InvoiceRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_invoice_retry_attempts_total",
			Help: "Total invoice funding retry attempts",
		},
		[]string{"outcome"}, // dispatched, duplicate, exhausted, rejected
	)

	// FraudHolds counts payout aggregations blocked by a fraud hold
	FraudHolds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "settlement_fraud_holds_total",
			Help: "Total payout aggregations blocked by an unresolved fraud group",
		},
	)
)
