// Package fee computes the transfer fee owed on a payout, honoring the
// partner's lifetime fee-waiver allowance.
package fee

import (
	"github.com/shopspring/decimal"
)

// Result is the fee breakdown for one payout.
// Invariant: FeeFreeAmount + FeeChargedAmount == the payout amount.
// FeeWaiverRemaining is the allowance remaining before this payout's
// consumption is applied; callers persist the usage separately.
type Result struct {
	FeeFreeAmount      int64 // portion covered by the waiver, in cents
	FeeChargedAmount   int64 // portion subject to the fee rate, in cents
	FeeWaiverRemaining int64 // lifetime allowance left before this payout, in cents
	Fee                int64 // total fee in cents
}

// Calculate computes the transfer fee for a payout.
//
// payoutFeeRate is a decimal fraction (0.03 = 3%). A zero waiver limit
// degrades to a flat-rate fee on the entire amount. fastACHFeeCents, when
// supplied, is added to the fee exactly once regardless of waiver state —
// a fully waived payout still incurs the surcharge.
func Calculate(payoutAmountCents int64, payoutFeeRate decimal.Decimal, waiverLimitCents, waiverUsedCents int64, fastACHFeeCents *int64) Result {
	remaining := waiverLimitCents - waiverUsedCents
	if remaining < 0 {
		remaining = 0
	}

	feeFree := payoutAmountCents
	if remaining < feeFree {
		feeFree = remaining
	}
	charged := payoutAmountCents - feeFree

	var feeCents int64
	if charged > 0 {
		feeCents = decimal.NewFromInt(charged).
			Mul(payoutFeeRate).
			Round(0).
			IntPart()
	}
	if fastACHFeeCents != nil {
		feeCents += *fastACHFeeCents
	}

	return Result{
		FeeFreeAmount:      feeFree,
		FeeChargedAmount:   charged,
		FeeWaiverRemaining: remaining,
		Fee:                feeCents,
	}
}
