// Package reward resolves the earnings a commission receives under a reward
// policy and renders the human-readable amount descriptor shown to partners.
// Everything here is a pure function over supplied records.
package reward

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// ResolveEarnings computes the partner's share in cents for one conversion.
//
// period is the 1-based billing-period index of the conversion within the
// customer relationship. saleAmountCents is the gross event value; it is only
// consulted for percentage rewards. Returns 0 when the reward's effective
// duration no longer covers the period.
func ResolveEarnings(reward *domain.Reward, period int, saleAmountCents int64) int64 {
	rewardType, amount, maxDuration := applicableTerms(reward, period)

	if !durationCovers(maxDuration, period) {
		return 0
	}

	switch rewardType {
	case domain.RewardTypeFlat:
		return amount
	case domain.RewardTypePercentage:
		// percentage is a whole number 0-100, validated upstream
		return decimal.NewFromInt(saleAmountCents).
			Mul(decimal.NewFromInt(amount)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	default:
		return 0
	}
}

// applicableTerms returns the (type, amount, maxDuration) governing the given
// period: the first modifier whose condition matches wins, else the primary.
func applicableTerms(reward *domain.Reward, period int) (domain.RewardType, int64, *int) {
	for _, m := range reward.Modifiers {
		if m.Condition.Matches(period) {
			return m.EffectiveType(reward), m.Amount, m.EffectiveMaxDuration(reward)
		}
	}
	return reward.Type, reward.Amount, reward.MaxDuration
}

// durationCovers reports whether a maxDuration value covers the period.
// nil means the customer's lifetime; 0 means the first conversion only.
func durationCovers(maxDuration *int, period int) bool {
	if maxDuration == nil {
		return true
	}
	if *maxDuration == 0 {
		return period <= 1
	}
	return period <= *maxDuration
}

// DescribeAmount renders the display descriptor for a reward, e.g.
// "Up to 20% for 3 months" or "$5 for the first sale".
//
// A range ("Up to …") is shown only when every modifier, after inheriting
// unspecified type/maxDuration from the primary reward, matches the primary
// on both dimensions and the amounts actually differ. Modifiers that disagree
// on type or duration fall back to the plain primary-amount descriptor.
func DescribeAmount(reward *domain.Reward) string {
	amount := formatAmount(reward.Type, reward.Amount)

	if len(reward.Modifiers) > 0 && modifiersComparable(reward) {
		minAmount, maxAmount := reward.Amount, reward.Amount
		for _, m := range reward.Modifiers {
			if m.Amount < minAmount {
				minAmount = m.Amount
			}
			if m.Amount > maxAmount {
				maxAmount = m.Amount
			}
		}
		if minAmount != maxAmount {
			amount = "Up to " + formatAmount(reward.Type, maxAmount)
		}
	}

	if reward.Event == domain.EventTypeSale {
		if suffix := durationSuffix(reward.MaxDuration); suffix != "" {
			return amount + " " + suffix
		}
	}
	return amount
}

// modifiersComparable reports whether every modifier matches the primary
// reward's type and maxDuration once inherited values are filled in
func modifiersComparable(reward *domain.Reward) bool {
	for _, m := range reward.Modifiers {
		if m.EffectiveType(reward) != reward.Type {
			return false
		}
		if !durationsEqual(m.EffectiveMaxDuration(reward), reward.MaxDuration) {
			return false
		}
	}
	return true
}

func durationsEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// formatAmount renders a reward amount per its type: percentages as "{pct}%",
// flat amounts as currency-formatted cents with trailing zero decimals
// trimmed ("$5", "$5.50").
func formatAmount(rewardType domain.RewardType, amount int64) string {
	if rewardType == domain.RewardTypePercentage {
		return fmt.Sprintf("%d%%", amount)
	}
	if amount%100 == 0 {
		return fmt.Sprintf("$%d", amount/100)
	}
	return fmt.Sprintf("$%d.%02d", amount/100, amount%100)
}

// durationSuffix renders the sale-reward duration clause
func durationSuffix(maxDuration *int) string {
	switch {
	case maxDuration == nil:
		return "for the customer's lifetime"
	case *maxDuration == 0:
		return "for the first sale"
	case *maxDuration == 1:
		return ""
	case *maxDuration%12 == 0:
		years := *maxDuration / 12
		if years == 1 {
			return "for 1 year"
		}
		return fmt.Sprintf("for %d years", years)
	default:
		return fmt.Sprintf("for %d months", *maxDuration)
	}
}
