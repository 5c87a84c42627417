package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/payoutcore/settlement-service/internal/domain"
)

func intPtr(v int) *int { return &v }

func rewardTypePtr(t domain.RewardType) *domain.RewardType { return &t }

func TestResolveEarnings_FlatReward(t *testing.T) {
	r := &domain.Reward{
		Event:  domain.EventTypeLead,
		Type:   domain.RewardTypeFlat,
		Amount: 500,
	}

	assert.Equal(t, int64(500), ResolveEarnings(r, 1, 0))
	assert.Equal(t, int64(500), ResolveEarnings(r, 24, 0))
}

func TestResolveEarnings_PercentageReward(t *testing.T) {
	r := &domain.Reward{
		Event:  domain.EventTypeSale,
		Type:   domain.RewardTypePercentage,
		Amount: 20,
	}

	assert.Equal(t, int64(2000), ResolveEarnings(r, 1, 10000))
	// 20% of $0.99 rounds to 20 cents
	assert.Equal(t, int64(20), ResolveEarnings(r, 1, 99))
}

func TestResolveEarnings_DurationBounds(t *testing.T) {
	firstSaleOnly := &domain.Reward{
		Event:       domain.EventTypeSale,
		Type:        domain.RewardTypeFlat,
		Amount:      1000,
		MaxDuration: intPtr(0),
	}
	assert.Equal(t, int64(1000), ResolveEarnings(firstSaleOnly, 1, 5000))
	assert.Equal(t, int64(0), ResolveEarnings(firstSaleOnly, 2, 5000))

	threeMonths := &domain.Reward{
		Event:       domain.EventTypeSale,
		Type:        domain.RewardTypePercentage,
		Amount:      10,
		MaxDuration: intPtr(3),
	}
	assert.Equal(t, int64(500), ResolveEarnings(threeMonths, 3, 5000))
	assert.Equal(t, int64(0), ResolveEarnings(threeMonths, 4, 5000))
}

func TestResolveEarnings_ModifierWinsWithinCondition(t *testing.T) {
	// higher flat amount during months 1-3 only
	r := &domain.Reward{
		Event:  domain.EventTypeSale,
		Type:   domain.RewardTypeFlat,
		Amount: 500,
		Modifiers: []domain.RewardModifier{
			{
				Amount:    1500,
				Condition: domain.Condition{Kind: domain.ConditionMonthRange, FromMonth: 1, ToMonth: 3},
			},
		},
	}

	assert.Equal(t, int64(1500), ResolveEarnings(r, 2, 0))
	assert.Equal(t, int64(500), ResolveEarnings(r, 4, 0))
}

func TestDescribeAmount_PlainPercentage(t *testing.T) {
	r := &domain.Reward{
		Event:  domain.EventTypeSale,
		Type:   domain.RewardTypePercentage,
		Amount: 20,
		// one period: no duration suffix
		MaxDuration: intPtr(1),
	}
	assert.Equal(t, "20%", DescribeAmount(r))
}

func TestDescribeAmount_RangeFromInheritedModifier(t *testing.T) {
	r := &domain.Reward{
		Event:       domain.EventTypeSale,
		Type:        domain.RewardTypePercentage,
		Amount:      20,
		MaxDuration: intPtr(1),
		Modifiers: []domain.RewardModifier{
			{Amount: 30, Condition: domain.Condition{Kind: domain.ConditionAlways}},
		},
	}
	assert.Equal(t, "Up to 30%", DescribeAmount(r))
}

func TestDescribeAmount_NoRangeWhenModifierTypeDiffers(t *testing.T) {
	r := &domain.Reward{
		Event:       domain.EventTypeSale,
		Type:        domain.RewardTypePercentage,
		Amount:      20,
		MaxDuration: intPtr(1),
		Modifiers: []domain.RewardModifier{
			{
				Type:      rewardTypePtr(domain.RewardTypeFlat),
				Amount:    30,
				Condition: domain.Condition{Kind: domain.ConditionAlways},
			},
		},
	}
	assert.Equal(t, "20%", DescribeAmount(r))
}

func TestDescribeAmount_NoRangeWhenModifierDurationDiffers(t *testing.T) {
	r := &domain.Reward{
		Event:       domain.EventTypeSale,
		Type:        domain.RewardTypePercentage,
		Amount:      20,
		MaxDuration: intPtr(3),
		Modifiers: []domain.RewardModifier{
			{
				MaxDuration:    intPtr(6),
				MaxDurationSet: true,
				Amount:         30,
				Condition:      domain.Condition{Kind: domain.ConditionAlways},
			},
		},
	}
	assert.Equal(t, "20% for 3 months", DescribeAmount(r))
}

func TestDescribeAmount_NoRangeWhenAmountsEqual(t *testing.T) {
	r := &domain.Reward{
		Event:       domain.EventTypeSale,
		Type:        domain.RewardTypePercentage,
		Amount:      20,
		MaxDuration: intPtr(1),
		Modifiers: []domain.RewardModifier{
			{Amount: 20, Condition: domain.Condition{Kind: domain.ConditionAlways}},
		},
	}
	assert.Equal(t, "20%", DescribeAmount(r))
}

func TestDescribeAmount_DurationSuffixes(t *testing.T) {
	tests := []struct {
		name        string
		maxDuration *int
		want        string
	}{
		{"lifetime", nil, "20% for the customer's lifetime"},
		{"first sale", intPtr(0), "20% for the first sale"},
		{"one month", intPtr(1), "20%"},
		{"three months", intPtr(3), "20% for 3 months"},
		{"one year", intPtr(12), "20% for 1 year"},
		{"two years", intPtr(24), "20% for 2 years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &domain.Reward{
				Event:       domain.EventTypeSale,
				Type:        domain.RewardTypePercentage,
				Amount:      20,
				MaxDuration: tt.maxDuration,
			}
			assert.Equal(t, tt.want, DescribeAmount(r))
		})
	}
}

func TestDescribeAmount_NoDurationSuffixForNonSaleEvents(t *testing.T) {
	r := &domain.Reward{
		Event:  domain.EventTypeLead,
		Type:   domain.RewardTypeFlat,
		Amount: 500,
	}
	assert.Equal(t, "$5", DescribeAmount(r))
}

func TestDescribeAmount_FlatFormatting(t *testing.T) {
	whole := &domain.Reward{Event: domain.EventTypeLead, Type: domain.RewardTypeFlat, Amount: 500}
	assert.Equal(t, "$5", DescribeAmount(whole))

	fractional := &domain.Reward{Event: domain.EventTypeLead, Type: domain.RewardTypeFlat, Amount: 550}
	assert.Equal(t, "$5.50", DescribeAmount(fractional))
}
