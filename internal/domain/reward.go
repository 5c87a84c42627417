package domain

// EventType represents the kind of tracked conversion event a reward applies to
type EventType string

const (
	EventTypeClick EventType = "click"
	EventTypeLead  EventType = "lead"
	EventTypeSale  EventType = "sale"
)

// RewardType represents how a reward amount is expressed
type RewardType string

const (
	RewardTypeFlat       RewardType = "flat"       // integer cents per event
	RewardTypePercentage RewardType = "percentage" // whole-number percent of the sale amount
)

// Reward is the policy determining how much a commission earns.
//
// MaxDuration semantics (billing periods):
//   - nil: reward applies for the customer's lifetime
//   - 0:   first conversion only
//   - N>0: N billing periods
type Reward struct {
	ID          string           `json:"id"`
	ProgramID   string           `json:"program_id"`
	Event       EventType        `json:"event"`
	Type        RewardType       `json:"type"`
	Amount      int64            `json:"amount"`
	MaxDuration *int             `json:"max_duration"`
	Modifiers   []RewardModifier `json:"modifiers,omitempty"`
}

// RewardModifier is a conditional override of the primary reward. Fields left
// unset inherit the primary reward's values when the modifier is compared
// against it.
type RewardModifier struct {
	Type           *RewardType `json:"type,omitempty"`
	MaxDuration    *int        `json:"max_duration,omitempty"`
	MaxDurationSet bool        `json:"max_duration_set"`
	Amount         int64       `json:"amount"`
	Condition      Condition   `json:"condition"`
}

// ConditionKind tags the variant of a modifier condition
type ConditionKind string

const (
	// ConditionAlways applies the modifier unconditionally
	ConditionAlways ConditionKind = "always"
	// ConditionMonthRange applies the modifier only within an inclusive
	// 1-based range of billing periods
	ConditionMonthRange ConditionKind = "month_range"
)

// Condition restricts when a modifier's amount applies to a conversion
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	FromMonth int           `json:"from_month,omitempty"`
	ToMonth   int           `json:"to_month,omitempty"`
}

// Matches reports whether the condition holds for the given 1-based
// billing-period index
func (c Condition) Matches(period int) bool {
	switch c.Kind {
	case ConditionAlways:
		return true
	case ConditionMonthRange:
		return period >= c.FromMonth && period <= c.ToMonth
	default:
		return false
	}
}

// EffectiveType returns the modifier's type, inheriting from the primary
// reward when unspecified
func (m RewardModifier) EffectiveType(primary *Reward) RewardType {
	if m.Type != nil {
		return *m.Type
	}
	return primary.Type
}

// EffectiveMaxDuration returns the modifier's max duration, inheriting from
// the primary reward when unspecified
func (m RewardModifier) EffectiveMaxDuration(primary *Reward) *int {
	if m.MaxDurationSet {
		return m.MaxDuration
	}
	return primary.MaxDuration
}
