// Package fixtures provides test data builders and pointer helpers shared
// across test files.
package fixtures

import (
	"time"

	"github.com/payoutcore/settlement-service/internal/domain"
)

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the given int.
func IntPtr(i int) *int {
	return &i
}

// Int64Ptr returns a pointer to the given int64.
func Int64Ptr(i int64) *int64 {
	return &i
}

// BoolPtr returns a pointer to the given bool.
func BoolPtr(b bool) *bool {
	return &b
}

// TimePtr returns a pointer to the given time.Time.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// MethodPtr returns a pointer to the given payout method.
func MethodPtr(m domain.PayoutMethod) *domain.PayoutMethod {
	return &m
}

// RewardTypePtr returns a pointer to the given reward type.
func RewardTypePtr(t domain.RewardType) *domain.RewardType {
	return &t
}
