package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfMonth(t *testing.T) {
	in := time.Date(2025, 8, 17, 13, 45, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(in))
}

func TestStartOfMonth_ConvertsZone(t *testing.T) {
	// 2025-09-01 03:30 +05:00 is still 2025-08-31 UTC
	zone := time.FixedZone("plus5", 5*3600)
	in := time.Date(2025, 9, 1, 3, 30, 0, 0, zone)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(in))
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2025, 8, 17, 13, 45, 12, 999, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 17, 0, 0, 0, 0, time.UTC), StartOfDay(in))
}

func TestNowIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Now().Location())
}
