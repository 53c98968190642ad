package investment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestElapsedDays(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		maxDays int
		want    int
	}{
		{"before start", start.Add(-time.Hour), 5, 0},
		{"same instant", start, 5, 0},
		{"partial day", start.Add(23 * time.Hour), 5, 0},
		{"exactly one day", start.Add(24 * time.Hour), 5, 1},
		{"one day and change", start.Add(36 * time.Hour), 5, 1},
		{"mid-term", start.Add(3*24*time.Hour + time.Minute), 5, 3},
		{"at maturity", start.Add(5 * 24 * time.Hour), 5, 5},
		{"past maturity capped", start.Add(30 * 24 * time.Hour), 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, elapsedDays(start, tt.now, tt.maxDays))
		})
	}
}

func TestAccrue_Compound(t *testing.T) {
	principal := decimal.NewFromInt(100)
	roi := decimal.RequireFromString("3")

	tests := []struct {
		days int
		want string
	}{
		{0, "0"},
		{1, "3.00"},
		{2, "6.09"},
		{5, "15.93"},
	}

	for _, tt := range tests {
		got := accrue(principal, roi, tt.days, true)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"day %d: got %s, want %s", tt.days, got, tt.want)
	}
}

func TestAccrue_Simple(t *testing.T) {
	principal := decimal.NewFromInt(500)
	roi := decimal.RequireFromString("3.8")

	tests := []struct {
		days int
		want string
	}{
		{0, "0"},
		{1, "19.00"},
		{3, "57.00"},
		{5, "95.00"},
	}

	for _, tt := range tests {
		got := accrue(principal, roi, tt.days, false)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"day %d: got %s, want %s", tt.days, got, tt.want)
	}
}

func TestAccrue_NegativeDays(t *testing.T) {
	got := accrue(decimal.NewFromInt(100), decimal.RequireFromString("3"), -1, true)
	assert.True(t, got.IsZero())
}

func TestAccrue_RoundsToCents(t *testing.T) {
	// 333.33 * 3.4% = 11.33322, rounds to 11.33
	got := accrue(decimal.RequireFromString("333.33"), decimal.RequireFromString("3.4"), 1, false)
	assert.True(t, got.Equal(decimal.RequireFromString("11.33")), "got %s", got)
}
