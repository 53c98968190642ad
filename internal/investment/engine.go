package investment

import (
	"time"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// elapsedDays returns the number of whole days between start and now, capped
// at maxDays. Partial days do not accrue; elapsed time is a rolling duration,
// not calendar-aligned.
func elapsedDays(start, now time.Time, maxDays int) int {
	if now.Before(start) {
		return 0
	}
	days := int(now.Sub(start).Hours() / 24)
	if days > maxDays {
		return maxDays
	}
	return days
}

// accrue computes the profit on a principal after daysElapsed at the plan's
// daily rate, rounded to 2 decimal places. Compound interest is applied by
// per-day iteration so each day's interest builds on the previous day's
// total, matching day-granularity rounding expectations.
func accrue(principal, dailyROI decimal.Decimal, daysElapsed int, compound bool) decimal.Decimal {
	if daysElapsed <= 0 {
		return decimal.Zero
	}

	dailyRate := dailyROI.Div(oneHundred)

	if compound {
		total := principal
		for i := 0; i < daysElapsed; i++ {
			total = total.Add(total.Mul(dailyRate))
		}
		return total.Sub(principal).Round(2)
	}

	return principal.Mul(dailyRate).Mul(decimal.NewFromInt(int64(daysElapsed))).Round(2)
}
