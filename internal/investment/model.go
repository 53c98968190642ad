package investment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is read-only reference data describing investment terms. Plans are
// seeded by migration and only ever read as accrual parameters.
type Plan struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	MinAmount    decimal.Decimal `json:"min_amount" db:"min_amount"`
	MaxAmount    decimal.Decimal `json:"max_amount" db:"max_amount"`
	DailyROI     decimal.Decimal `json:"daily_roi" db:"daily_roi"`
	DurationDays int             `json:"duration_days" db:"duration_days"`
	TotalReturn  decimal.Decimal `json:"total_return" db:"total_return"`
	Compound     bool            `json:"compound_interest" db:"compound_interest"`
}

// Validate checks plan invariants
func (p *Plan) Validate() error {
	if p.MinAmount.GreaterThan(p.MaxAmount) {
		return ErrInvalidPlanBounds
	}
	if !p.DailyROI.IsPositive() {
		return ErrInvalidPlanROI
	}
	if p.DurationDays <= 0 {
		return ErrInvalidPlanDuration
	}
	return nil
}

// AllowsAmount reports whether a principal amount is within the plan bounds
func (p *Plan) AllowsAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinAmount) && amount.LessThanOrEqual(p.MaxAmount)
}

// Position is one user's stake against a plan. EndsAt is fixed at creation
// and never recomputed; IsCompleted flips false to true exactly once and is
// never reversed.
type Position struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	PlanID      int64           `json:"plan_id" db:"plan_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Compound    bool            `json:"compound_interest" db:"compound_interest"`
	Profit      decimal.Decimal `json:"profit" db:"profit"`
	TotalReturn decimal.Decimal `json:"total_return" db:"total_return"`
	IsCompleted bool            `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	EndsAt      time.Time       `json:"ends_at" db:"ends_at"`
}

// NewPosition opens a position against a plan. The maturity date derives
// from the plan duration at creation time.
func NewPosition(userID uuid.UUID, plan *Plan, amount decimal.Decimal) *Position {
	now := time.Now().UTC()
	return &Position{
		ID:          uuid.New(),
		UserID:      userID,
		PlanID:      plan.ID,
		Amount:      amount,
		Compound:    plan.Compound,
		Profit:      decimal.Zero,
		TotalReturn: decimal.Zero,
		IsCompleted: false,
		CreatedAt:   now,
		EndsAt:      now.AddDate(0, 0, plan.DurationDays),
	}
}

// Matured reports whether the position has reached its maturity date
func (p *Position) Matured(now time.Time) bool {
	return !now.Before(p.EndsAt)
}
