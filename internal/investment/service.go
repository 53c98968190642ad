package investment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/notify"
	"github.com/harbourfi/vestcore/pkg/logger"
)

// Service manages positions and runs the accrual engine over them
type Service struct {
	repo     Repository
	plans    PlanSource
	wallet   WalletLedger
	notifier notify.Notifier
	logger   *logger.Logger
}

// NewService creates a new investment service
func NewService(repo Repository, plans PlanSource, wallet WalletLedger, notifier notify.Notifier, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		plans:    plans,
		wallet:   wallet,
		notifier: notifier,
		logger:   log.WithField("service", "investment"),
	}
}

// Open creates a position against a plan. The principal must fall within the
// plan bounds and be covered by the user's available balance; it stays in the
// wallet balance but counts as locked until the position completes.
func (s *Service) Open(ctx context.Context, userID uuid.UUID, planID int64, amount decimal.Decimal) (*Position, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	plan, err := s.plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.AllowsAmount(amount) {
		return nil, fmt.Errorf("%w: %s not in [%s, %s]", ErrAmountOutOfRange, amount, plan.MinAmount, plan.MaxAmount)
	}

	position := NewPosition(userID, plan, amount)

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		if err := s.wallet.ReserveInvestment(ctx, userID, amount); err != nil {
			return err
		}
		return s.repo.CreatePosition(ctx, position)
	})
	if err != nil {
		return nil, err
	}

	return position, nil
}

// Evaluate computes the accrued profit for a position at the given time and
// persists it. Completed positions short-circuit to the stored profit. At or
// after maturity the completion flag flip, wallet profit credit and the
// profit transaction record are committed as one database transaction, so
// the position can never end up completed with the profit unapplied.
func (s *Service) Evaluate(ctx context.Context, positionID uuid.UUID, now time.Time) (decimal.Decimal, error) {
	position, err := s.repo.GetPosition(ctx, positionID)
	if err != nil {
		return decimal.Zero, err
	}

	if position.IsCompleted {
		return position.Profit, nil
	}

	plan, err := s.plans.GetPlan(ctx, position.PlanID)
	if err != nil {
		return decimal.Zero, err
	}

	days := elapsedDays(position.CreatedAt, now, plan.DurationDays)
	profit := accrue(position.Amount, plan.DailyROI, days, position.Compound)
	totalReturn := position.Amount.Add(profit)

	if !position.Matured(now) {
		if err := s.repo.UpdateAccrual(ctx, position.ID, profit, totalReturn); err != nil {
			return decimal.Zero, err
		}
		return profit, nil
	}

	finalized := false
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.CompletePosition(ctx, position.ID, profit, totalReturn)
		if err != nil {
			return err
		}
		if !ok {
			// Lost the race to another terminal sweep; nothing to apply.
			return nil
		}
		finalized = true

		description := fmt.Sprintf("Investment profit from %s plan", plan.Name)
		_, err = s.wallet.ApplyProfit(ctx, position.UserID, profit, description)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	if finalized {
		s.notifier.PositionCompleted(ctx, position.UserID, plan.Name, position.Amount, profit)
		return profit, nil
	}

	// Another sweep completed it first; report the stored profit.
	completed, err := s.repo.GetPosition(ctx, positionID)
	if err != nil {
		return decimal.Zero, err
	}
	return completed.Profit, nil
}

// ListPlans returns all investment plans
func (s *Service) ListPlans(ctx context.Context) ([]*Plan, error) {
	return s.plans.ListPlans(ctx)
}

// GetPlan returns one plan by ID
func (s *Service) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	return s.plans.GetPlan(ctx, id)
}

// ListPositions returns a user's positions
func (s *Service) ListPositions(ctx context.Context, userID uuid.UUID) ([]*Position, error) {
	return s.repo.ListPositionsByUser(ctx, userID)
}

// GetPosition returns one position by ID
func (s *Service) GetPosition(ctx context.Context, id uuid.UUID) (*Position, error) {
	return s.repo.GetPosition(ctx, id)
}
