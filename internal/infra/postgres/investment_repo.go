package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/investment"
)

// InvestmentRepository implements investment.Repository and
// investment.PlanSource using PostgreSQL. Its LockedPrincipal method also
// serves as the ledger's LockedFunds port.
type InvestmentRepository struct {
	pool *pgxpool.Pool
}

// NewInvestmentRepository creates a new PostgreSQL investment repository
func NewInvestmentRepository(pool *pgxpool.Pool) *InvestmentRepository {
	return &InvestmentRepository{pool: pool}
}

const planColumns = `id, name, description, min_amount, max_amount, daily_roi, duration_days, total_return, compound_interest`

// GetPlan retrieves a plan by ID
func (r *InvestmentRepository) GetPlan(ctx context.Context, id int64) (*investment.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM investment_plans WHERE id = $1`

	plan, err := scanPlan(getQueryer(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, investment.ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ListPlans returns all plans ordered by minimum amount
func (r *InvestmentRepository) ListPlans(ctx context.Context) ([]*investment.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM investment_plans ORDER BY min_amount ASC`

	rows, err := getQueryer(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*investment.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanPlan(row pgx.Row) (*investment.Plan, error) {
	var plan investment.Plan
	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.MinAmount,
		&plan.MaxAmount,
		&plan.DailyROI,
		&plan.DurationDays,
		&plan.TotalReturn,
		&plan.Compound,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	return &plan, nil
}

const positionColumns = `id, user_id, plan_id, amount, compound_interest, profit, total_return, is_completed, created_at, ends_at`

// CreatePosition inserts a new open position
func (r *InvestmentRepository) CreatePosition(ctx context.Context, position *investment.Position) error {
	query := `
		INSERT INTO investments (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := getQueryer(ctx, r.pool).Exec(ctx, query,
		position.ID,
		position.UserID,
		position.PlanID,
		position.Amount,
		position.Compound,
		position.Profit,
		position.TotalReturn,
		position.IsCompleted,
		position.CreatedAt,
		position.EndsAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// GetPosition retrieves a position by ID
func (r *InvestmentRepository) GetPosition(ctx context.Context, id uuid.UUID) (*investment.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM investments WHERE id = $1`

	position, err := scanPosition(getQueryer(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, investment.ErrPositionNotFound
		}
		return nil, err
	}
	return position, nil
}

// ListPositionsByUser returns a user's positions, newest first
func (r *InvestmentRepository) ListPositionsByUser(ctx context.Context, userID uuid.UUID) ([]*investment.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM investments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	return r.listPositions(ctx, query, userID)
}

// ListOpenPositions returns all positions with is_completed = false, oldest
// first so the closest-to-maturity positions are swept earliest
func (r *InvestmentRepository) ListOpenPositions(ctx context.Context) ([]*investment.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM investments
		WHERE is_completed = false
		ORDER BY ends_at ASC
	`
	return r.listPositions(ctx, query)
}

func (r *InvestmentRepository) listPositions(ctx context.Context, query string, args ...any) ([]*investment.Position, error) {
	rows, err := getQueryer(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []*investment.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}
	return positions, rows.Err()
}

func scanPosition(row pgx.Row) (*investment.Position, error) {
	var position investment.Position
	err := row.Scan(
		&position.ID,
		&position.UserID,
		&position.PlanID,
		&position.Amount,
		&position.Compound,
		&position.Profit,
		&position.TotalReturn,
		&position.IsCompleted,
		&position.CreatedAt,
		&position.EndsAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan position: %w", err)
	}
	return &position, nil
}

// UpdateAccrual stores the running profit for an open position. Completed
// positions are left untouched.
func (r *InvestmentRepository) UpdateAccrual(ctx context.Context, id uuid.UUID, profit, totalReturn decimal.Decimal) error {
	query := `
		UPDATE investments
		SET profit = $2, total_return = $3
		WHERE id = $1 AND is_completed = false
	`

	_, err := getQueryer(ctx, r.pool).Exec(ctx, query, id, profit, totalReturn)
	if err != nil {
		return fmt.Errorf("failed to update accrual: %w", err)
	}
	return nil
}

// CompletePosition flips is_completed from false to true and stores the final
// profit. The WHERE clause is the check-and-set guard: a position already
// completed by a racing sweep reports zero rows affected.
func (r *InvestmentRepository) CompletePosition(ctx context.Context, id uuid.UUID, profit, totalReturn decimal.Decimal) (bool, error) {
	query := `
		UPDATE investments
		SET profit = $2, total_return = $3, is_completed = true
		WHERE id = $1 AND is_completed = false
	`

	tag, err := getQueryer(ctx, r.pool).Exec(ctx, query, id, profit, totalReturn)
	if err != nil {
		return false, fmt.Errorf("failed to complete position: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LockedPrincipal sums the principal of a user's open positions
func (r *InvestmentRepository) LockedPrincipal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM investments
		WHERE user_id = $1 AND is_completed = false
	`

	var locked decimal.Decimal
	if err := getQueryer(ctx, r.pool).QueryRow(ctx, query, userID).Scan(&locked); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum locked principal: %w", err)
	}
	return locked, nil
}

// InTx runs fn within a database transaction
func (r *InvestmentRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return inTx(ctx, r.pool, fn)
}
