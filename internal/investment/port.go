package investment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/ledger"
)

// Repository defines the interface for position persistence
type Repository interface {
	// CreatePosition inserts a new open position
	CreatePosition(ctx context.Context, position *Position) error

	// GetPosition retrieves a position by ID
	GetPosition(ctx context.Context, id uuid.UUID) (*Position, error)

	// ListPositionsByUser returns a user's positions, newest first
	ListPositionsByUser(ctx context.Context, userID uuid.UUID) ([]*Position, error)

	// ListOpenPositions returns all positions with is_completed = false
	ListOpenPositions(ctx context.Context) ([]*Position, error)

	// UpdateAccrual stores the running profit for an open position
	UpdateAccrual(ctx context.Context, id uuid.UUID, profit, totalReturn decimal.Decimal) error

	// CompletePosition flips is_completed from false to true and stores the
	// final profit. Returns false when the position was already completed;
	// this check-and-set is the exclusion mechanism against a racing
	// terminal sweep and must run inside the finalization transaction.
	CompletePosition(ctx context.Context, id uuid.UUID, profit, totalReturn decimal.Decimal) (bool, error)

	// LockedPrincipal sums the principal of a user's open positions
	LockedPrincipal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)

	// InTx runs fn within a database transaction, joining one already in ctx
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PlanSource provides read-only access to investment plans. The Postgres
// repository implements it directly; a cache may wrap it.
type PlanSource interface {
	GetPlan(ctx context.Context, id int64) (*Plan, error)
	ListPlans(ctx context.Context) ([]*Plan, error)
}

// WalletLedger is the slice of the ledger service the accrual engine needs:
// folding matured profit into the wallet and reserving principal when a
// position opens.
type WalletLedger interface {
	ApplyProfit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*ledger.TransactionRecord, error)
	ReserveInvestment(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error
}
