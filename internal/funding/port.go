package funding

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/ledger"
)

// Repository defines the interface for funding request persistence
type Repository interface {
	// CreateRequest inserts a pending request
	CreateRequest(ctx context.Context, request *Request) error

	// GetRequest retrieves a request by ID
	GetRequest(ctx context.Context, id uuid.UUID) (*Request, error)

	// GetRequestForUpdate retrieves a request under an exclusive row lock.
	// Must be called inside InTx; the lock makes the pending check and the
	// status write one atomic resolution.
	GetRequestForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)

	// UpdateStatus writes the terminal status and resolution reason
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, reason string) error

	// MarkFailed flips a still-pending request to failed. Returns false
	// without writing when the request already reached a terminal status,
	// so a concurrent resolution's outcome is never overwritten.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)

	// ListByUser returns a user's requests newest-first, optionally
	// filtered by side
	ListByUser(ctx context.Context, userID uuid.UUID, side *Side) ([]*Request, error)

	// ListPending returns all pending requests newest-first, optionally
	// filtered by side
	ListPending(ctx context.Context, side *Side) ([]*Request, error)

	// InTx runs fn within a database transaction, joining one already in ctx
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WalletLedger is the slice of the ledger service funding resolution drives
type WalletLedger interface {
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType ledger.TransactionType, description string) (*ledger.TransactionRecord, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*ledger.TransactionRecord, error)
	RecordFailure(ctx context.Context, userID uuid.UUID, txType ledger.TransactionType, amount decimal.Decimal, description string) (*ledger.TransactionRecord, error)
}
