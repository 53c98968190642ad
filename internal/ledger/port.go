package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for wallet and transaction persistence
type Repository interface {
	// GetWallet retrieves a wallet by owner, creating it lazily if absent
	GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// GetWalletForUpdate retrieves a wallet by owner under an exclusive
	// row lock, creating it lazily if absent. Must be called inside InTx;
	// the lock is held until the surrounding transaction ends, which is
	// what serializes mutations per owner.
	GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// SaveWallet writes the wallet balances back
	SaveWallet(ctx context.Context, wallet *Wallet) error

	// CreateRecord appends a transaction record. Records are immutable
	// after insert.
	CreateRecord(ctx context.Context, record *TransactionRecord) error

	// ListRecords returns an owner's records ordered newest-first
	ListRecords(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TransactionRecord, error)

	// GetRecordByReference looks up a record by its unique reference code
	GetRecordByReference(ctx context.Context, reference string) (*TransactionRecord, error)

	// InTx runs fn within a database transaction. If ctx already carries a
	// transaction, fn joins it and commit/rollback is left to the outer
	// caller; otherwise a new transaction is begun and committed when fn
	// returns nil, rolled back when it returns an error.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LockedFunds reports the principal sum tied up in a user's open investment
// positions. Implemented by the investment repository; kept narrow so the
// ledger does not depend on investment internals.
type LockedFunds interface {
	LockedPrincipal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}
