package ledger

import "errors"

// Wallet errors
var (
	ErrInvalidUserID     = errors.New("invalid user ID")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletNotFound    = errors.New("wallet not found")
)

// Record errors
var (
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrNegativeAmount         = errors.New("amount cannot be negative")
	ErrMissingReference       = errors.New("transaction reference is required")
	ErrRecordNotFound         = errors.New("transaction record not found")
)
