package funding

import "errors"

var (
	ErrInvalidUserID        = errors.New("invalid user ID")
	ErrInvalidSide          = errors.New("invalid funding request side")
	ErrAmountBelowMinimum   = errors.New("amount below minimum")
	ErrMissingProof         = errors.New("proof of payment is required")
	ErrMissingWalletAddress = errors.New("wallet address is required")
	ErrRequestNotFound      = errors.New("funding request not found")
	ErrAlreadyResolved      = errors.New("funding request already resolved")
)
