package funding

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side distinguishes the two funding request variants sharing one lifecycle
type Side string

const (
	SideDeposit    Side = "deposit"
	SideWithdrawal Side = "withdrawal"
)

// IsValid checks if the side is a known value
func (s Side) IsValid() bool {
	return s == SideDeposit || s == SideWithdrawal
}

// Status is the lifecycle state of a funding request. Requests start pending
// and are resolved exactly once; approved, rejected and failed are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

// MinAmount is the smallest accepted deposit or withdrawal
var MinAmount = decimal.NewFromInt(10)

// Request is an externally-approved funding request. Proof is the
// proof-of-payment reference on deposits; WalletAddress the destination on
// withdrawals. Both are opaque metadata, never validated against any
// external system.
type Request struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	Side          Side            `json:"side" db:"side"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Proof         string          `json:"proof,omitempty" db:"proof"`
	WalletAddress string          `json:"wallet_address,omitempty" db:"wallet_address"`
	Status        Status          `json:"status" db:"status"`
	Reason        string          `json:"reason,omitempty" db:"reason"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// NewRequest creates a pending funding request
func NewRequest(userID uuid.UUID, side Side, amount decimal.Decimal) *Request {
	now := time.Now().UTC()
	return &Request{
		ID:        uuid.New(),
		UserID:    userID,
		Side:      side,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks request fields before insert
func (r *Request) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	if !r.Side.IsValid() {
		return ErrInvalidSide
	}
	if r.Amount.LessThan(MinAmount) {
		return ErrAmountBelowMinimum
	}
	if r.Side == SideDeposit && r.Proof == "" {
		return ErrMissingProof
	}
	if r.Side == SideWithdrawal && r.WalletAddress == "" {
		return ErrMissingWalletAddress
	}
	return nil
}

// Resolved reports whether the request has reached a terminal state
func (r *Request) Resolved() bool {
	return r.Status != StatusPending
}
