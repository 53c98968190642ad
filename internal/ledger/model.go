package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds the current balance for one owner. There is exactly one wallet
// per user; it is created lazily on first use and never deleted. Balances only
// change through Service operations, each of which writes the wallet row and
// its paired TransactionRecord in a single database transaction.
type Wallet struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         uuid.UUID       `json:"user_id" db:"user_id"`
	Balance        decimal.Decimal `json:"balance" db:"balance"`
	TotalInvested  decimal.Decimal `json:"total_invested" db:"total_invested"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn" db:"total_withdrawn"`
	TotalProfit    decimal.Decimal `json:"total_profit" db:"total_profit"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// NewWallet creates a zero-balance wallet for a user
func NewWallet(userID uuid.UUID) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:             uuid.New(),
		UserID:         userID,
		Balance:        decimal.Zero,
		TotalInvested:  decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		TotalProfit:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TransactionType classifies a balance-affecting event
type TransactionType string

const (
	TypeDeposit      TransactionType = "deposit"
	TypeWithdrawal   TransactionType = "withdrawal"
	TypeProfit       TransactionType = "profit"
	TypeManualCredit TransactionType = "manual_credit"
	TypeManualDebit  TransactionType = "manual_debit"
	TypeTransfer     TransactionType = "transfer"
)

// IsValid checks if the transaction type is one of the known values
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeProfit, TypeManualCredit, TypeManualDebit, TypeTransfer:
		return true
	}
	return false
}

// IsCredit returns true for types that increase the balance
func (t TransactionType) IsCredit() bool {
	switch t {
	case TypeDeposit, TypeProfit, TypeManualCredit:
		return true
	}
	return false
}

// TransactionStatus is the outcome recorded for a ledger event
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "pending"
	StatusSuccessful TransactionStatus = "successful"
	StatusFailed     TransactionStatus = "failed"
)

// TransactionRecord is one immutable entry in the wallet audit trail.
// Records are append-only: amount, type and balances are never rewritten
// after insert.
type TransactionRecord struct {
	ID            uuid.UUID         `json:"id" db:"id"`
	UserID        uuid.UUID         `json:"user_id" db:"user_id"`
	Type          TransactionType   `json:"type" db:"type"`
	Amount        decimal.Decimal   `json:"amount" db:"amount"`
	Fee           decimal.Decimal   `json:"fee" db:"fee"`
	Status        TransactionStatus `json:"status" db:"status"`
	BalanceBefore decimal.Decimal   `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal   `json:"balance_after" db:"balance_after"`
	Description   string            `json:"description" db:"description"`
	Reference     string            `json:"reference" db:"reference"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// Validate checks record fields before insert
func (r *TransactionRecord) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrInvalidUserID
	}
	if !r.Type.IsValid() {
		return ErrInvalidTransactionType
	}
	if r.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if r.Reference == "" {
		return ErrMissingReference
	}
	return nil
}

// NewReference generates a globally unique transaction reference code,
// "TXN-" followed by 10 uppercase hex characters.
func NewReference() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return "TXN-" + hex[:10]
}
