package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service exposes the wallet ledger operations. Every mutating operation
// locks the owner's wallet row, applies the balance change and appends the
// paired TransactionRecord inside one database transaction, so a balance
// change is never observable without its audit entry (or vice versa).
type Service struct {
	repo   Repository
	locked LockedFunds
}

// NewService creates a new ledger service
func NewService(repo Repository, locked LockedFunds) *Service {
	return &Service{
		repo:   repo,
		locked: locked,
	}
}

// Credit adds funds to the owner's wallet. Credits are always allowed for
// positive amounts; the only failure mode is a storage fault.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType TransactionType, description string) (*TransactionRecord, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !txType.IsCredit() {
		return nil, fmt.Errorf("%w: %s is not a credit type", ErrInvalidTransactionType, txType)
	}

	var record *TransactionRecord
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		wallet, err := s.repo.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		before := wallet.Balance
		wallet.Balance = wallet.Balance.Add(amount)
		wallet.UpdatedAt = time.Now().UTC()

		if err := s.repo.SaveWallet(ctx, wallet); err != nil {
			return err
		}

		record = s.newRecord(userID, txType, amount, description, before, wallet.Balance)
		return s.repo.CreateRecord(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Debit removes funds from the owner's wallet. Returns ErrInsufficientFunds
// with no mutation when the balance is lower than the requested amount.
// Successful debits accumulate into TotalWithdrawn.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType TransactionType, description string) (*TransactionRecord, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if txType.IsCredit() {
		return nil, fmt.Errorf("%w: %s is not a debit type", ErrInvalidTransactionType, txType)
	}

	var record *TransactionRecord
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		wallet, err := s.repo.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		if wallet.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		before := wallet.Balance
		wallet.Balance = wallet.Balance.Sub(amount)
		wallet.TotalWithdrawn = wallet.TotalWithdrawn.Add(amount)
		wallet.UpdatedAt = time.Now().UTC()

		if err := s.repo.SaveWallet(ctx, wallet); err != nil {
			return err
		}

		record = s.newRecord(userID, txType, amount, description, before, wallet.Balance)
		return s.repo.CreateRecord(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Withdraw debits the wallet for an approved withdrawal after checking the
// available balance (balance minus principal locked in open positions) under
// the wallet row lock. Returns ErrInsufficientFunds with no mutation and no
// record when the available balance does not cover the amount.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*TransactionRecord, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var record *TransactionRecord
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		wallet, err := s.repo.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		lockedAmount, err := s.locked.LockedPrincipal(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get locked principal: %w", err)
		}

		if wallet.Balance.Sub(lockedAmount).LessThan(amount) {
			return ErrInsufficientFunds
		}

		before := wallet.Balance
		wallet.Balance = wallet.Balance.Sub(amount)
		wallet.TotalWithdrawn = wallet.TotalWithdrawn.Add(amount)
		wallet.UpdatedAt = time.Now().UTC()

		if err := s.repo.SaveWallet(ctx, wallet); err != nil {
			return err
		}

		record = s.newRecord(userID, TypeWithdrawal, amount, description, before, wallet.Balance)
		return s.repo.CreateRecord(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ApplyProfit credits investment profit into the wallet and accumulates it
// into TotalProfit. A zero amount is a no-op record-wise valid credit.
func (s *Service) ApplyProfit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*TransactionRecord, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	var record *TransactionRecord
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		wallet, err := s.repo.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		before := wallet.Balance
		wallet.Balance = wallet.Balance.Add(amount)
		wallet.TotalProfit = wallet.TotalProfit.Add(amount)
		wallet.UpdatedAt = time.Now().UTC()

		if err := s.repo.SaveWallet(ctx, wallet); err != nil {
			return err
		}

		record = s.newRecord(userID, TypeProfit, amount, description, before, wallet.Balance)
		return s.repo.CreateRecord(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ReserveInvestment checks that the available balance covers a new position's
// principal and accumulates it into TotalInvested. The principal stays in the
// balance; it is excluded from the available balance until the position
// completes. No transaction record is written since the balance itself does
// not change.
func (s *Service) ReserveInvestment(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	return s.repo.InTx(ctx, func(ctx context.Context) error {
		wallet, err := s.repo.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		lockedAmount, err := s.locked.LockedPrincipal(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get locked principal: %w", err)
		}

		if wallet.Balance.Sub(lockedAmount).LessThan(amount) {
			return ErrInsufficientFunds
		}

		wallet.TotalInvested = wallet.TotalInvested.Add(amount)
		wallet.UpdatedAt = time.Now().UTC()
		return s.repo.SaveWallet(ctx, wallet)
	})
}

// AvailableBalance returns the balance minus the principal locked in the
// owner's open positions. The result is deliberately not clamped at zero; a
// negative value means an invariant was broken upstream and must be visible.
func (s *Service) AvailableBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	lockedAmount, err := s.locked.LockedPrincipal(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get locked principal: %w", err)
	}

	return wallet.Balance.Sub(lockedAmount), nil
}

// GetWallet returns the owner's wallet, creating it lazily on first access
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	return s.repo.GetWallet(ctx, userID)
}

// ListTransactions returns the owner's transaction records newest-first
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TransactionRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListRecords(ctx, userID, limit, offset)
}

// RecordFailure appends a failed-status record with no wallet mutation. Used
// as the compensating write when a funding request's ledger step could not be
// applied: the failure must be auditable, never silent.
func (s *Service) RecordFailure(ctx context.Context, userID uuid.UUID, txType TransactionType, amount decimal.Decimal, description string) (*TransactionRecord, error) {
	record := &TransactionRecord{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		Fee:           decimal.Zero,
		Status:        StatusFailed,
		BalanceBefore: decimal.Zero,
		BalanceAfter:  decimal.Zero,
		Description:   description,
		Reference:     NewReference(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.CreateRecord(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Service) newRecord(userID uuid.UUID, txType TransactionType, amount decimal.Decimal, description string, before, after decimal.Decimal) *TransactionRecord {
	return &TransactionRecord{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		Fee:           decimal.Zero,
		Status:        StatusSuccessful,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
		Reference:     NewReference(),
		CreatedAt:     time.Now().UTC(),
	}
}
