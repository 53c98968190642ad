package funding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/ledger"
	"github.com/harbourfi/vestcore/internal/notify"
	"github.com/harbourfi/vestcore/pkg/logger"
)

// Service drives the funding request lifecycle. Resolution and the wallet
// mutation it triggers commit as one database transaction, so readers never
// observe an approved request whose ledger effect is missing.
type Service struct {
	repo     Repository
	wallet   WalletLedger
	notifier notify.Notifier
	logger   *logger.Logger
}

// NewService creates a new funding service
func NewService(repo Repository, wallet WalletLedger, notifier notify.Notifier, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		wallet:   wallet,
		notifier: notifier,
		logger:   log.WithField("service", "funding"),
	}
}

// SubmitDeposit creates a pending deposit request
func (s *Service) SubmitDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, proof string) (*Request, error) {
	request := NewRequest(userID, SideDeposit, amount)
	request.Proof = proof

	if err := request.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// SubmitWithdrawal creates a pending withdrawal request
func (s *Service) SubmitWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, walletAddress string) (*Request, error) {
	request := NewRequest(userID, SideWithdrawal, amount)
	request.WalletAddress = walletAddress

	if err := request.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Approve resolves a pending request. Deposits credit the wallet
// unconditionally; withdrawals first check the available balance under the
// wallet row lock and auto-reject when it does not cover the amount. No
// transaction record is written for an auto-reject, since it never became a
// real withdrawal attempt. A storage
// fault during the ledger step rolls the whole resolution back, then the
// request is marked failed and a failed-status record is written as the
// compensating audit entry.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Request, error) {
	var resolved *Request

	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		request, err := s.repo.GetRequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request.Resolved() {
			return ErrAlreadyResolved
		}

		switch request.Side {
		case SideDeposit:
			description := fmt.Sprintf("Deposit approved: %s", request.ID)
			if _, err := s.wallet.Credit(ctx, request.UserID, request.Amount, ledger.TypeDeposit, description); err != nil {
				return err
			}
			request.Status = StatusApproved

		case SideWithdrawal:
			description := fmt.Sprintf("Withdrawal processed: %s", request.ID)
			_, err := s.wallet.Withdraw(ctx, request.UserID, request.Amount, description)
			if errors.Is(err, ledger.ErrInsufficientFunds) {
				request.Status = StatusRejected
				request.Reason = "insufficient available balance"
			} else if err != nil {
				return err
			} else {
				request.Status = StatusApproved
			}

		default:
			return ErrInvalidSide
		}

		if err := s.repo.UpdateStatus(ctx, request.ID, request.Status, request.Reason); err != nil {
			return err
		}

		resolved = request
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrAlreadyResolved) || errors.Is(err, ErrRequestNotFound) {
			return nil, err
		}
		return nil, s.compensateFailure(ctx, id, err)
	}

	s.notifyResolved(ctx, resolved)
	return resolved, nil
}

// Reject resolves a pending request to rejected. No wallet mutation, no
// transaction record.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Request, error) {
	var resolved *Request

	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		request, err := s.repo.GetRequestForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if request.Resolved() {
			return ErrAlreadyResolved
		}

		request.Status = StatusRejected
		request.Reason = reason
		if err := s.repo.UpdateStatus(ctx, request.ID, request.Status, request.Reason); err != nil {
			return err
		}

		resolved = request
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.RequestRejected(ctx, resolved.UserID, string(resolved.Side), resolved.Amount, resolved.Reason)
	return resolved, nil
}

// GetRequest returns one request by ID
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetRequest(ctx, id)
}

// ListByUser returns a user's requests newest-first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, side *Side) ([]*Request, error) {
	return s.repo.ListByUser(ctx, userID, side)
}

// ListPending returns all pending requests for the admin review queue
func (s *Service) ListPending(ctx context.Context, side *Side) ([]*Request, error) {
	return s.repo.ListPending(ctx, side)
}

// compensateFailure marks the request failed and appends a failed-status
// audit record after the resolution transaction rolled back. The transition
// is a pending-only check-and-set: a concurrent resolution that landed in
// the window since the rollback keeps its terminal status, and no
// compensating record is written. The original fault is what gets reported;
// compensation errors are logged only.
func (s *Service) compensateFailure(ctx context.Context, id uuid.UUID, cause error) error {
	flipped, err := s.repo.MarkFailed(ctx, id, cause.Error())
	if err != nil {
		s.logger.Error("failed to mark request failed",
			"request_id", id, "cause", cause, "error", err)
		return cause
	}
	if !flipped {
		s.logger.Warn("request resolved concurrently, skipping compensation",
			"request_id", id, "cause", cause)
		return cause
	}

	request, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		s.logger.Error("failed to load request for compensation",
			"request_id", id, "cause", cause, "error", err)
		return cause
	}

	txType := ledger.TypeDeposit
	verb := "Deposit"
	if request.Side == SideWithdrawal {
		txType = ledger.TypeWithdrawal
		verb = "Withdrawal"
	}
	description := fmt.Sprintf("%s failed: %v", verb, cause)
	if _, err := s.wallet.RecordFailure(ctx, request.UserID, txType, request.Amount, description); err != nil {
		s.logger.Error("failed to write compensating record",
			"request_id", id, "user_id", request.UserID,
			"amount", request.Amount, "error", err)
	}

	return cause
}

func (s *Service) notifyResolved(ctx context.Context, request *Request) {
	switch {
	case request.Status == StatusApproved && request.Side == SideDeposit:
		s.notifier.DepositApproved(ctx, request.UserID, request.Amount, request.ID.String())
	case request.Status == StatusApproved && request.Side == SideWithdrawal:
		s.notifier.WithdrawalApproved(ctx, request.UserID, request.Amount, request.ID.String())
	case request.Status == StatusRejected:
		s.notifier.RequestRejected(ctx, request.UserID, string(request.Side), request.Amount, request.Reason)
	}
}
