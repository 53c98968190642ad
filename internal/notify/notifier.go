// Package notify defines the best-effort notification port invoked after
// ledger events. Implementations must never fail a ledger mutation: callers
// fire notifications after the database transaction has committed and ignore
// the outcome.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/pkg/logger"
)

// Notifier receives ledger event notifications
type Notifier interface {
	DepositApproved(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string)
	WithdrawalApproved(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string)
	RequestRejected(ctx context.Context, userID uuid.UUID, side string, amount decimal.Decimal, reason string)
	PositionCompleted(ctx context.Context, userID uuid.UUID, planName string, principal, profit decimal.Decimal)
}

// LogNotifier writes notifications to the structured log. It stands in for
// the email delivery layer, which lives outside this service.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithField("component", "notifier")}
}

func (n *LogNotifier) DepositApproved(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) {
	n.logger.Info("deposit approved", "user_id", userID, "amount", amount, "reference", reference)
}

func (n *LogNotifier) WithdrawalApproved(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) {
	n.logger.Info("withdrawal approved", "user_id", userID, "amount", amount, "reference", reference)
}

func (n *LogNotifier) RequestRejected(ctx context.Context, userID uuid.UUID, side string, amount decimal.Decimal, reason string) {
	n.logger.Info("funding request rejected", "user_id", userID, "side", side, "amount", amount, "reason", reason)
}

func (n *LogNotifier) PositionCompleted(ctx context.Context, userID uuid.UUID, planName string, principal, profit decimal.Decimal) {
	n.logger.Info("investment completed", "user_id", userID, "plan", planName, "principal", principal, "profit", profit)
}
