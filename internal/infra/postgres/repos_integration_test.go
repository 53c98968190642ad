//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbourfi/vestcore/internal/funding"
	"github.com/harbourfi/vestcore/internal/infra/postgres"
	"github.com/harbourfi/vestcore/internal/investment"
	"github.com/harbourfi/vestcore/internal/ledger"
	"github.com/harbourfi/vestcore/testutil/testdb"
)

var db *testdb.TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	db, err = testdb.NewTestDB(ctx)
	if err != nil {
		panic("failed to start test database: " + err.Error())
	}

	code := m.Run()
	db.Close(ctx)

	if code != 0 {
		panic("tests failed")
	}
}

func resetDB(t *testing.T) {
	t.Helper()
	require.NoError(t, db.Reset(context.Background()))
}

func TestLedgerRepository_WalletLifecycle(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := postgres.NewLedgerRepository(db.Pool)
	userID := uuid.New()

	// First access creates the wallet
	wallet, err := repo.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, wallet.UserID)
	assert.True(t, wallet.Balance.IsZero())

	// Second access returns the same row
	again, err := repo.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, wallet.ID, again.ID)

	// The locked read is only legal inside a transaction
	_, err = repo.GetWalletForUpdate(ctx, userID)
	require.Error(t, err)

	err = repo.InTx(ctx, func(ctx context.Context) error {
		locked, err := repo.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		locked.Balance = decimal.NewFromInt(250)
		locked.UpdatedAt = time.Now().UTC()
		return repo.SaveWallet(ctx, locked)
	})
	require.NoError(t, err)

	wallet, err = repo.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(250)))
}

func TestLedgerRepository_Records(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := postgres.NewLedgerRepository(db.Pool)
	userID := uuid.New()

	var refs []string
	for i := 1; i <= 3; i++ {
		record := &ledger.TransactionRecord{
			ID:            uuid.New(),
			UserID:        userID,
			Type:          ledger.TypeDeposit,
			Amount:        decimal.NewFromInt(int64(i * 10)),
			Fee:           decimal.Zero,
			Status:        ledger.StatusSuccessful,
			BalanceBefore: decimal.Zero,
			BalanceAfter:  decimal.NewFromInt(int64(i * 10)),
			Description:   "seed",
			Reference:     ledger.NewReference(),
			CreatedAt:     time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.CreateRecord(ctx, record))
		refs = append(refs, record.Reference)
	}

	records, err := repo.ListRecords(ctx, userID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// Newest first
	assert.True(t, records[0].Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, records[2].Amount.Equal(decimal.NewFromInt(10)))

	paged, err := repo.ListRecords(ctx, userID, 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.True(t, paged[0].Amount.Equal(decimal.NewFromInt(20)))

	byRef, err := repo.GetRecordByReference(ctx, refs[0])
	require.NoError(t, err)
	assert.True(t, byRef.Amount.Equal(decimal.NewFromInt(10)))

	_, err = repo.GetRecordByReference(ctx, "TXN-DOESNOTEXIST")
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)

	// Duplicate references are refused by the unique constraint
	dup := *records[0]
	dup.ID = uuid.New()
	assert.Error(t, repo.CreateRecord(ctx, &dup))
}

func TestInvestmentRepository_SeededPlans(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := postgres.NewInvestmentRepository(db.Pool)

	plans, err := repo.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 4)

	// Ordered by minimum amount
	assert.Equal(t, "Basic", plans[0].Name)
	assert.Equal(t, "Titan Bot", plans[3].Name)
	assert.True(t, plans[0].DailyROI.Equal(decimal.RequireFromString("3.00")))
	assert.Equal(t, 5, plans[0].DurationDays)
	assert.True(t, plans[0].Compound)

	_, err = repo.GetPlan(ctx, 9999)
	assert.ErrorIs(t, err, investment.ErrPlanNotFound)
}

func TestInvestmentRepository_PositionLifecycle(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := postgres.NewInvestmentRepository(db.Pool)
	userID := uuid.New()

	plans, err := repo.ListPlans(ctx)
	require.NoError(t, err)
	plan := plans[0]

	position := investment.NewPosition(userID, plan, decimal.NewFromInt(50))
	require.NoError(t, repo.CreatePosition(ctx, position))

	locked, err := repo.LockedPrincipal(ctx, userID)
	require.NoError(t, err)
	assert.True(t, locked.Equal(decimal.NewFromInt(50)))

	require.NoError(t, repo.UpdateAccrual(ctx, position.ID,
		decimal.RequireFromString("1.50"), decimal.RequireFromString("51.50")))

	stored, err := repo.GetPosition(ctx, position.ID)
	require.NoError(t, err)
	assert.True(t, stored.Profit.Equal(decimal.RequireFromString("1.50")))
	assert.False(t, stored.IsCompleted)

	// Completion flips exactly once
	ok, err := repo.CompletePosition(ctx, position.ID,
		decimal.RequireFromString("7.76"), decimal.RequireFromString("57.76"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CompletePosition(ctx, position.ID,
		decimal.RequireFromString("9.99"), decimal.RequireFromString("59.99"))
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err = repo.GetPosition(ctx, position.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompleted)
	assert.True(t, stored.Profit.Equal(decimal.RequireFromString("7.76")))

	// Completed principal is no longer locked
	locked, err = repo.LockedPrincipal(ctx, userID)
	require.NoError(t, err)
	assert.True(t, locked.IsZero())

	open, err := repo.ListOpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestFundingRepository_RequestLifecycle(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	repo := postgres.NewFundingRepository(db.Pool)
	userID := uuid.New()

	deposit := funding.NewRequest(userID, funding.SideDeposit, decimal.NewFromInt(100))
	deposit.Proof = "receipt-14"
	require.NoError(t, repo.CreateRequest(ctx, deposit))

	withdrawal := funding.NewRequest(userID, funding.SideWithdrawal, decimal.NewFromInt(40))
	withdrawal.WalletAddress = "0xabc"
	require.NoError(t, repo.CreateRequest(ctx, withdrawal))

	pending, err := repo.ListPending(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	side := funding.SideDeposit
	deposits, err := repo.ListPending(ctx, &side)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, deposit.ID, deposits[0].ID)

	require.NoError(t, repo.UpdateStatus(ctx, deposit.ID, funding.StatusApproved, ""))

	stored, err := repo.GetRequest(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, funding.StatusApproved, stored.Status)

	pending, err = repo.ListPending(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	mine, err := repo.ListByUser(ctx, userID, nil)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	// MarkFailed only flips pending requests, a terminal status stands
	flipped, err := repo.MarkFailed(ctx, deposit.ID, "too late")
	require.NoError(t, err)
	assert.False(t, flipped)

	stored, err = repo.GetRequest(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, funding.StatusApproved, stored.Status)

	flipped, err = repo.MarkFailed(ctx, withdrawal.ID, "ledger unavailable")
	require.NoError(t, err)
	assert.True(t, flipped)

	stored, err = repo.GetRequest(ctx, withdrawal.ID)
	require.NoError(t, err)
	assert.Equal(t, funding.StatusFailed, stored.Status)
	assert.Equal(t, "ledger unavailable", stored.Reason)

	_, err = repo.GetRequest(ctx, uuid.New())
	assert.ErrorIs(t, err, funding.ErrRequestNotFound)
}

// A transaction started by one repository is joined by the others, so a
// failure anywhere rolls back every write.
func TestCrossRepositoryTransaction(t *testing.T) {
	resetDB(t)
	ctx := context.Background()
	ledgerRepo := postgres.NewLedgerRepository(db.Pool)
	fundingRepo := postgres.NewFundingRepository(db.Pool)
	userID := uuid.New()

	request := funding.NewRequest(userID, funding.SideDeposit, decimal.NewFromInt(100))
	request.Proof = "receipt"
	require.NoError(t, fundingRepo.CreateRequest(ctx, request))

	boom := errors.New("boom")
	err := ledgerRepo.InTx(ctx, func(ctx context.Context) error {
		wallet, err := ledgerRepo.GetWalletForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		wallet.Balance = decimal.NewFromInt(100)
		if err := ledgerRepo.SaveWallet(ctx, wallet); err != nil {
			return err
		}
		if err := fundingRepo.UpdateStatus(ctx, request.ID, funding.StatusApproved, ""); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Both writes rolled back, including the lazily created wallet row
	stored, err := fundingRepo.GetRequest(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, funding.StatusPending, stored.Status)

	wallet, err := ledgerRepo.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
}
