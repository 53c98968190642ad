package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbourfi/vestcore/internal/ledger"
)

// fakeRepo is an in-memory Repository. InTx holds the mutex for the whole
// callback, which mirrors the per-owner serialization the row lock provides.
// The tx-scoped methods are only ever called inside InTx and therefore do
// not lock again.
type fakeRepo struct {
	mu      sync.Mutex
	wallets map[uuid.UUID]*ledger.Wallet
	records []*ledger.TransactionRecord

	lastLimit  int
	lastOffset int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{wallets: make(map[uuid.UUID]*ledger.Wallet)}
}

func (f *fakeRepo) getOrCreate(userID uuid.UUID) *ledger.Wallet {
	if w, ok := f.wallets[userID]; ok {
		return w
	}
	w := ledger.NewWallet(userID)
	f.wallets[userID] = w
	return w
}

func (f *fakeRepo) GetWallet(ctx context.Context, userID uuid.UUID) (*ledger.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *f.getOrCreate(userID)
	return &clone, nil
}

func (f *fakeRepo) GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*ledger.Wallet, error) {
	clone := *f.getOrCreate(userID)
	return &clone, nil
}

func (f *fakeRepo) SaveWallet(ctx context.Context, wallet *ledger.Wallet) error {
	clone := *wallet
	f.wallets[wallet.UserID] = &clone
	return nil
}

func (f *fakeRepo) CreateRecord(ctx context.Context, record *ledger.TransactionRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	clone := *record
	f.records = append(f.records, &clone)
	return nil
}

func (f *fakeRepo) ListRecords(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*ledger.TransactionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.lastOffset = offset

	var out []*ledger.TransactionRecord
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) GetRecordByReference(ctx context.Context, reference string) (*ledger.TransactionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Reference == reference {
			return r, nil
		}
	}
	return nil, ledger.ErrRecordNotFound
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeRepo) recordsFor(userID uuid.UUID) []*ledger.TransactionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ledger.TransactionRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// fakeLocked reports a fixed locked principal
type fakeLocked struct {
	amount decimal.Decimal
}

func (f *fakeLocked) LockedPrincipal(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return f.amount, nil
}

func newTestService(locked decimal.Decimal) (*ledger.Service, *fakeRepo) {
	repo := newFakeRepo()
	return ledger.NewService(repo, &fakeLocked{amount: locked}), repo
}

func TestService_Credit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := newTestService(decimal.Zero)

	record, err := svc.Credit(ctx, userID, decimal.NewFromInt(100), ledger.TypeDeposit, "first deposit")
	require.NoError(t, err)

	assert.Equal(t, ledger.TypeDeposit, record.Type)
	assert.Equal(t, ledger.StatusSuccessful, record.Status)
	assert.True(t, record.BalanceBefore.IsZero())
	assert.True(t, record.BalanceAfter.Equal(decimal.NewFromInt(100)))
	assert.NotEmpty(t, record.Reference)

	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(100)))

	require.Len(t, repo.recordsFor(userID), 1)
}

func TestService_Credit_Rejections(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := newTestService(decimal.Zero)

	_, err := svc.Credit(ctx, userID, decimal.Zero, ledger.TypeDeposit, "zero")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.Credit(ctx, userID, decimal.NewFromInt(-10), ledger.TypeDeposit, "negative")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.Credit(ctx, userID, decimal.NewFromInt(10), ledger.TypeWithdrawal, "wrong direction")
	assert.ErrorIs(t, err, ledger.ErrInvalidTransactionType)

	assert.Empty(t, repo.recordsFor(userID))
}

func TestService_Debit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, _ := newTestService(decimal.Zero)

	_, err := svc.Credit(ctx, userID, decimal.NewFromInt(100), ledger.TypeDeposit, "seed")
	require.NoError(t, err)

	record, err := svc.Debit(ctx, userID, decimal.NewFromInt(40), ledger.TypeManualDebit, "adjustment")
	require.NoError(t, err)

	assert.True(t, record.BalanceBefore.Equal(decimal.NewFromInt(100)))
	assert.True(t, record.BalanceAfter.Equal(decimal.NewFromInt(60)))

	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, wallet.TotalWithdrawn.Equal(decimal.NewFromInt(40)))
}

func TestService_Debit_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := newTestService(decimal.Zero)

	_, err := svc.Credit(ctx, userID, decimal.NewFromInt(30), ledger.TypeDeposit, "seed")
	require.NoError(t, err)

	_, err = svc.Debit(ctx, userID, decimal.NewFromInt(50), ledger.TypeManualDebit, "too much")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// No mutation and no record on rejection
	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(30)))
	assert.Len(t, repo.recordsFor(userID), 1)
}

func TestService_Withdraw_RespectsLockedPrincipal(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := newTestService(decimal.NewFromInt(60))

	_, err := svc.Credit(ctx, userID, decimal.NewFromInt(100), ledger.TypeDeposit, "seed")
	require.NoError(t, err)

	// Balance 100, locked 60: only 40 is available
	_, err = svc.Withdraw(ctx, userID, decimal.NewFromInt(50), "over available")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Len(t, repo.recordsFor(userID), 1)

	record, err := svc.Withdraw(ctx, userID, decimal.NewFromInt(40), "within available")
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeWithdrawal, record.Type)
	assert.True(t, record.BalanceAfter.Equal(decimal.NewFromInt(60)))

	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.TotalWithdrawn.Equal(decimal.NewFromInt(40)))
}

func TestService_ApplyProfit(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, _ := newTestService(decimal.Zero)

	record, err := svc.ApplyProfit(ctx, userID, decimal.RequireFromString("15.93"), "plan payout")
	require.NoError(t, err)
	assert.Equal(t, ledger.TypeProfit, record.Type)

	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("15.93")))
	assert.True(t, wallet.TotalProfit.Equal(decimal.RequireFromString("15.93")))

	// Zero profit is a valid credit, negative is not
	_, err = svc.ApplyProfit(ctx, userID, decimal.Zero, "flat day")
	assert.NoError(t, err)

	_, err = svc.ApplyProfit(ctx, userID, decimal.NewFromInt(-1), "negative")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestService_ReserveInvestment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := newTestService(decimal.Zero)

	_, err := svc.Credit(ctx, userID, decimal.NewFromInt(500), ledger.TypeDeposit, "seed")
	require.NoError(t, err)

	err = svc.ReserveInvestment(ctx, userID, decimal.NewFromInt(600))
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	err = svc.ReserveInvestment(ctx, userID, decimal.NewFromInt(300))
	require.NoError(t, err)

	// The principal stays in the balance; only TotalInvested moves and no
	// record is written.
	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, wallet.TotalInvested.Equal(decimal.NewFromInt(300)))
	assert.Len(t, repo.recordsFor(userID), 1)
}

func TestService_AvailableBalance_NotClamped(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, _ := newTestService(decimal.NewFromInt(80))

	_, err := svc.Credit(ctx, userID, decimal.NewFromInt(50), ledger.TypeDeposit, "seed")
	require.NoError(t, err)

	available, err := svc.AvailableBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, available.Equal(decimal.NewFromInt(-30)), "got %s", available)
}

func TestService_RecordFailure(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, _ := newTestService(decimal.Zero)

	record, err := svc.RecordFailure(ctx, userID, ledger.TypeDeposit, decimal.NewFromInt(75), "Deposit failed: storage fault")
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusFailed, record.Status)
	assert.True(t, record.BalanceBefore.IsZero())
	assert.True(t, record.BalanceAfter.IsZero())

	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
}

func TestService_ListTransactions_LimitNormalization(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := newTestService(decimal.Zero)

	_, err := svc.ListTransactions(ctx, userID, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	_, err = svc.ListTransactions(ctx, userID, 500, 10)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)
	assert.Equal(t, 10, repo.lastOffset)

	_, err = svc.ListTransactions(ctx, userID, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, repo.lastLimit)
}

// Every mutation pairs a record whose before/after chain is contiguous, and
// the final balance equals credits minus debits.
func TestService_AuditChainConservation(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, repo := newTestService(decimal.Zero)

	_, err := svc.Credit(ctx, userID, decimal.NewFromInt(200), ledger.TypeDeposit, "d1")
	require.NoError(t, err)
	_, err = svc.ApplyProfit(ctx, userID, decimal.RequireFromString("15.93"), "p1")
	require.NoError(t, err)
	_, err = svc.Debit(ctx, userID, decimal.NewFromInt(50), ledger.TypeManualDebit, "a1")
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, userID, decimal.NewFromInt(100), "w1")
	require.NoError(t, err)

	records := repo.recordsFor(userID)
	require.Len(t, records, 4)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].BalanceBefore.Equal(records[i-1].BalanceAfter),
			"record %d balance_before %s != previous balance_after %s",
			i, records[i].BalanceBefore, records[i-1].BalanceAfter)
	}

	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("65.93")))
}

// Concurrent debits against one wallet serialize on the row lock: the fake
// models it with a mutex held for the whole transaction, so exactly the
// attempts the balance covers succeed.
func TestService_ConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	svc, _ := newTestService(decimal.Zero)

	_, err := svc.Credit(ctx, userID, decimal.NewFromInt(100), ledger.TypeDeposit, "seed")
	require.NoError(t, err)

	const attempts = 10
	debit := decimal.NewFromInt(30)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Debit(ctx, userID, debit, ledger.TypeManualDebit, "concurrent")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		}
	}

	assert.Equal(t, 3, successes)

	wallet, err := svc.GetWallet(ctx, userID)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(10)), "got %s", wallet.Balance)
	assert.False(t, wallet.Balance.IsNegative())
}
