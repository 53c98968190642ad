package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harbourfi/vestcore/internal/ledger"
)

// LedgerRepository implements ledger.Repository using PostgreSQL
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const walletColumns = `id, user_id, balance, total_invested, total_withdrawn, total_profit, created_at, updated_at`

// GetWallet retrieves a wallet by owner, creating it lazily if absent
func (r *LedgerRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*ledger.Wallet, error) {
	if err := r.ensureWallet(ctx, userID); err != nil {
		return nil, err
	}

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return r.scanWallet(getQueryer(ctx, r.pool).QueryRow(ctx, query, userID))
}

// GetWalletForUpdate retrieves a wallet under an exclusive row lock, creating
// it lazily if absent. The lock is held until the surrounding transaction
// ends, serializing all mutations against one owner while leaving other
// owners uncontended.
func (r *LedgerRepository) GetWalletForUpdate(ctx context.Context, userID uuid.UUID) (*ledger.Wallet, error) {
	if txFromContext(ctx) == nil {
		return nil, fmt.Errorf("GetWalletForUpdate requires a transaction")
	}

	if err := r.ensureWallet(ctx, userID); err != nil {
		return nil, err
	}

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1 FOR UPDATE`
	return r.scanWallet(getQueryer(ctx, r.pool).QueryRow(ctx, query, userID))
}

// ensureWallet inserts a zero-balance wallet row unless one exists.
// ON CONFLICT DO NOTHING keeps concurrent first accesses race-free.
func (r *LedgerRepository) ensureWallet(ctx context.Context, userID uuid.UUID) error {
	wallet := ledger.NewWallet(userID)

	query := `
		INSERT INTO wallets (id, user_id, balance, total_invested, total_withdrawn, total_profit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := getQueryer(ctx, r.pool).Exec(ctx, query,
		wallet.ID,
		wallet.UserID,
		wallet.Balance,
		wallet.TotalInvested,
		wallet.TotalWithdrawn,
		wallet.TotalProfit,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return nil
}

func (r *LedgerRepository) scanWallet(row pgx.Row) (*ledger.Wallet, error) {
	var wallet ledger.Wallet
	err := row.Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Balance,
		&wallet.TotalInvested,
		&wallet.TotalWithdrawn,
		&wallet.TotalProfit,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

// SaveWallet writes the wallet balances back
func (r *LedgerRepository) SaveWallet(ctx context.Context, wallet *ledger.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $2, total_invested = $3, total_withdrawn = $4, total_profit = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := getQueryer(ctx, r.pool).Exec(ctx, query,
		wallet.ID,
		wallet.Balance,
		wallet.TotalInvested,
		wallet.TotalWithdrawn,
		wallet.TotalProfit,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrWalletNotFound
	}
	return nil
}

const recordColumns = `id, user_id, type, amount, fee, status, balance_before, balance_after, description, reference, created_at`

// CreateRecord appends a transaction record
func (r *LedgerRepository) CreateRecord(ctx context.Context, record *ledger.TransactionRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid record: %w", err)
	}

	query := `
		INSERT INTO transactions (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := getQueryer(ctx, r.pool).Exec(ctx, query,
		record.ID,
		record.UserID,
		string(record.Type),
		record.Amount,
		record.Fee,
		string(record.Status),
		record.BalanceBefore,
		record.BalanceAfter,
		record.Description,
		record.Reference,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction record: %w", err)
	}
	return nil
}

// ListRecords returns an owner's records ordered newest-first
func (r *LedgerRepository) ListRecords(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*ledger.TransactionRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := getQueryer(ctx, r.pool).Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction records: %w", err)
	}
	defer rows.Close()

	var records []*ledger.TransactionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetRecordByReference looks up a record by its unique reference code
func (r *LedgerRepository) GetRecordByReference(ctx context.Context, reference string) (*ledger.TransactionRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM transactions WHERE reference = $1`

	record, err := scanRecord(getQueryer(ctx, r.pool).QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

func scanRecord(row pgx.Row) (*ledger.TransactionRecord, error) {
	var record ledger.TransactionRecord
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.Type,
		&record.Amount,
		&record.Fee,
		&record.Status,
		&record.BalanceBefore,
		&record.BalanceAfter,
		&record.Description,
		&record.Reference,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction record: %w", err)
	}
	return &record, nil
}

// InTx runs fn within a database transaction
func (r *LedgerRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return inTx(ctx, r.pool, fn)
}
