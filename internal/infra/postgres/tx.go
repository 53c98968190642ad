package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database transactions are carried in the context so that repository calls
// across packages (ledger, investment, funding) join the same transaction
// when one is in flight. This is what lets a funding approval or a position
// finalization commit its status change, the wallet mutation and the audit
// record as one unit.

type ctxKey string

const txContextKey ctxKey = "pg_tx"

// queryer is the subset of pgx shared by pgxpool.Pool and pgx.Tx
type queryer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txFromContext retrieves the transaction from context if one exists
func txFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txContextKey).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// getQueryer returns the transaction if one exists in context, otherwise the pool
func getQueryer(ctx context.Context, pool *pgxpool.Pool) queryer {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// inTx runs fn within a database transaction. A transaction already in the
// context is joined, leaving commit/rollback to the outer owner; otherwise a
// new one is begun and committed when fn returns nil.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	ctx = context.WithValue(ctx, txContextKey, tx)

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && rbErr != pgx.ErrTxClosed {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
