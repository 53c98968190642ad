package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harbourfi/vestcore/internal/funding"
)

// FundingRepository implements funding.Repository using PostgreSQL
type FundingRepository struct {
	pool *pgxpool.Pool
}

// NewFundingRepository creates a new PostgreSQL funding repository
func NewFundingRepository(pool *pgxpool.Pool) *FundingRepository {
	return &FundingRepository{pool: pool}
}

const requestColumns = `id, user_id, side, amount, proof, wallet_address, status, reason, created_at, updated_at`

// CreateRequest inserts a pending request
func (r *FundingRepository) CreateRequest(ctx context.Context, request *funding.Request) error {
	if err := request.Validate(); err != nil {
		return fmt.Errorf("invalid funding request: %w", err)
	}

	query := `
		INSERT INTO funding_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := getQueryer(ctx, r.pool).Exec(ctx, query,
		request.ID,
		request.UserID,
		string(request.Side),
		request.Amount,
		request.Proof,
		request.WalletAddress,
		string(request.Status),
		request.Reason,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create funding request: %w", err)
	}
	return nil
}

// GetRequest retrieves a request by ID
func (r *FundingRepository) GetRequest(ctx context.Context, id uuid.UUID) (*funding.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM funding_requests WHERE id = $1`
	return r.getRequest(ctx, query, id)
}

// GetRequestForUpdate retrieves a request under an exclusive row lock
func (r *FundingRepository) GetRequestForUpdate(ctx context.Context, id uuid.UUID) (*funding.Request, error) {
	if txFromContext(ctx) == nil {
		return nil, fmt.Errorf("GetRequestForUpdate requires a transaction")
	}

	query := `SELECT ` + requestColumns + ` FROM funding_requests WHERE id = $1 FOR UPDATE`
	return r.getRequest(ctx, query, id)
}

func (r *FundingRepository) getRequest(ctx context.Context, query string, id uuid.UUID) (*funding.Request, error) {
	request, err := scanRequest(getQueryer(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, funding.ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

func scanRequest(row pgx.Row) (*funding.Request, error) {
	var request funding.Request
	err := row.Scan(
		&request.ID,
		&request.UserID,
		&request.Side,
		&request.Amount,
		&request.Proof,
		&request.WalletAddress,
		&request.Status,
		&request.Reason,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan funding request: %w", err)
	}
	return &request, nil
}

// UpdateStatus writes the terminal status and resolution reason
func (r *FundingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status funding.Status, reason string) error {
	query := `
		UPDATE funding_requests
		SET status = $2, reason = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := getQueryer(ctx, r.pool).Exec(ctx, query, id, string(status), reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update funding request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return funding.ErrRequestNotFound
	}
	return nil
}

// MarkFailed flips a still-pending request to failed. The status guard makes
// it a check-and-set, so a resolution that already committed is left alone.
func (r *FundingRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE funding_requests
		SET status = 'failed', reason = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := getQueryer(ctx, r.pool).Exec(ctx, query, id, reason, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to mark funding request failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUser returns a user's requests newest-first, optionally by side
func (r *FundingRepository) ListByUser(ctx context.Context, userID uuid.UUID, side *funding.Side) ([]*funding.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM funding_requests
		WHERE user_id = $1 AND ($2::text IS NULL OR side = $2)
		ORDER BY created_at DESC
	`
	return r.listRequests(ctx, query, userID, sideArg(side))
}

// ListPending returns all pending requests newest-first, optionally by side
func (r *FundingRepository) ListPending(ctx context.Context, side *funding.Side) ([]*funding.Request, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM funding_requests
		WHERE status = 'pending' AND ($1::text IS NULL OR side = $1)
		ORDER BY created_at DESC
	`
	return r.listRequests(ctx, query, sideArg(side))
}

func (r *FundingRepository) listRequests(ctx context.Context, query string, args ...any) ([]*funding.Request, error) {
	rows, err := getQueryer(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list funding requests: %w", err)
	}
	defer rows.Close()

	var requests []*funding.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func sideArg(side *funding.Side) any {
	if side == nil {
		return nil
	}
	return string(*side)
}

// InTx runs fn within a database transaction
func (r *FundingRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return inTx(ctx, r.pool, fn)
}
