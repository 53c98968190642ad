package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/funding"
	"github.com/harbourfi/vestcore/internal/transport/httpapi/middleware"
)

// FundingService defines the operations the funding handler needs
type FundingService interface {
	SubmitDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, proof string) (*funding.Request, error)
	SubmitWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, walletAddress string) (*funding.Request, error)
	ListByUser(ctx context.Context, userID uuid.UUID, side *funding.Side) ([]*funding.Request, error)
}

// FundingHandler handles deposit and withdrawal request submission
type FundingHandler struct {
	service FundingService
}

// NewFundingHandler creates a new funding handler
func NewFundingHandler(service FundingService) *FundingHandler {
	return &FundingHandler{service: service}
}

// DepositRequest represents the deposit submission payload
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Proof  string          `json:"proof"`
}

// SubmitDeposit handles POST /deposits
func (h *FundingHandler) SubmitDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.service.SubmitDeposit(r.Context(), userID, req.Amount, req.Proof)
	if err != nil {
		respondFundingError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, request)
}

// WithdrawalRequest represents the withdrawal submission payload
type WithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	WalletAddress string          `json:"wallet_address"`
}

// SubmitWithdrawal handles POST /withdrawals
func (h *FundingHandler) SubmitWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.service.SubmitWithdrawal(r.Context(), userID, req.Amount, req.WalletAddress)
	if err != nil {
		respondFundingError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, request)
}

// ListRequests handles GET /funding-requests
func (h *FundingHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	side := parseSide(r.URL.Query().Get("side"))
	requests, err := h.service.ListByUser(r.Context(), userID, side)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list funding requests")
		return
	}

	if requests == nil {
		requests = []*funding.Request{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

func parseSide(raw string) *funding.Side {
	side := funding.Side(raw)
	if !side.IsValid() {
		return nil
	}
	return &side
}

func respondFundingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, funding.ErrAmountBelowMinimum),
		errors.Is(err, funding.ErrMissingProof),
		errors.Is(err, funding.ErrMissingWalletAddress),
		errors.Is(err, funding.ErrInvalidSide):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "failed to submit funding request")
	}
}
