package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/ledger"
	"github.com/harbourfi/vestcore/internal/transport/httpapi/middleware"
)

// WalletService defines the ledger operations the wallet handler needs
type WalletService interface {
	GetWallet(ctx context.Context, userID uuid.UUID) (*ledger.Wallet, error)
	AvailableBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*ledger.TransactionRecord, error)
}

// WalletHandler handles wallet-related HTTP requests
type WalletHandler struct {
	service WalletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(service WalletService) *WalletHandler {
	return &WalletHandler{service: service}
}

// WalletResponse represents the wallet summary response
type WalletResponse struct {
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	TotalInvested    decimal.Decimal `json:"total_invested"`
	TotalWithdrawn   decimal.Decimal `json:"total_withdrawn"`
	TotalProfit      decimal.Decimal `json:"total_profit"`
}

// GetWallet handles GET /wallet
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load wallet")
		return
	}

	available, err := h.service.AvailableBalance(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load wallet")
		return
	}

	respondJSON(w, http.StatusOK, WalletResponse{
		Balance:          wallet.Balance,
		AvailableBalance: available,
		TotalInvested:    wallet.TotalInvested,
		TotalWithdrawn:   wallet.TotalWithdrawn,
		TotalProfit:      wallet.TotalProfit,
	})
}

// TransactionsResponse represents the transaction history response
type TransactionsResponse struct {
	Transactions []*ledger.TransactionRecord `json:"transactions"`
}

// ListTransactions handles GET /transactions
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	records, err := h.service.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	if records == nil {
		records = []*ledger.TransactionRecord{}
	}
	respondJSON(w, http.StatusOK, TransactionsResponse{Transactions: records})
}
