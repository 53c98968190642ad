package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/funding"
	"github.com/harbourfi/vestcore/internal/ledger"
)

// AdminFundingService defines the resolution operations exposed to admins
type AdminFundingService interface {
	Approve(ctx context.Context, id uuid.UUID) (*funding.Request, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*funding.Request, error)
	ListPending(ctx context.Context, side *funding.Side) ([]*funding.Request, error)
}

// AdminLedgerService defines the manual adjustment operations
type AdminLedgerService interface {
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType ledger.TransactionType, description string) (*ledger.TransactionRecord, error)
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, txType ledger.TransactionType, description string) (*ledger.TransactionRecord, error)
}

// AdminHandler handles the admin request queue and manual adjustments
type AdminHandler struct {
	funding AdminFundingService
	ledger  AdminLedgerService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(fundingSvc AdminFundingService, ledgerSvc AdminLedgerService) *AdminHandler {
	return &AdminHandler{funding: fundingSvc, ledger: ledgerSvc}
}

// ListPending handles GET /admin/funding-requests
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	side := parseSide(r.URL.Query().Get("side"))
	requests, err := h.funding.ListPending(r.Context(), side)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list pending requests")
		return
	}

	if requests == nil {
		requests = []*funding.Request{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// Approve handles POST /admin/funding-requests/{id}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	request, err := h.funding.Approve(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, funding.ErrRequestNotFound):
			respondError(w, http.StatusNotFound, "funding request not found")
		case errors.Is(err, funding.ErrAlreadyResolved):
			respondError(w, http.StatusConflict, "funding request already resolved")
		default:
			respondError(w, http.StatusInternalServerError, "failed to approve funding request")
		}
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// RejectRequest represents the rejection payload
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /admin/funding-requests/{id}/reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request ID")
		return
	}

	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.funding.Reject(r.Context(), id, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, funding.ErrRequestNotFound):
			respondError(w, http.StatusNotFound, "funding request not found")
		case errors.Is(err, funding.ErrAlreadyResolved):
			respondError(w, http.StatusConflict, "funding request already resolved")
		default:
			respondError(w, http.StatusInternalServerError, "failed to reject funding request")
		}
		return
	}

	respondJSON(w, http.StatusOK, request)
}

// AdjustmentRequest represents a manual credit or debit payload
type AdjustmentRequest struct {
	UserID      uuid.UUID       `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// ManualCredit handles POST /admin/adjustments/credit
func (h *AdminHandler) ManualCredit(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.ledger.Credit(r.Context(), req.UserID, req.Amount, ledger.TypeManualCredit, req.Description)
	if err != nil {
		respondAdjustmentError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

// ManualDebit handles POST /admin/adjustments/debit
func (h *AdminHandler) ManualDebit(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.ledger.Debit(r.Context(), req.UserID, req.Amount, ledger.TypeManualDebit, req.Description)
	if err != nil {
		respondAdjustmentError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record)
}

func respondAdjustmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidUserID):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		respondError(w, http.StatusUnprocessableEntity, "insufficient funds")
	default:
		respondError(w, http.StatusInternalServerError, "failed to apply adjustment")
	}
}
