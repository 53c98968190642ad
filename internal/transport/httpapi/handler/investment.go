package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/harbourfi/vestcore/internal/investment"
	"github.com/harbourfi/vestcore/internal/ledger"
	"github.com/harbourfi/vestcore/internal/transport/httpapi/middleware"
)

// InvestmentService defines the operations the investment handler needs
type InvestmentService interface {
	ListPlans(ctx context.Context) ([]*investment.Plan, error)
	GetPlan(ctx context.Context, id int64) (*investment.Plan, error)
	Open(ctx context.Context, userID uuid.UUID, planID int64, amount decimal.Decimal) (*investment.Position, error)
	ListPositions(ctx context.Context, userID uuid.UUID) ([]*investment.Position, error)
}

// InvestmentHandler handles plan and position HTTP requests
type InvestmentHandler struct {
	service InvestmentService
}

// NewInvestmentHandler creates a new investment handler
func NewInvestmentHandler(service InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{service: service}
}

// ListPlans handles GET /plans
func (h *InvestmentHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list plans")
		return
	}

	if plans == nil {
		plans = []*investment.Plan{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// GetPlan handles GET /plans/{id}
func (h *InvestmentHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid plan ID")
		return
	}

	plan, err := h.service.GetPlan(r.Context(), id)
	if err != nil {
		if errors.Is(err, investment.ErrPlanNotFound) {
			respondError(w, http.StatusNotFound, "plan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load plan")
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

// OpenPositionRequest represents the position creation request
type OpenPositionRequest struct {
	PlanID int64           `json:"plan_id"`
	Amount decimal.Decimal `json:"amount"`
}

// OpenPosition handles POST /investments
func (h *InvestmentHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req OpenPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	position, err := h.service.Open(r.Context(), userID, req.PlanID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, investment.ErrPlanNotFound):
			respondError(w, http.StatusNotFound, "plan not found")
		case errors.Is(err, investment.ErrAmountOutOfRange), errors.Is(err, investment.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			respondError(w, http.StatusUnprocessableEntity, "insufficient available balance")
		default:
			respondError(w, http.StatusInternalServerError, "failed to open position")
		}
		return
	}

	respondJSON(w, http.StatusCreated, position)
}

// ListPositions handles GET /investments
func (h *InvestmentHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	positions, err := h.service.ListPositions(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}

	if positions == nil {
		positions = []*investment.Position{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"investments": positions})
}
