package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/harbourfi/vestcore/internal/transport/httpapi/handler"
	"github.com/harbourfi/vestcore/internal/transport/httpapi/middleware"
	"github.com/harbourfi/vestcore/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger            *logger.Logger
	AllowedOrigins    []string
	WalletHandler     *handler.WalletHandler
	InvestmentHandler *handler.InvestmentHandler
	FundingHandler    *handler.FundingHandler
	AdminHandler      *handler.AdminHandler
	HealthHandler     *handler.HealthHandler
	JWTMiddleware     func(http.Handler) http.Handler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit())

	// Health check endpoints (no authentication required)
	r.Get("/health", handler.GetHealth)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cfg.JWTMiddleware)

			// Wallet routes
			r.Get("/wallet", cfg.WalletHandler.GetWallet)
			r.Get("/transactions", cfg.WalletHandler.ListTransactions)

			// Plan and position routes
			r.Get("/plans", cfg.InvestmentHandler.ListPlans)
			r.Get("/plans/{id}", cfg.InvestmentHandler.GetPlan)
			r.Post("/investments", cfg.InvestmentHandler.OpenPosition)
			r.Get("/investments", cfg.InvestmentHandler.ListPositions)

			// Funding request routes
			r.Post("/deposits", cfg.FundingHandler.SubmitDeposit)
			r.Post("/withdrawals", cfg.FundingHandler.SubmitWithdrawal)
			r.Get("/funding-requests", cfg.FundingHandler.ListRequests)

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.AdminOnly)

				r.Get("/admin/funding-requests", cfg.AdminHandler.ListPending)
				r.Post("/admin/funding-requests/{id}/approve", cfg.AdminHandler.Approve)
				r.Post("/admin/funding-requests/{id}/reject", cfg.AdminHandler.Reject)
				r.Post("/admin/adjustments/credit", cfg.AdminHandler.ManualCredit)
				r.Post("/admin/adjustments/debit", cfg.AdminHandler.ManualDebit)
			})
		})
	})

	return r
}
