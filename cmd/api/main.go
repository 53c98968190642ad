package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harbourfi/vestcore/internal/funding"
	"github.com/harbourfi/vestcore/internal/infra/postgres"
	infraredis "github.com/harbourfi/vestcore/internal/infra/redis"
	"github.com/harbourfi/vestcore/internal/investment"
	"github.com/harbourfi/vestcore/internal/ledger"
	"github.com/harbourfi/vestcore/internal/notify"
	"github.com/harbourfi/vestcore/internal/transport/httpapi"
	"github.com/harbourfi/vestcore/internal/transport/httpapi/handler"
	"github.com/harbourfi/vestcore/internal/transport/httpapi/middleware"
	"github.com/harbourfi/vestcore/pkg/config"
	"github.com/harbourfi/vestcore/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefault(cfg.Env)
	log.Info("Starting Vestcore API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	db, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("Database connection established")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Redis connection established")

	ledgerRepo := postgres.NewLedgerRepository(db.Pool)
	investmentRepo := postgres.NewInvestmentRepository(db.Pool)
	fundingRepo := postgres.NewFundingRepository(db.Pool)

	planCache := infraredis.NewPlanCache(redisClient, investmentRepo, log)

	notifier := notify.NewLogNotifier(log)
	ledgerSvc := ledger.NewService(ledgerRepo, investmentRepo)
	investmentSvc := investment.NewService(investmentRepo, planCache, ledgerSvc, notifier, log)
	fundingSvc := funding.NewService(fundingRepo, ledgerSvc, notifier, log)

	sweeper := investment.NewSweeper(
		&investment.SweeperConfig{Interval: cfg.SweepInterval, Enabled: true},
		investmentRepo,
		investmentSvc,
		log,
	)
	go sweeper.Run(ctx)
	log.Info("Accrual sweeper started", "interval", cfg.SweepInterval)

	jwtVerifier := middleware.NewJWTVerifier(cfg.JWTSecret)
	jwtMiddleware := middleware.JWTMiddleware(jwtVerifier)

	r := httpapi.NewRouter(httpapi.Config{
		Logger:            log,
		AllowedOrigins:    cfg.AllowedOrigins,
		WalletHandler:     handler.NewWalletHandler(ledgerSvc),
		InvestmentHandler: handler.NewInvestmentHandler(investmentSvc),
		FundingHandler:    handler.NewFundingHandler(fundingSvc),
		AdminHandler:      handler.NewAdminHandler(fundingSvc, ledgerSvc),
		HealthHandler:     handler.NewHealthHandler(db),
		JWTMiddleware:     jwtMiddleware,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}
