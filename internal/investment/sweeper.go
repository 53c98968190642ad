package investment

import (
	"context"
	"sync"
	"time"

	"github.com/harbourfi/vestcore/pkg/logger"
)

// SweeperConfig holds sweep scheduling configuration
type SweeperConfig struct {
	Interval time.Duration
	Enabled  bool
}

// DefaultSweeperConfig returns the default sweep configuration
func DefaultSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Interval: time.Hour,
		Enabled:  true,
	}
}

// Sweeper periodically evaluates all open positions. Each position is an
// independent unit of work: a failing evaluation is logged and skipped, then
// retried on the next tick. Re-evaluating an already-completed position is a
// no-op, so overlapping or repeated sweeps are safe.
type Sweeper struct {
	config   *SweeperConfig
	repo     Repository
	service  *Service
	logger   *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	running  bool
}

// NewSweeper creates a new accrual sweeper
func NewSweeper(config *SweeperConfig, repo Repository, service *Service, log *logger.Logger) *Sweeper {
	if config == nil {
		config = DefaultSweeperConfig()
	}

	return &Sweeper{
		config:  config,
		repo:    repo,
		service: service,
		logger:  log.WithField("service", "sweeper"),
		stopCh:  make(chan struct{}),
	}
}

// Run starts the background sweep loop
func (s *Sweeper) Run(ctx context.Context) {
	if !s.config.Enabled {
		s.logger.Info("accrual sweeper is disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting accrual sweeper", "interval", s.config.Interval)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Do an initial sweep immediately
	s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("accrual sweeper stopping (context done)")
			s.Stop()
			return
		case <-s.stopCh:
			s.logger.Info("accrual sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// Stop stops the sweeper
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.stop()
}

func (s *Sweeper) stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.running = false
}

// SweepOnce evaluates every open position once at the current time
func (s *Sweeper) SweepOnce(ctx context.Context) {
	positions, err := s.repo.ListOpenPositions(ctx)
	if err != nil {
		s.logger.Error("failed to list open positions", "error", err)
		return
	}

	if len(positions) == 0 {
		return
	}

	now := time.Now().UTC()
	var evaluated, failed int

	for _, position := range positions {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, err := s.service.Evaluate(ctx, position.ID, now); err != nil {
			failed++
			s.logger.Error("position evaluation failed",
				"position_id", position.ID,
				"user_id", position.UserID,
				"amount", position.Amount,
				"error", err)
			continue
		}
		evaluated++
	}

	s.logger.Info("sweep finished",
		"positions", len(positions),
		"evaluated", evaluated,
		"failed", failed)
}
