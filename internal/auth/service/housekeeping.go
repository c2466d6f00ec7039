package service

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner is the cleanup operation run by housekeeping.
type Cleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// HousekeepingService periodically deletes expired tokens so the token table
// does not grow without bound.
type HousekeepingService struct {
	Cleaner  Cleaner
	Logger   *slog.Logger
	Interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. If interval is 0 or
// negative, defaults to 1 hour.
func NewHousekeepingService(cleaner Cleaner, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &HousekeepingService{
		Cleaner:  cleaner,
		Logger:   logger,
		Interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop cancels any in-progress cleanup between batches and waits for the
// worker to exit.
func (s *HousekeepingService) Stop() {
	s.cancel()
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	start := time.Now()
	deleted, err := s.Cleaner.CleanupExpiredTokens(s.ctx)
	if err != nil {
		if s.ctx.Err() != nil {
			s.Logger.Info("housekeeping cleanup interrupted", "deleted", deleted)
			return
		}
		s.Logger.Error("housekeeping cleanup failed", "error", err, "deleted", deleted)
		return
	}
	s.Logger.Info("housekeeping cleanup completed", "deleted", deleted, "took", time.Since(start))
}
