package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper expires stale pending tickets.
type Sweeper interface {
	SweepExpired(ctx context.Context) ([]string, error)
}

// TimeoutSweeper runs Sweeper periodically.
type TimeoutSweeper struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger
}

// NewTimeoutSweeper builds a sweeper ticking every interval.
func NewTimeoutSweeper(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *TimeoutSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeoutSweeper{sweeper: sweeper, interval: interval, logger: logger.Named("timeout-sweeper")}
}

// Start sweeps on a ticker until ctx is cancelled.
func (s *TimeoutSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.logger.Info("timeout sweeper started", zap.Duration("interval", s.interval))
	s.Run(ctx, ticker.C)
}

// Run sweeps once per value received on trigger until ctx is cancelled or
// trigger is closed.
func (s *TimeoutSweeper) Run(ctx context.Context, trigger <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-trigger:
			if !ok {
				return
			}
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep, logging failures.
func (s *TimeoutSweeper) SweepOnce(ctx context.Context) []string {
	ids, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		s.logger.Error("timeout sweep failed", zap.Error(err))
		return nil
	}
	if len(ids) > 0 {
		s.logger.Info("timed out pending tickets", zap.Int("count", len(ids)), zap.Strings("ticket_ids", ids))
	}
	return ids
}
