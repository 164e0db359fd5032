package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/safex/internal/pkg/clock"
	"github.com/shandysiswandi/safex/internal/pkg/goroutine"
	"go.uber.org/atomic"
)

// DefaultSweepInterval is used when modules.mfa.sweep_interval_minutes is unset.
const DefaultSweepInterval = time.Hour

type sweepUC interface {
	SweepExpired(ctx context.Context) int
}

// SweepStats describes the sweeper's most recent run.
type SweepStats struct {
	LastRunAt   time.Time
	LastRemoved int64
	Runs        int64
}

// Sweeper periodically removes reclaimable challenges. It is owned by the
// application lifecycle: started at boot, stopped when its context ends.
type Sweeper struct {
	uc       sweepUC
	clock    clock.Clocker
	interval time.Duration

	lastRunAt   *atomic.Time
	lastRemoved *atomic.Int64
	runs        *atomic.Int64
}

func NewSweeper(uc sweepUC, clk clock.Clocker, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		uc:          uc,
		clock:       clk,
		interval:    interval,
		lastRunAt:   atomic.NewTime(time.Time{}),
		lastRemoved: atomic.NewInt64(0),
		runs:        atomic.NewInt64(0),
	}
}

// Start runs the sweeper through routine until ctx is canceled.
func (s *Sweeper) Start(ctx context.Context, routine *goroutine.Manager) {
	if !routine.Go(ctx, s.Run) {
		slog.ErrorContext(ctx, "failed to start challenge sweeper")
		return
	}
	slog.InfoContext(ctx, "challenge sweeper started", "interval", s.interval.String())
}

// Run blocks, sweeping every interval, until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(context.WithoutCancel(ctx), "challenge sweeper stopped")
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep and records its stats.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	removed := s.uc.SweepExpired(ctx)

	s.lastRemoved.Store(int64(removed))
	s.lastRunAt.Store(s.clock.Now())
	s.runs.Inc()

	return removed
}

func (s *Sweeper) Stats() SweepStats {
	return SweepStats{
		LastRunAt:   s.lastRunAt.Load(),
		LastRemoved: s.lastRemoved.Load(),
		Runs:        s.runs.Load(),
	}
}
