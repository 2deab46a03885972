package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

// Abandoner is satisfied by *Service.
type Abandoner interface {
	Abandon(ctx context.Context, id, reason string) (bool, error)
}

// PendingRetrier is satisfied by *booking.Finalizer.
type PendingRetrier interface {
	RetryPending(ctx context.Context, limit int) (int, error)
}

var _ Abandoner = (*Service)(nil)

// SweeperConfig controls how idle sessions are found.
type SweeperConfig struct {
	IdleTimeout time.Duration
	Interval    time.Duration
	BatchSize   int
}

// SweepResult counts what one pass did.
type SweepResult struct {
	Idle    int
	Dropped int
	Failed  int
	Retried int
}

// Sweeper closes sessions nobody is talking to any more and re-sends
// bookings that could not reach the booking service.
type Sweeper struct {
	store     session.Store
	abandoner Abandoner
	retrier   PendingRetrier
	cfg       SweeperConfig
	now       func() time.Time
	logger    *logging.Logger
}

// NewSweeper builds a Sweeper. retrier may be nil.
func NewSweeper(store session.Store, abandoner Abandoner, retrier PendingRetrier, cfg SweeperConfig, logger *logging.Logger) *Sweeper {
	if store == nil {
		panic("conversation: session store cannot be nil")
	}
	if abandoner == nil {
		panic("conversation: abandoner cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{
		store:     store,
		abandoner: abandoner,
		retrier:   retrier,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// SweepOnce runs a single pass. Errors for individual sessions are counted
// and logged; only a failure to list sessions is returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	cutoff := s.now().Add(-s.cfg.IdleTimeout)
	ids, err := s.store.ListIdle(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return res, err
	}
	res.Idle = len(ids)

	for _, id := range ids {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		dropped, err := s.abandoner.Abandon(ctx, id, "idle_timeout")
		switch {
		case errors.Is(err, session.ErrLocked):
			// A turn is running right now, so it is not idle after all.
		case err != nil:
			res.Failed++
			s.logger.Warn("sweep could not close session", "error", err, "session_id", id)
		case dropped:
			res.Dropped++
		}
	}

	if s.retrier != nil {
		retried, err := s.retrier.RetryPending(ctx, s.cfg.BatchSize)
		if err != nil {
			s.logger.Warn("pending booking retry failed", "error", err)
		}
		res.Retried = retried
	}

	if res.Idle > 0 || res.Retried > 0 {
		s.logger.Info("sweep finished", "idle", res.Idle, "dropped", res.Dropped, "failed", res.Failed, "retried", res.Retried)
	}
	return res, nil
}

// Run sweeps every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
