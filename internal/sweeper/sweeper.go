// Package sweeper runs the background cart lifecycle pass: active carts
// with items go abandoned after a period of inactivity, and carts past
// their TTL expire.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CartSweep is the storage surface the sweeper drives. Both operations are
// idempotent bulk transitions; re-running a pass transitions nothing new.
type CartSweep interface {
	SweepAbandoned(ctx context.Context, cutoff time.Time) (int64, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// Config holds the sweeper tunables.
type Config struct {
	// Interval between passes.
	Interval time.Duration
	// AbandonAfter is how long an active cart with items may sit without
	// activity before it is marked abandoned.
	AbandonAfter time.Duration
}

// Sweeper periodically transitions stale carts.
type Sweeper struct {
	carts CartSweep
	lg    *zap.Logger
	cfg   Config
	now   func() time.Time
}

// New creates a Sweeper.
func New(carts CartSweep, lg *zap.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.AbandonAfter <= 0 {
		cfg.AbandonAfter = 24 * time.Hour
	}
	return &Sweeper{
		carts: carts,
		lg:    lg,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Run executes a pass every interval until ctx is cancelled. The first pass
// runs immediately so a restart does not delay overdue transitions.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass. Errors are logged, not returned: a failed pass is
// retried on the next tick.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.now()

	abandoned, err := s.carts.SweepAbandoned(ctx, now.Add(-s.cfg.AbandonAfter))
	if err != nil {
		s.lg.Error("sweep abandoned carts", zap.Error(err))
	}

	expired, err := s.carts.SweepExpired(ctx, now)
	if err != nil {
		s.lg.Error("sweep expired carts", zap.Error(err))
	}

	if abandoned > 0 || expired > 0 {
		s.lg.Info("cart sweep",
			zap.Int64("abandoned", abandoned),
			zap.Int64("expired", expired),
		)
	}
}
