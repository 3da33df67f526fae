package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const defaultInterval = 24 * time.Hour

type overdueChecker interface {
	CheckOverdue(ctx context.Context) (int, error)
}

// Overdue runs the overdue scan once on start and then every interval.
type Overdue struct {
	checker  overdueChecker
	interval time.Duration
	log      *zap.Logger
}

// NewOverdue falls back to a daily scan when interval is not positive.
func NewOverdue(checker overdueChecker, interval time.Duration, log *zap.Logger) *Overdue {
	if interval <= 0 {
		log.Warn("overdue interval is not positive, using default",
			zap.Duration("interval", interval), zap.Duration("default", defaultInterval))
		interval = defaultInterval
	}
	return &Overdue{
		checker:  checker,
		interval: interval,
		log:      log.Named("overdue"),
	}
}

// Run blocks until ctx is done. A failed scan is logged and retried on the
// next tick.
func (w *Overdue) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.checker.CheckOverdue(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("CheckOverdue", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
