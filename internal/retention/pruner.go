// Package retention periodically removes expired verification audit records.
package retention

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultInterval = time.Hour

// Deleter removes records created before a cutoff
type Deleter interface {
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Pruner enforces the retention window of the audit trail
type Pruner struct {
	repo     Deleter
	logger   *slog.Logger
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

// NewPruner creates a new retention worker. A zero interval defaults to one hour.
func NewPruner(repo Deleter, logger *slog.Logger, maxAge, interval time.Duration) *Pruner {
	if interval == 0 {
		interval = defaultInterval
	}

	return &Pruner{
		repo:     repo,
		logger:   logger.With("component", "retention"),
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval, until ctx is done or Stop is called
func (p *Pruner) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("retention pruner started", "max_age", p.maxAge, "interval", p.interval)
	p.Prune(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("retention pruner stopped")
			return
		case <-p.done:
			p.logger.Info("retention pruner stopped")
			return
		case <-ticker.C:
			p.Prune(ctx)
		}
	}
}

// Stop gracefully shuts down the pruner
func (p *Pruner) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// Prune deletes every record older than maxAge and returns how many were removed
func (p *Pruner) Prune(ctx context.Context) int64 {
	cutoff := p.now().Add(-p.maxAge)

	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to delete expired verifications", "error", err)
		return 0
	}

	if deleted > 0 {
		p.logger.Info("deleted expired verifications", "count", deleted, "cutoff", cutoff)
	}
	return deleted
}
