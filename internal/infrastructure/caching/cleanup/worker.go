// Package cleanup provides the background cache and storage sweeper
package cleanup

import (
	"context"
	"time"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/kv"
)

// Worker periodically purges expired cache entries and storage rows.
type Worker struct {
	targets []interfaces.Purgeable
	storage kv.Purger
	config  *Config
	logger  *logging.ChanneledLogger
	now     func() time.Time
}

// NewWorker creates a cleanup worker. storage may be nil when the backing
// store expires keys itself.
func NewWorker(targets []interfaces.Purgeable, storage kv.Purger, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{targets: targets, storage: storage, config: config, logger: logger, now: time.Now}
}

// Start runs until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	interval := w.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep and returns the number of removed entries.
func (w *Worker) RunOnce(ctx context.Context) int {
	start := w.now()
	total := 0
	for _, target := range w.targets {
		if ctx.Err() != nil {
			return total
		}
		if n := target.PurgeExpired(start); n > 0 {
			w.logger.Cache().Debug("Purged expired entries", "store", target.Name(), "count", n)
			total += n
		}
	}
	if w.storage != nil {
		n, err := w.storage.PurgeExpired(ctx)
		if err != nil {
			w.logger.Database().Warn("Storage purge failed", "error", err)
		} else {
			total += n
		}
	}
	if total > 0 {
		w.logger.Cache().Info("Cache cleanup finished", "cleaned", total, "duration", time.Since(start))
	}
	return total
}
