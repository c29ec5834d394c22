package background

import (
	"context"
	"log/slog"
	"time"
)

// TokenCleaner clears expired verification and reset token digests
type TokenCleaner interface {
	ClearExpiredTokens(ctx context.Context) (int64, error)
}

// Pruner drops stale rate limiter buckets
type Pruner interface {
	Prune() int
}

// CleanupManager periodically clears expired token digests and prunes the
// in-memory rate limiter. Expired tokens are already unusable (consumption
// checks expiry); this just keeps the rows tidy.
type CleanupManager struct {
	cleaner  TokenCleaner
	pruner   Pruner
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager. pruner may be nil when the
// rate limiter is backed by Redis, which expires its own keys.
func NewCleanupManager(
	cleaner TokenCleaner,
	pruner Pruner,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		cleaner:  cleaner,
		pruner:   pruner,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsCleared, err := cm.cleaner.ClearExpiredTokens(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to clear expired tokens", slog.Any("error", err))
	} else if rowsCleared > 0 {
		cm.logger.Info("expired token cleanup completed", slog.Int64("rows_cleared", rowsCleared))
	}

	if cm.pruner != nil {
		if pruned := cm.pruner.Prune(); pruned > 0 {
			cm.logger.Info("rate limiter pruned", slog.Int("buckets_removed", pruned))
		}
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
