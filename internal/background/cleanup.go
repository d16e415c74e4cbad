package background

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredTokenCleaner removes revoked-token rows whose expiry has passed.
type ExpiredTokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// VerificationTokenCleaner removes long-expired email verification tokens.
type VerificationTokenCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// WindowSweeper prunes stale rate-limit windows from an in-memory store.
type WindowSweeper interface {
	Sweep(now time.Time) int
}

// CleanupManager periodically removes expired revoked tokens and, when the
// rate limiter runs on the in-memory store, sweeps elapsed windows.
type CleanupManager struct {
	cleaner       ExpiredTokenCleaner
	verifications VerificationTokenCleaner
	sweeper       WindowSweeper
	logger        *slog.Logger
	interval      time.Duration
	stopCh        chan struct{}
}

// NewCleanupManager creates a new cleanup manager. sweeper may be nil when
// rate limiting is backed by redis.
func NewCleanupManager(
	cleaner ExpiredTokenCleaner,
	verifications VerificationTokenCleaner,
	sweeper WindowSweeper,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		cleaner:       cleaner,
		verifications: verifications,
		sweeper:       sweeper,
		logger:        logger,
		interval:      interval,
		stopCh:        make(chan struct{}),
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

	rowsDeleted, err := cm.cleaner.CleanupExpiredTokens(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired tokens", slog.Any("error", err))
	} else if rowsDeleted > 0 {
		cm.logger.Info("expired token cleanup completed", slog.Int64("rows_deleted", rowsDeleted))
	}

	if cm.verifications != nil {
		removed, err := cm.verifications.CleanupExpired(cleanupCtx)
		if err != nil {
			cm.logger.Error("failed to cleanup verification tokens", slog.Any("error", err))
		} else if removed > 0 {
			cm.logger.Info("verification token cleanup completed", slog.Int64("rows_deleted", removed))
		}
	}

	if cm.sweeper != nil {
		if swept := cm.sweeper.Sweep(time.Now()); swept > 0 {
			cm.logger.Info("rate limit window sweep completed", slog.Int("windows_removed", swept))
		}
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
