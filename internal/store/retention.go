package store

import (
	"context"
	"log/slog"
	"time"
)

const retentionSweepInterval = 6 * time.Hour

// StartRetentionWorker runs a background goroutine that periodically deletes
// call records older than the configured retention. In-flight call sessions
// are never touched; this only prunes the persisted history.
func StartRetentionWorker(ctx context.Context, calls CallStore, retention time.Duration) {
	ticker := time.NewTicker(retentionSweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sweep(ctx, calls, retention)
			case <-ctx.Done():
				slog.Info("Retention worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, calls CallStore, retention time.Duration) {
	deleted, err := calls.DeleteBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		slog.Error("Retention sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Retention sweep pruned call records", "deleted", deleted)
	}
}
