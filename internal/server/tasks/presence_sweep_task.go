package tasks

import (
	"context"
	"fmt"
	"time"
)

// newPresenceSweepTask creates the task that evicts participants silent for
// longer than the presence timeout.
func newPresenceSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "presence_sweep")

	return func(ctx context.Context) error {
		startTime := time.Now()

		report, err := deps.Presence.Sweep(ctx)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Presence sweep failed", "error", err, "duration", duration)
			return fmt.Errorf("presence sweep failed: %w", err)
		}

		if report.Overlapped {
			return nil
		}

		// Per-participant failures were logged by the sweep; they never
		// fail the task.
		if len(report.Failed) > 0 {
			log.WarnContext(ctx, "Presence sweep finished with failures",
				"expired", len(report.Expired),
				"failed", len(report.Failed),
				"duration", duration)
			return nil
		}

		if len(report.Expired) > 0 {
			log.InfoContext(ctx, "Presence sweep expired participants",
				"expired", report.Expired,
				"cutoff", report.Cutoff,
				"duration", duration)
		} else {
			log.DebugContext(ctx, "Presence sweep found nobody to expire", "duration", duration)
		}
		return nil
	}
}
