package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask compacts the chat database. The room size is logged
// first so growth of the message log shows up next to each VACUUM.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		stats, err := deps.Store.Stats(ctx)
		if err != nil {
			// Counting is informational; compaction still runs.
			log.WarnContext(ctx, "Failed to count room rows before VACUUM", "error", err)
		} else {
			log.InfoContext(ctx, "Compacting chat database",
				"participants", stats.Participants,
				"messages", stats.Messages)
		}

		startTime := time.Now()
		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			return fmt.Errorf("vacuum of chat database failed after %s: %w", time.Since(startTime), err)
		}

		log.InfoContext(ctx, "Chat database compacted", "duration", time.Since(startTime))
		return nil
	}
}
