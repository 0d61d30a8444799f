// Package tasks implements the background tasks of the chat server and
// their registry.
package tasks

import (
	"log/slog"

	"github.com/edgard/batepapo/internal/chat"
	"github.com/edgard/batepapo/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Presence *chat.Presence
}
