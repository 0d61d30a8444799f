// Package handlers contains the HTTP handlers of the chat API, along with
// their routing and middleware.
package handlers

import (
	"log/slog"

	"github.com/edgard/batepapo/internal/chat"
	"github.com/edgard/batepapo/internal/database"
)

// HandlerDeps provides dependencies for HTTP handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Presence *chat.Presence
	Resolver *chat.Resolver
}
