package handlers

import (
	"net/http"
)

// NewStatusHandler creates a handler for POST /status, the heartbeat that
// keeps a participant online.
func NewStatusHandler(deps HandlerDeps) http.HandlerFunc {
	log := deps.Logger.With("handler", "status")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Presence.Heartbeat(r.Context(), userFrom(r.Context())); err != nil {
			writeError(w, r, log, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
