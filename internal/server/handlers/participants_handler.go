package handlers

import (
	"net/http"
)

type joinRequest struct {
	Name string `json:"name"`
}

// NewJoinHandler creates a handler for POST /participants.
func NewJoinHandler(deps HandlerDeps) http.HandlerFunc {
	log := deps.Logger.With("handler", "join")

	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, log, err)
			return
		}

		participant, err := deps.Presence.Join(r.Context(), req.Name)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		log.InfoContext(r.Context(), "Participant joined", "name", participant.Name)
		writeJSON(w, http.StatusCreated, toParticipant(*participant))
	}
}

// NewOnlineHandler creates a handler for GET /participants.
func NewOnlineHandler(deps HandlerDeps) http.HandlerFunc {
	log := deps.Logger.With("handler", "online")

	return func(w http.ResponseWriter, r *http.Request) {
		participants, err := deps.Presence.Online(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toParticipants(participants))
	}
}
