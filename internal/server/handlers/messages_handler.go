package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/edgard/batepapo/internal/chat"
	"github.com/edgard/batepapo/internal/errs"
)

// messageID reads the {id} route variable.
func messageID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, errs.NewNotFoundError("message not found", err)
	}
	return id, nil
}

// NewPostMessageHandler creates a handler for POST /messages.
func NewPostMessageHandler(deps HandlerDeps) http.HandlerFunc {
	log := deps.Logger.With("handler", "post_message")

	return func(w http.ResponseWriter, r *http.Request) {
		var candidate chat.Candidate
		if err := decodeJSON(w, r, &candidate); err != nil {
			writeError(w, r, log, err)
			return
		}

		message, err := deps.Resolver.Post(r.Context(), userFrom(r.Context()), candidate)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		log.DebugContext(r.Context(), "Message posted", "message_id", message.ID, "type", message.Type)
		writeJSON(w, http.StatusCreated, toMessage(*message))
	}
}

// NewListMessagesHandler creates a handler for GET /messages. The optional
// limit query parameter keeps only the most recent visible messages.
func NewListMessagesHandler(deps HandlerDeps) http.HandlerFunc {
	log := deps.Logger.With("handler", "list_messages")

	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := chat.ParseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		messages, err := deps.Resolver.Messages(r.Context(), userFrom(r.Context()), limit)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toMessages(messages))
	}
}

// NewEditMessageHandler creates a handler for PUT /messages/{id}.
func NewEditMessageHandler(deps HandlerDeps) http.HandlerFunc {
	log := deps.Logger.With("handler", "edit_message")

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := messageID(r)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		var candidate chat.Candidate
		if err := decodeJSON(w, r, &candidate); err != nil {
			writeError(w, r, log, err)
			return
		}

		message, err := deps.Resolver.Edit(r.Context(), id, userFrom(r.Context()), candidate)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toMessage(*message))
	}
}

// NewDeleteMessageHandler creates a handler for DELETE /messages/{id}.
func NewDeleteMessageHandler(deps HandlerDeps) http.HandlerFunc {
	log := deps.Logger.With("handler", "delete_message")

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := messageID(r)
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		if err := deps.Resolver.Delete(r.Context(), id, userFrom(r.Context())); err != nil {
			writeError(w, r, log, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
