package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/edgard/batepapo/internal/errs"
	"github.com/edgard/batepapo/internal/logger"
)

// NewRouter registers every route of the chat API.
func NewRouter(deps HandlerDeps) *mux.Router {
	router := mux.NewRouter()
	router.Use(logger.Middleware(deps.Logger))

	participant := RequireUser(deps, nil)
	knownParticipant := RequireUser(deps, func() error {
		return errs.NewNotFoundError("participant not found", nil)
	})

	router.Handle("/participants", NewJoinHandler(deps)).Methods(http.MethodPost)
	router.Handle("/participants", NewOnlineHandler(deps)).Methods(http.MethodGet)

	router.Handle("/messages", participant(NewPostMessageHandler(deps))).Methods(http.MethodPost)
	router.Handle("/messages", participant(NewListMessagesHandler(deps))).Methods(http.MethodGet)
	router.Handle("/messages/{id:[0-9]+}", participant(NewEditMessageHandler(deps))).Methods(http.MethodPut)
	router.Handle("/messages/{id:[0-9]+}", participant(NewDeleteMessageHandler(deps))).Methods(http.MethodDelete)

	router.Handle("/status", knownParticipant(NewStatusHandler(deps))).Methods(http.MethodPost)

	router.Handle("/health", NewHealthHandler(deps)).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	return router
}
