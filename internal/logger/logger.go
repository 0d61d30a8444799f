// Package logger provides structured logging for the chat server.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"log/slog"
	"net/http"
	"os"
	"time"
	"unicode/utf8"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

// RequestIDHeader is echoed on every response so clients can quote it.
const RequestIDHeader = "X-Request-Id"

// NewLogger creates a new slog Logger with the specified level and format.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// Middleware logs every HTTP request with a generated request id, the
// caller identity from the User header and the response status.
func Middleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			logEntry := log.With(
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"start_time", startTime.Format(time.RFC3339),
			)
			if user := r.Header.Get("User"); user != "" {
				logEntry = logEntry.With("user_preview", truncateString(user, 32))
			}

			logEntry.DebugContext(r.Context(), "Processing request")

			m := httpsnoop.CaptureMetrics(next, w, r)

			logEntry.InfoContext(r.Context(), "Finished processing request",
				"status", m.Code,
				"bytes", m.Written,
				"duration", m.Duration)
		})
	}
}

// truncateString shortens s to at most maxLen runes, never splitting one.
func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}
