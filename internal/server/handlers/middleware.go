package handlers

import (
	"context"
	"net/http"

	"github.com/edgard/batepapo/internal/errs"
)

// UserHeader names the caller on every request that acts as a participant.
const UserHeader = "User"

type userKey struct{}

// userFrom returns the caller stored by RequireUser.
func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey{}).(string)
	return user
}

// RequireUser rejects requests without a User header. The error it writes
// is a ValidationError unless missing builds a different one.
func RequireUser(deps HandlerDeps, missing func() error) func(http.Handler) http.Handler {
	if missing == nil {
		missing = func() error {
			return errs.NewValidationError("invalid request", "user header is required")
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := r.Header.Get(UserHeader)
			if user == "" {
				deps.Logger.With("middleware", "RequireUser").DebugContext(r.Context(), "Request without user header", "path", r.URL.Path)
				writeError(w, r, deps.Logger, missing())
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
		})
	}
}
