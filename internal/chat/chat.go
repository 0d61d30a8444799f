// Package chat implements the room rules: who is online (Presence) and which
// messages a viewer may read or write (Resolver).
package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/batepapo/internal/database"
	"github.com/edgard/batepapo/internal/errs"
)

// Status texts recorded on behalf of participants.
const (
	EnteredText = "entered the room"
	LeftText    = "left the room"
)

// Sanitizer strips markup from user supplied strings.
type Sanitizer interface {
	Strip(text string) string
}

// Rules are the room sentinels and the display layout of message times.
type Rules struct {
	Broadcast     string
	AdminIdentity string
	TimeLayout    string
}

// Deps contains everything Presence and Resolver need.
type Deps struct {
	Logger    *slog.Logger
	Store     database.Store
	Sanitizer Sanitizer
	Clock     clockwork.Clock
	Rules     Rules
}

// stamp returns the current time as epoch milliseconds and display string.
func (d Deps) stamp() (int64, string) {
	now := d.Clock.Now()
	return now.UnixMilli(), now.Format(d.Rules.TimeLayout)
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// statusMessage builds a broadcast join/leave notice for name.
func (d Deps) statusMessage(name, text string, createdAt int64, display string) *database.Message {
	return &database.Message{
		From:      name,
		To:        d.Rules.Broadcast,
		Text:      text,
		Type:      database.TypeStatus,
		Time:      display,
		CreatedAt: createdAt,
	}
}

// storeFailure hides persistence details behind a StoreError. Context
// cancellation is passed through untouched.
func storeFailure(message string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errs.NewStoreError(message, err)
}
