package chat

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/edgard/batepapo/internal/database"
	"github.com/edgard/batepapo/internal/sanitize"
)

const testTimeout = 10 * time.Second

type fixture struct {
	store    database.Store
	clock    *clockwork.FakeClock
	presence *Presence
	resolver *Resolver
}

func newDeps(t *testing.T, store database.Store, clock clockwork.Clock) Deps {
	t.Helper()

	return Deps{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:     store,
		Sanitizer: sanitize.NewStrictPolicy(),
		Clock:     clock,
		Rules: Rules{
			Broadcast:     "Todos",
			AdminIdentity: "admin",
			TimeLayout:    "15:04:05",
		},
	}
}

func openStore(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	return newFixtureWithStore(t, openStore(t))
}

func newFixtureWithStore(t *testing.T, store database.Store) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	deps := newDeps(t, store, clock)

	return &fixture{
		store:    store,
		clock:    clock,
		presence: NewPresence(deps, testTimeout),
		resolver: NewResolver(deps),
	}
}

func (f *fixture) join(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		_, err := f.presence.Join(context.Background(), name)
		require.NoError(t, err)
	}
}

func (f *fixture) messages(t *testing.T) []database.Message {
	t.Helper()

	messages, err := f.store.ListMessages(context.Background())
	require.NoError(t, err)
	return messages
}

func (f *fixture) participants(t *testing.T) []database.Participant {
	t.Helper()

	participants, err := f.store.ListParticipants(context.Background())
	require.NoError(t, err)
	return participants
}
