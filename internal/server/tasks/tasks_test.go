package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/edgard/batepapo/internal/chat"
	"github.com/edgard/batepapo/internal/config"
	"github.com/edgard/batepapo/internal/database"
	"github.com/edgard/batepapo/internal/sanitize"
)

func newTestDeps(t *testing.T) (TaskDeps, *clockwork.FakeClock) {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, log)
	clock := clockwork.NewFakeClock()

	presence := chat.NewPresence(chat.Deps{
		Logger:    log,
		Store:     store,
		Sanitizer: sanitize.NewStrictPolicy(),
		Clock:     clock,
		Rules:     chat.Rules{Broadcast: "Todos", AdminIdentity: "admin", TimeLayout: "15:04:05"},
	}, 10*time.Second)

	return TaskDeps{Logger: log, Store: store, Presence: presence}, clock
}

func TestRegisterAllTasks(t *testing.T) {
	deps, _ := newTestDeps(t)

	tasks := RegisterAllTasks(deps)
	require.Len(t, tasks, 2)
	require.Contains(t, tasks, config.TaskPresenceSweep)
	require.Contains(t, tasks, config.TaskSQLMaintenance)
}

func TestPresenceSweepTask(t *testing.T) {
	ctx := context.Background()
	deps, clock := newTestDeps(t)

	_, err := deps.Presence.Join(ctx, "Alice")
	require.NoError(t, err)

	sweep := RegisterAllTasks(deps)[config.TaskPresenceSweep]
	require.NoError(t, sweep(ctx))

	online, err := deps.Presence.Online(ctx)
	require.NoError(t, err)
	require.Len(t, online, 1)

	clock.Advance(11 * time.Second)
	require.NoError(t, sweep(ctx))

	online, err = deps.Presence.Online(ctx)
	require.NoError(t, err)
	require.Empty(t, online)

	messages, err := deps.Store.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, chat.LeftText, messages[1].Text)
}

func TestSQLMaintenanceTask(t *testing.T) {
	deps, _ := newTestDeps(t)
	maintenance := RegisterAllTasks(deps)[config.TaskSQLMaintenance]

	require.NoError(t, maintenance(context.Background()))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, maintenance(cancelled), context.Canceled)
}

type uncountableStore struct {
	database.Store
}

func (uncountableStore) Stats(context.Context) (database.RoomStats, error) {
	return database.RoomStats{}, errors.New("no such table: messages")
}

func TestSQLMaintenanceLogsRoomSize(t *testing.T) {
	ctx := context.Background()
	deps, _ := newTestDeps(t)

	var buf bytes.Buffer
	deps.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	_, err := deps.Presence.Join(ctx, "Alice")
	require.NoError(t, err)

	require.NoError(t, newSQLMaintenanceTask(deps)(ctx))
	require.Contains(t, buf.String(), "participants=1")
	require.Contains(t, buf.String(), "messages=1")

	buf.Reset()
	deps.Store = uncountableStore{Store: deps.Store}
	require.NoError(t, newSQLMaintenanceTask(deps)(ctx), "vacuum still runs when counting fails")
	require.Contains(t, buf.String(), "Failed to count room rows")
	require.Contains(t, buf.String(), "Chat database compacted")
}
