// Package main contains the entrypoint for the chat server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/edgard/batepapo/internal/chat"
	"github.com/edgard/batepapo/internal/config"
	"github.com/edgard/batepapo/internal/database"
	"github.com/edgard/batepapo/internal/logger"
	"github.com/edgard/batepapo/internal/sanitize"
	"github.com/edgard/batepapo/internal/server"
	"github.com/edgard/batepapo/internal/server/handlers"
	"github.com/edgard/batepapo/internal/server/tasks"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires config, logger, database, chat components, scheduler and HTTP
// server, blocks until shutdown and returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON())
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	clock := clockwork.NewRealClock()
	chatDeps := chat.Deps{
		Logger:    log,
		Store:     store,
		Sanitizer: sanitize.NewStrictPolicy(),
		Clock:     clock,
		Rules: chat.Rules{
			Broadcast:     cfg.Chat.Broadcast,
			AdminIdentity: cfg.Chat.AdminIdentity,
			TimeLayout:    cfg.Chat.TimeLayout,
		},
	}
	presence := chat.NewPresence(chatDeps, cfg.Chat.Timeout)
	resolver := chat.NewResolver(chatDeps)

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Presence: presence,
	}
	sched, err := server.NewScheduler(log, clock, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	router := handlers.NewRouter(handlers.HandlerDeps{
		Logger:   log,
		Store:    store,
		Presence: presence,
		Resolver: resolver,
	})
	app := server.NewServer(log, cfg.Server, router, sched)

	log.Info("Starting chat server...", "addr", cfg.Server.Addr, "timeout", cfg.Chat.Timeout)
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Chat server stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Chat server stopped gracefully.")
	return 0
}
