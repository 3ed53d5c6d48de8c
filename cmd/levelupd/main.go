package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"levelup/adapters/jsonfile"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := BuildApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	cfg := app.Config
	loc, err := cfg.Engine.Location()
	if err != nil {
		loc = time.Local
	}

	slog.Info("starting levelup daemon",
		"environment", cfg.Environment,
		"profile", cfg.Profile,
		"storage_adapter", cfg.Storage.Adapter,
		"penalty_interval", cfg.Engine.PenaltyInterval,
		"trophy_interval", cfg.Engine.TrophyInterval)

	logEvents(ctx, app.Hub, app.Logger)
	if err := logProgress(ctx, app.Tracker, app.Logger, time.Now().In(loc)); err != nil {
		slog.Warn("progress summary unavailable", "error", err)
	}
	app.Scheduler.Start(ctx)

	if fileStore, ok := app.Storage.(*jsonfile.Store); ok && cfg.Storage.File.Watch {
		err := fileStore.Watch(ctx, func() { app.Scheduler.Trigger("external change") })
		if err != nil {
			slog.Warn("file watch disabled", "path", fileStore.Path(), "error", err)
		}
	}

	<-ctx.Done()
	slog.Info("shutting down")
	app.Scheduler.Stop()
	if err := logProgress(context.Background(), app.Tracker, app.Logger, time.Now().In(loc)); err != nil {
		slog.Warn("progress summary unavailable", "error", err)
	}
	slog.Info("daemon stopped")
}
