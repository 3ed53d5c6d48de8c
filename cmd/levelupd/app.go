package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"levelup/adapters/jsonfile"
	mem "levelup/adapters/memory"
	redisAdapter "levelup/adapters/redis"
	sqliteAdapter "levelup/adapters/sqlite"
	"levelup/analytics"
	"levelup/config"
	"levelup/core"
	"levelup/engine"
	"levelup/levelup"
	"levelup/realtime"
)

// App aggregates the assembled daemon components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Hub       *realtime.Hub
	Storage   engine.Storage
	Tracker   *engine.Tracker
	Scheduler *engine.Scheduler
}

// provideConfig reads .env (if present), then LEVELUP_CONFIG or LEVELUP_PROFILE,
// then plain environment variables.
func provideConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path := os.Getenv("LEVELUP_CONFIG"); path != "" {
		return config.LoadFromFile(path)
	}
	if profile := os.Getenv("LEVELUP_PROFILE"); profile != "" {
		return config.LoadProfile(profile)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() (*realtime.Hub, func()) {
	hub := realtime.NewHub()
	return hub, hub.Close
}

func provideStorage(ctx context.Context, cfg *config.Config) (engine.Storage, func(), error) {
	return setupStorage(ctx, cfg)
}

func provideTracker(cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, storage engine.Storage) (*engine.Tracker, func(), error) {
	loc, err := cfg.Engine.Location()
	if err != nil {
		return nil, nil, err
	}
	mode := engine.DispatchSync
	if cfg.Engine.AsyncDispatch {
		mode = engine.DispatchAsync
	}
	tr := levelup.New(
		levelup.WithStorage(storage),
		levelup.WithRealtime(hub),
		levelup.WithDispatchMode(mode),
		levelup.WithHistoryLimit(cfg.Engine.HistoryLimit),
		levelup.WithDedupWindow(cfg.Engine.DedupWindow),
		levelup.WithRecoveryBoost(cfg.Engine.RecoveryBoost),
		levelup.WithLocation(loc),
		levelup.WithLogger(logger),
	)
	return tr, tr.Close, nil
}

func provideScheduler(cfg *config.Config, logger *slog.Logger, tr *engine.Tracker) *engine.Scheduler {
	return engine.NewScheduler(tr, cfg.Engine.PenaltyInterval, cfg.Engine.TrophyInterval, logger.With("component", "scheduler"))
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	var out io.Writer = os.Stderr
	if cfg.Logging.Output == "stdout" {
		out = os.Stdout
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(_ context.Context, cfg *config.Config) (engine.Storage, func(), error) {
	noop := func() {}
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), noop, nil
	case "file":
		s, err := jsonfile.New(cfg.Storage.File.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case "redis":
		s, err := redisAdapter.New(cfg.Storage.Redis.Adapter())
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "sqlite":
		s, err := sqliteAdapter.New(cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}

// logEvents mirrors hub traffic into the log, standing in for a display layer.
func logEvents(ctx context.Context, hub *realtime.Hub, logger *slog.Logger) {
	id, ch := hub.Subscribe(64)
	go func() {
		defer hub.Unsubscribe(id)
		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				logEvent(logger, ev)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func logEvent(logger *slog.Logger, ev core.Event) {
	switch ev.Type {
	case core.EventPenaltyApplied, core.EventTrophyUnlocked, core.EventBoostGranted:
		logger.Info("event", "type", ev.Type, "stat", ev.Stat, "delta", ev.Delta, "label", ev.Label, "trophy", ev.Trophy)
	default:
		logger.Debug("event", "type", ev.Type, "stat", ev.Stat, "delta", ev.Delta, "label", ev.Label)
	}
}

// logProgress writes the dashboard totals and today's XP balance.
func logProgress(ctx context.Context, tr *engine.Tracker, logger *slog.Logger, now time.Time) error {
	st, err := tr.State(ctx)
	if err != nil {
		return err
	}
	totals := analytics.Summarize(st)
	today, err := analytics.Current(st.History, analytics.PeriodDaily, now)
	if err != nil {
		return err
	}
	logger.Info("progress",
		"total_xp", totals.TotalXP,
		"avg_level", totals.AvgLevel,
		"today_gained", today.Gained,
		"today_lost", today.Lost,
		"today_penalties", today.Penalties)
	for _, s := range totals.Stats {
		logger.Debug("stat", "key", s.Key, "level", s.Level, "xp", s.XP, "to_next", s.ToNext)
	}
	return nil
}
