package levelup

import (
	"log/slog"
	"time"

	"levelup/adapters/memory"
	"levelup/core"
	"levelup/engine"
	"levelup/realtime"
)

// Option configures the tracker builder.
type Option func(*config)

type config struct {
	storage engine.Storage
	mode    engine.DispatchMode
	hub     *realtime.Hub
	opts    engine.Options
}

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all tracker events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithStats replaces the default stat set for fresh and reset documents.
func WithStats(stats []core.Stat) Option { return func(c *config) { c.opts.Stats = stats } }

// WithQuickActions replaces the preset action catalog.
func WithQuickActions(actions []core.QuickAction) Option {
	return func(c *config) { c.opts.QuickActions = actions }
}

// WithTrophyRules replaces the trophy catalog.
func WithTrophyRules(rules ...core.TrophyRule) Option {
	return func(c *config) { c.opts.Rules = rules }
}

// WithRecoveryBoost changes the boost window of the first-level trophy.
func WithRecoveryBoost(d time.Duration) Option {
	return func(c *config) {
		r := core.DefaultTrophyRules()[0].(core.LevelCrossingRule)
		r.Boost = d
		c.opts.Rules = []core.TrophyRule{r}
	}
}

// WithHistoryLimit bounds the history log.
func WithHistoryLimit(n int) Option { return func(c *config) { c.opts.HistoryLimit = n } }

// WithDedupWindow sets how close a penalty must be to a deadline to count as
// the same occurrence.
func WithDedupWindow(d time.Duration) Option { return func(c *config) { c.opts.DedupWindow = d } }

// WithLocation sets the zone deadlines and day keys are computed in.
func WithLocation(loc *time.Location) Option { return func(c *config) { c.opts.Location = loc } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(c *config) { c.opts.Clock = now } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.opts.Logger = l } }

// New builds a configured Tracker. If not provided, defaults are used:
//   - storage: in-memory
//   - dispatch: async
//   - stats, trophies and limits: the core defaults
func New(opts ...Option) *engine.Tracker {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.storage == nil {
		cfg.storage = memory.New()
	}
	bus := engine.NewEventBus(cfg.mode)
	if cfg.hub != nil {
		cfg.hub.Attach(bus)
	}
	return engine.NewTracker(cfg.storage, bus, cfg.opts)
}
