package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"levelup/core"
)

// Options tunes a Tracker. Zero values fall back to defaults.
type Options struct {
	// Stats is the stat set used for fresh and reset documents.
	Stats        []core.Stat
	Rules        []core.TrophyRule
	QuickActions []core.QuickAction
	HistoryLimit int
	DedupWindow  time.Duration
	Location     *time.Location
	Clock        func() time.Time
	Logger       *slog.Logger
}

// Tracker is the single in-process owner of the tracker document. Every
// operation holds the lock, reloads the document from storage, mutates it and
// writes it back whole, so writes from other processes are never clobbered by
// a stale copy. Events are published after the lock is released.
type Tracker struct {
	mu      sync.Mutex
	storage Storage
	bus     *EventBus
	opts    Options
	log     *slog.Logger
}

func NewTracker(storage Storage, bus *EventBus, opts Options) *Tracker {
	if storage == nil || bus == nil {
		panic("NewTracker requires non-nil storage and bus")
	}
	if opts.Stats == nil {
		opts.Stats = core.DefaultStats()
	}
	if opts.Rules == nil {
		opts.Rules = core.DefaultTrophyRules()
	}
	if opts.QuickActions == nil {
		opts.QuickActions = core.DefaultQuickActions
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = core.DefaultHistoryLimit
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = DefaultDedupWindow
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Tracker{storage: storage, bus: bus, opts: opts, log: opts.Logger}
}

// Subscribe convenience method.
func (t *Tracker) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return t.bus.Subscribe(typ, handler)
}

func (t *Tracker) Close() { t.bus.Close() }

func (t *Tracker) now() time.Time { return t.opts.Clock().In(t.opts.Location) }

func (t *Tracker) penaltyOptions() PenaltyOptions {
	return PenaltyOptions{DedupWindow: t.opts.DedupWindow, HistoryLimit: t.opts.HistoryLimit}
}

// mutation runs against a freshly loaded document. It returns the events to
// publish and whether the document changed and must be saved.
type mutation func(st *core.State, now time.Time) ([]core.Event, bool, error)

func (t *Tracker) update(ctx context.Context, reason string, fn mutation) error {
	events, changed, now, err := t.commit(ctx, fn)
	if err != nil || !changed {
		return err
	}
	for _, ev := range events {
		t.bus.Publish(ctx, ev)
	}
	t.bus.Publish(ctx, core.NewStateChanged(now, reason))
	return nil
}

func (t *Tracker) commit(ctx context.Context, fn mutation) ([]core.Event, bool, time.Time, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	st, err := t.load(ctx)
	if err != nil {
		return nil, false, now, err
	}
	events, changed, err := fn(&st, now)
	if err != nil || !changed {
		return nil, false, now, err
	}
	if err := t.save(ctx, st, now); err != nil {
		return nil, false, now, err
	}
	return events, true, now, nil
}

// load reads the authoritative document. A missing document starts fresh and
// a malformed one is replaced by defaults instead of failing the caller.
func (t *Tracker) load(ctx context.Context) (core.State, error) {
	st, err := t.storage.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrNoDocument):
		st = core.NewState(t.opts.Stats)
	case core.IsMalformed(err):
		t.log.Warn("stored document is malformed, starting from defaults", "error", err)
		st = core.NewState(t.opts.Stats)
	default:
		return core.State{}, fmt.Errorf("load state: %w", err)
	}
	core.Normalize(&st, t.opts.HistoryLimit)
	return st, nil
}

func (t *Tracker) save(ctx context.Context, st core.State, now time.Time) error {
	if err := t.storage.Save(ctx, st); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	day := core.DayKey(now)
	written, err := t.storage.SaveSnapshot(ctx, day, st)
	if err != nil {
		t.log.Warn("daily snapshot failed", "day", day, "error", err)
	} else if written {
		t.log.Debug("daily snapshot stored", "day", day)
	}
	return nil
}

// State returns a copy of the current document.
func (t *Tracker) State(ctx context.Context) (core.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load(ctx)
}

// PenaltySweep runs the penalty engine once against the stored document.
func (t *Tracker) PenaltySweep(ctx context.Context) (PenaltyResult, error) {
	var res PenaltyResult
	err := t.update(ctx, "penalty_sweep", func(st *core.State, now time.Time) ([]core.Event, bool, error) {
		res = RunPenaltySweep(st, now, t.penaltyOptions())
		events := make([]core.Event, 0, len(res.Penalties))
		for _, p := range res.Penalties {
			events = append(events, core.NewPenaltyApplied(now, p.Stat, p.TaskID, p.Amount, p.Total, core.PenaltyLabelPrefix+p.Title))
		}
		return events, res.Changed, nil
	})
	if err != nil {
		return PenaltyResult{}, err
	}
	if res.Orphaned > 0 {
		t.log.Debug("penalty sweep skipped tasks without a stat", "count", res.Orphaned)
	}
	if res.Changed {
		t.log.Info("penalty sweep applied penalties", "count", len(res.Penalties))
	}
	return res, nil
}

// TrophySweep runs the trophy engine once against the stored document.
func (t *Tracker) TrophySweep(ctx context.Context) (TrophyResult, error) {
	var res TrophyResult
	err := t.update(ctx, "trophy_sweep", func(st *core.State, now time.Time) ([]core.Event, bool, error) {
		res = RunTrophySweep(st, now, t.opts.Rules, t.opts.HistoryLimit)
		var events []core.Event
		for _, tr := range res.Unlocked {
			events = append(events, core.NewTrophyUnlocked(now, tr))
		}
		if res.BoostUntil != nil && res.BoostsGranted > 0 {
			events = append(events, core.NewBoostGranted(now, res.Unlocked[len(res.Unlocked)-1].ID, *res.BoostUntil))
		}
		return events, res.Changed, nil
	})
	if err != nil {
		return TrophyResult{}, err
	}
	for _, tr := range res.Unlocked {
		t.log.Info("trophy unlocked", "trophy", tr.ID, "boost_until", res.BoostUntil)
	}
	return res, nil
}

// ApplyPenaltyNow deducts an overdue task's penalty without waiting for the
// next sweep. It uses the same deduplication key as the sweep, so a sweep
// racing with it cannot charge the same deadline twice.
func (t *Tracker) ApplyPenaltyNow(ctx context.Context, statKey core.StatKey, taskID string) (Penalty, error) {
	var p Penalty
	err := t.update(ctx, "manual_penalty", func(st *core.State, now time.Time) ([]core.Event, bool, error) {
		task, err := st.Task(statKey, taskID)
		if err != nil {
			return nil, false, err
		}
		switch {
		case task.Done():
			return nil, false, core.ErrTaskCompleted
		case task.PenaltyXP <= 0 || task.DueAt == nil:
			return nil, false, core.ErrNoPenalty
		case alreadyPenalized(task, t.opts.DedupWindow):
			return nil, false, core.ErrAlreadyPenalized
		case !task.Overdue(now):
			return nil, false, core.ErrNotOverdue
		}
		p = applyPenalty(st, statKey, task, now, t.penaltyOptions(), core.ManualPenaltyLabelPrefix+task.Title)
		p.Manual = true
		ev := core.NewPenaltyApplied(now, p.Stat, p.TaskID, p.Amount, p.Total, core.ManualPenaltyLabelPrefix+p.Title)
		return []core.Event{ev}, true, nil
	})
	return p, err
}

// ToggleTaskDone flips a task's completion marker. Completing grants the
// reward and rolls a recurring deadline forward from now; un-completing only
// clears the marker and keeps the reward.
func (t *Tracker) ToggleTaskDone(ctx context.Context, statKey core.StatKey, taskID string) (core.Task, error) {
	var out core.Task
	err := t.update(ctx, "task_toggled", func(st *core.State, now time.Time) ([]core.Event, bool, error) {
		task, err := st.Task(statKey, taskID)
		if err != nil {
			return nil, false, err
		}
		if task.Done() {
			task.CompletedOn = ""
			out = *task
			return nil, true, nil
		}
		task.CompletedOn = core.DayKey(now)
		if next, ok := core.NextDue(task.Cadence, now); ok {
			task.DueAt = &next
		}
		out = *task
		total := st.Stat(statKey).XP
		if task.RewardXP > 0 {
			total, _ = st.ApplyXP(statKey, task.RewardXP)
			st.Record(core.HistoryEntry{TS: now.UTC(), Label: "Task done: " + task.Title, Stat: statKey, XP: task.RewardXP}, t.opts.HistoryLimit)
		}
		return []core.Event{core.NewTaskCompleted(now, statKey, task.ID, task.RewardXP, total)}, true, nil
	})
	return out, err
}

// AddTask validates in and appends a new task to the stat's list.
func (t *Tracker) AddTask(ctx context.Context, statKey core.StatKey, in core.TaskInput) (core.Task, error) {
	var out core.Task
	err := t.update(ctx, "task_added", func(st *core.State, now time.Time) ([]core.Event, bool, error) {
		if _, err := st.RequireStat(statKey); err != nil {
			return nil, false, err
		}
		task, err := core.BuildTask(in, now)
		if err != nil {
			return nil, false, err
		}
		st.Tasks[statKey] = append([]core.Task{task}, st.Tasks[statKey]...)
		out = task
		return nil, true, nil
	})
	return out, err
}

// UpdateTask edits a task in place. A recurring task gets its deadline
// recomputed from now on every edit; a one-off task keeps its deadline unless
// in.Deadline supplies a new one. The deduplication key is preserved.
func (t *Tracker) UpdateTask(ctx context.Context, statKey core.StatKey, taskID string, in core.TaskInput) (core.Task, error) {
	var out core.Task
	err := t.update(ctx, "task_updated", func(st *core.State, now time.Time) ([]core.Event, bool, error) {
		task, err := st.Task(statKey, taskID)
		if err != nil {
			return nil, false, err
		}
		// BuildTask validates and resolves the deadline exactly as for a new task.
		built, err := core.BuildTask(in, now)
		if err != nil {
			return nil, false, err
		}
		task.Title = built.Title
		task.RewardXP = built.RewardXP
		task.PenaltyXP = built.PenaltyXP
		task.Cadence = built.Cadence
		switch {
		case built.CustomDue:
			task.DueAt, task.CustomDue = built.DueAt, true
		case built.Cadence.Recurring():
			task.DueAt, task.CustomDue = built.DueAt, false
		}
		out = *task
		return nil, true, nil
	})
	return out, err
}

// RemoveTask deletes a task.
func (t *Tracker) RemoveTask(ctx context.Context, statKey core.StatKey, taskID string) error {
	return t.update(ctx, "task_removed", func(st *core.State, _ time.Time) ([]core.Event, bool, error) {
		if _, err := st.Task(statKey, taskID); err != nil {
			return nil, false, err
		}
		list := st.Tasks[statKey]
		kept := list[:0]
		for _, task := range list {
			if task.ID != taskID {
				kept = append(kept, task)
			}
		}
		st.Tasks[statKey] = kept
		return nil, true, nil
	})
}

// AdjustXP applies a signed manual XP change to one stat and logs it. An
// empty label becomes "Manual +N XP" or "Manual -N XP".
func (t *Tracker) AdjustXP(ctx context.Context, statKey core.StatKey, delta int64, label string) (int64, error) {
	if delta == 0 {
		return 0, core.ErrZeroDelta
	}
	if label == "" {
		if delta > 0 {
			label = fmt.Sprintf("Manual +%d XP", delta)
		} else {
			label = fmt.Sprintf("Manual %d XP", delta)
		}
	}
	var total int64
	err := t.update(ctx, "xp_adjusted", func(st *core.State, now time.Time) ([]core.Event, bool, error) {
		stat, err := st.ResolveStat(statKey)
		if err != nil {
			return nil, false, err
		}
		key := stat.Key
		total, err = st.ApplyXP(key, delta)
		if err != nil {
			return nil, false, err
		}
		st.Record(core.HistoryEntry{TS: now.UTC(), Label: label, Stat: key, XP: delta}, t.opts.HistoryLimit)
		return []core.Event{core.NewXPChanged(now, key, delta, total, label)}, true, nil
	})
	return total, err
}

// QuickActions returns a copy of the preset action catalog.
func (t *Tracker) QuickActions() []core.QuickAction {
	return append([]core.QuickAction(nil), t.opts.QuickActions...)
}

// QuickAction grants a preset action's XP.
func (t *Tracker) QuickAction(ctx context.Context, a core.QuickAction) (int64, error) {
	return t.AdjustXP(ctx, a.Stat, a.XP, a.Label)
}

// AddQuest validates in and puts the new quest at the top of the list.
func (t *Tracker) AddQuest(ctx context.Context, in core.QuestInput) (core.Quest, error) {
	var out core.Quest
	err := t.update(ctx, "quest_added", func(st *core.State, _ time.Time) ([]core.Event, bool, error) {
		q, err := core.BuildQuest(in)
		if err != nil {
			return nil, false, err
		}
		if _, err := st.RequireStat(q.Stat); err != nil {
			return nil, false, err
		}
		st.Quests = append([]core.Quest{q}, st.Quests...)
		out = q
		return nil, true, nil
	})
	return out, err
}

// ToggleQuest flips a quest's done flag.
func (t *Tracker) ToggleQuest(ctx context.Context, questID string) (core.Quest, error) {
	var out core.Quest
	err := t.update(ctx, "quest_toggled", func(st *core.State, _ time.Time) ([]core.Event, bool, error) {
		i := st.QuestIndex(questID)
		if i < 0 {
			return nil, false, core.ErrQuestNotFound
		}
		st.Quests[i].Done = !st.Quests[i].Done
		out = st.Quests[i]
		return nil, true, nil
	})
	return out, err
}

// ClaimQuest consumes a done quest, granting its XP to the quest's stat.
func (t *Tracker) ClaimQuest(ctx context.Context, questID string) (int64, error) {
	var total int64
	err := t.update(ctx, "quest_claimed", func(st *core.State, now time.Time) ([]core.Event, bool, error) {
		i := st.QuestIndex(questID)
		if i < 0 {
			return nil, false, core.ErrQuestNotFound
		}
		q := st.Quests[i]
		if !q.Done {
			return nil, false, core.ErrQuestNotDone
		}
		var err error
		total, err = st.ApplyXP(q.Stat, q.XP)
		if err != nil {
			return nil, false, err
		}
		st.Record(core.HistoryEntry{TS: now.UTC(), Label: "Quest: " + q.Title, Stat: q.Stat, XP: q.XP}, t.opts.HistoryLimit)
		st.Quests = append(st.Quests[:i], st.Quests[i+1:]...)
		return []core.Event{core.NewQuestClaimed(now, q, total)}, true, nil
	})
	return total, err
}

// DeleteQuest removes a quest without granting anything.
func (t *Tracker) DeleteQuest(ctx context.Context, questID string) error {
	return t.update(ctx, "quest_deleted", func(st *core.State, _ time.Time) ([]core.Event, bool, error) {
		i := st.QuestIndex(questID)
		if i < 0 {
			return nil, false, core.ErrQuestNotFound
		}
		st.Quests = append(st.Quests[:i], st.Quests[i+1:]...)
		return nil, true, nil
	})
}

// Reset replaces the document with a fresh one built from the configured stats.
func (t *Tracker) Reset(ctx context.Context) error {
	return t.update(ctx, "reset", func(st *core.State, _ time.Time) ([]core.Event, bool, error) {
		*st = core.NewState(zeroed(t.opts.Stats))
		return nil, true, nil
	})
}

// Export writes the current document as JSON.
func (t *Tracker) Export(ctx context.Context, w io.Writer) error {
	st, err := t.State(ctx)
	if err != nil {
		return err
	}
	b, err := core.EncodeState(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// Import replaces the document with one read from r. Missing top-level keys
// take their defaults. Input that does not parse changes nothing and returns
// *core.MalformedStoreError.
func (t *Tracker) Import(ctx context.Context, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	imported, err := core.DecodeState(b, t.opts.Stats, t.opts.HistoryLimit)
	if err != nil {
		return core.WithSource(err, "import")
	}
	return t.update(ctx, "imported", func(st *core.State, _ time.Time) ([]core.Event, bool, error) {
		*st = imported
		return nil, true, nil
	})
}

// Snapshots lists the stored daily snapshots, newest first.
func (t *Tracker) Snapshots(ctx context.Context) ([]string, error) {
	return t.storage.Snapshots(ctx)
}

// RestoreSnapshot makes the snapshot stored for day the current document.
func (t *Tracker) RestoreSnapshot(ctx context.Context, day string) error {
	snap, err := t.storage.Snapshot(ctx, day)
	if err != nil {
		return err
	}
	return t.update(ctx, "snapshot_restored", func(st *core.State, _ time.Time) ([]core.Event, bool, error) {
		*st = snap
		core.Normalize(st, t.opts.HistoryLimit)
		return nil, true, nil
	})
}

func zeroed(stats []core.Stat) []core.Stat {
	out := make([]core.Stat, len(stats))
	for i, s := range stats {
		s.XP = 0
		out[i] = s
	}
	return out
}
