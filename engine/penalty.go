package engine

import (
	"time"

	"levelup/core"
)

// DefaultDedupWindow is how close lastPenaltyAt must be to dueAt for the two
// to count as the same occurrence. It absorbs polling jitter.
const DefaultDedupWindow = time.Minute

// PenaltyOptions tunes the penalty sweep.
type PenaltyOptions struct {
	DedupWindow  time.Duration
	HistoryLimit int
}

func (o PenaltyOptions) window() time.Duration {
	if o.DedupWindow <= 0 {
		return DefaultDedupWindow
	}
	return o.DedupWindow
}

// Penalty describes one deduction applied to a stat.
type Penalty struct {
	Stat    core.StatKey
	TaskID  string
	Title   string
	Amount  int64
	Total   int64
	DueAt   time.Time
	NextDue *time.Time
	Manual  bool
}

// PenaltyResult reports what a sweep did. Orphaned counts overdue tasks that
// were skipped because their stat no longer exists.
type PenaltyResult struct {
	Penalties []Penalty
	Orphaned  int
	Changed   bool
}

// RunPenaltySweep applies at most one penalty per missed due occurrence across
// all tasks in st. Running it again with the same now changes nothing.
func RunPenaltySweep(st *core.State, now time.Time, opts PenaltyOptions) PenaltyResult {
	var res PenaltyResult
	for _, stat := range st.Stats {
		list := st.Tasks[stat.Key]
		for i := range list {
			t := &list[i]
			if !penaltyDue(t, now, opts.window()) {
				continue
			}
			p := applyPenalty(st, stat.Key, t, now, opts, core.PenaltyLabelPrefix+t.Title)
			res.Penalties = append(res.Penalties, p)
			res.Changed = true
		}
	}
	for key, list := range st.Tasks {
		if st.Stat(key) != nil {
			continue
		}
		for i := range list {
			if penaltyDue(&list[i], now, opts.window()) {
				res.Orphaned++
			}
		}
	}
	return res
}

// penaltyDue is the sweep's eligibility check: a pending task with a positive
// penalty whose deadline has passed and was not penalized yet.
func penaltyDue(t *core.Task, now time.Time, window time.Duration) bool {
	if t.DueAt == nil || t.PenaltyXP <= 0 || t.Done() {
		return false
	}
	if !t.DueAt.Before(now) {
		return false
	}
	return !alreadyPenalized(t, window)
}

func alreadyPenalized(t *core.Task, window time.Duration) bool {
	if t.LastPenaltyAt == nil || t.DueAt == nil {
		return false
	}
	d := t.LastPenaltyAt.Sub(*t.DueAt)
	if d < 0 {
		d = -d
	}
	return d < window
}

// EffectivePenalty halves base, rounding down, while a recovery boost is
// active at now.
func EffectivePenalty(base int64, boosts core.Boosts, now time.Time) int64 {
	if base <= 0 {
		return 0
	}
	if boosts.RecoveryActive(now) {
		return base / 2
	}
	return base
}

// applyPenalty deducts the effective penalty, records history, keys the
// deduplication on the due instant and rolls recurring deadlines forward from
// the later of now and the consumed deadline, so the new deadline is always a
// later occurrence. The caller has checked eligibility and that the stat exists.
func applyPenalty(st *core.State, key core.StatKey, t *core.Task, now time.Time, opts PenaltyOptions, label string) Penalty {
	amount := EffectivePenalty(t.PenaltyXP, st.Boosts, now)
	total, _ := st.ApplyXP(key, -amount)
	st.Record(core.HistoryEntry{TS: now.UTC(), Label: label, Stat: key, XP: -amount}, opts.HistoryLimit)

	due := *t.DueAt
	t.LastPenaltyAt = &due
	p := Penalty{Stat: key, TaskID: t.ID, Title: t.Title, Amount: amount, Total: total, DueAt: due}
	ref := now
	if due.After(ref) {
		ref = due
	}
	if next, ok := core.NextDue(t.Cadence, ref); ok {
		t.DueAt = &next
		p.NextDue = &next
	}
	return p
}
