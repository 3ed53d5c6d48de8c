package engine

import (
	"fmt"
	"time"

	"levelup/core"
)

// TrophyResult reports what a trophy sweep did.
type TrophyResult struct {
	Unlocked      []core.Trophy
	BoostsGranted int
	BoostUntil    *time.Time
	LevelsChanged bool
	Changed       bool
}

// RunTrophySweep compares per-stat levels with the snapshot stored in
// st.Meta.Levels, unlocks trophies whose rule fires and that were never
// granted, and always stores the current levels for the next comparison.
func RunTrophySweep(st *core.State, now time.Time, rules []core.TrophyRule, historyLimit int) TrophyResult {
	var res TrophyResult
	prev := st.Meta.Levels
	curr := st.Levels()

	for _, r := range rules {
		tr := r.Trophy(now)
		if st.HasTrophy(tr.ID) || !r.Evaluate(prev, curr) {
			continue
		}
		st.Trophies = append([]core.Trophy{tr}, st.Trophies...)
		res.Unlocked = append(res.Unlocked, tr)

		label := "Trophy: " + tr.Title
		if w := r.BoostWindow(); w > 0 {
			until := now.Add(w).UTC()
			if cur := st.Boosts.RecoveryBoostUntil; cur == nil || cur.Before(until) {
				st.Boosts.RecoveryBoostUntil = &until
			}
			res.BoostsGranted++
			res.BoostUntil = st.Boosts.RecoveryBoostUntil
			label = fmt.Sprintf("Trophy: %s, recovery boost active (%s)", tr.Title, w)
		}
		st.Record(core.HistoryEntry{TS: now.UTC(), Label: label}, historyLimit)
	}

	if !sameLevels(prev, curr) {
		st.Meta.Levels = curr
		res.LevelsChanged = true
	}
	res.Changed = len(res.Unlocked) > 0 || res.LevelsChanged
	return res
}

func sameLevels(a, b map[core.StatKey]int64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}
