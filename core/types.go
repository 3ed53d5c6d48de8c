package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// StatKey identifies a progress category such as "intelligence".
type StatKey string

// LevelSize is the amount of XP that makes up one level.
const LevelSize int64 = 100

// DefaultHistoryLimit bounds the history log; older entries are evicted first.
const DefaultHistoryLimit = 200

// Stat is a named XP-accumulating progress category.
type Stat struct {
	Key   StatKey `json:"key"`
	Label string  `json:"label"`
	Emoji string  `json:"emoji,omitempty"`
	XP    int64   `json:"xp"`
}

// Level reports the displayed level of the stat.
func (s Stat) Level() int64 { return Level(s.XP) }

// Task is a deadline-bearing unit of work owned by one stat.
// LastPenaltyAt holds the due instant that was last penalized, not the
// wall-clock time the penalty fired.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	RewardXP      int64      `json:"reward"`
	PenaltyXP     int64      `json:"penalty"`
	Cadence       Cadence    `json:"cadence"`
	DueAt         *time.Time `json:"dueAt,omitempty"`
	CompletedOn   string     `json:"completedOnDate,omitempty"`
	LastPenaltyAt *time.Time `json:"lastPenaltyAt,omitempty"`
	CustomDue     bool       `json:"useCustomDue,omitempty"`
}

// Done reports whether the task is currently marked as completed.
func (t Task) Done() bool { return t.CompletedOn != "" }

// Overdue reports whether the task is pending and its deadline has passed.
func (t Task) Overdue(now time.Time) bool {
	return !t.Done() && t.DueAt != nil && now.After(*t.DueAt)
}

// HistoryEntry is one line of the append-only activity log.
type HistoryEntry struct {
	TS    time.Time `json:"ts"`
	Label string    `json:"label"`
	Stat  StatKey   `json:"stat,omitempty"`
	XP    int64     `json:"xp"`
}

// History labels written by the penalty engine.
const (
	PenaltyLabelPrefix       = "Penalty: "
	ManualPenaltyLabelPrefix = "Manual penalty: "
)

// IsPenalty reports whether the entry was written by a sweep or manual
// penalty. A boosted penalty can record zero XP, so the sign is not enough.
func (h HistoryEntry) IsPenalty() bool {
	return strings.HasPrefix(h.Label, PenaltyLabelPrefix) || strings.HasPrefix(h.Label, ManualPenaltyLabelPrefix)
}

// Trophy is a one-time achievement. ID is the idempotence key.
type Trophy struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"desc"`
	UnlockedAt  time.Time `json:"ts"`
	Effect      string    `json:"effect,omitempty"`
}

// Boosts holds time-bounded modifiers.
type Boosts struct {
	RecoveryBoostUntil *time.Time `json:"recoveryBoostUntil"`
}

// RecoveryActive reports whether the recovery boost is in effect at now.
func (b Boosts) RecoveryActive(now time.Time) bool {
	return b.RecoveryBoostUntil != nil && now.Before(*b.RecoveryBoostUntil)
}

// Meta holds derived bookkeeping used by the engines.
type Meta struct {
	Levels map[StatKey]int64 `json:"levels"`
}

// Quest is a one-shot reward consumed by claiming it.
type Quest struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Stat  StatKey `json:"stat"`
	XP    int64   `json:"xp"`
	Done  bool    `json:"done"`
}

// QuickAction is a preset XP grant offered by the dashboard.
type QuickAction struct {
	Label string  `json:"label"`
	Stat  StatKey `json:"stat"`
	XP    int64   `json:"xp"`
}

// State is the whole persisted document. Nothing inside it is stored
// independently.
type State struct {
	Stats    []Stat             `json:"stats"`
	Tasks    map[StatKey][]Task `json:"tasks"`
	Quests   []Quest            `json:"quests"`
	History  []HistoryEntry     `json:"history"`
	Trophies []Trophy           `json:"trophies"`
	Boosts   Boosts             `json:"boosts"`
	Meta     Meta               `json:"meta"`
}

// Clone returns a deep copy so callers can mutate freely.
func (s State) Clone() State {
	cp := State{
		Stats:    append([]Stat(nil), s.Stats...),
		Tasks:    make(map[StatKey][]Task, len(s.Tasks)),
		Quests:   append([]Quest(nil), s.Quests...),
		History:  append([]HistoryEntry(nil), s.History...),
		Trophies: append([]Trophy(nil), s.Trophies...),
		Boosts:   Boosts{RecoveryBoostUntil: cloneTime(s.Boosts.RecoveryBoostUntil)},
		Meta:     Meta{Levels: make(map[StatKey]int64, len(s.Meta.Levels))},
	}
	for k, list := range s.Tasks {
		tasks := make([]Task, len(list))
		for i, t := range list {
			t.DueAt = cloneTime(t.DueAt)
			t.LastPenaltyAt = cloneTime(t.LastPenaltyAt)
			tasks[i] = t
		}
		cp.Tasks[k] = tasks
	}
	for k, v := range s.Meta.Levels {
		cp.Meta.Levels[k] = v
	}
	return cp
}

// Stat returns a pointer into the stat list for key, or nil.
func (s *State) Stat(key StatKey) *Stat {
	for i := range s.Stats {
		if s.Stats[i].Key == key {
			return &s.Stats[i]
		}
	}
	return nil
}

// RequireStat is Stat but fails with *UnknownStatError.
func (s *State) RequireStat(key StatKey) (*Stat, error) {
	if st := s.Stat(key); st != nil {
		return st, nil
	}
	return nil, &UnknownStatError{Key: key}
}

// Task returns a pointer to the task with id under statKey.
func (s *State) Task(statKey StatKey, id string) (*Task, error) {
	if _, err := s.RequireStat(statKey); err != nil {
		return nil, err
	}
	list := s.Tasks[statKey]
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, ErrTaskNotFound
}

// QuestIndex returns the position of quest id or -1.
func (s *State) QuestIndex(id string) int {
	for i := range s.Quests {
		if s.Quests[i].ID == id {
			return i
		}
	}
	return -1
}

// HasTrophy reports whether trophy id was already unlocked.
func (s *State) HasTrophy(id string) bool {
	for _, t := range s.Trophies {
		if t.ID == id {
			return true
		}
	}
	return false
}

// ApplyXP adds delta to the stat, clamping at zero, and returns the new total.
func (s *State) ApplyXP(key StatKey, delta int64) (int64, error) {
	st, err := s.RequireStat(key)
	if err != nil {
		return 0, err
	}
	st.XP = ClampAdd(st.XP, delta)
	return st.XP, nil
}

// Record prepends entry to the history log and evicts past limit.
func (s *State) Record(entry HistoryEntry, limit int) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.History = append([]HistoryEntry{entry}, s.History...)
	if len(s.History) > limit {
		s.History = s.History[:limit]
	}
}

// Levels computes floor(xp/LevelSize) for every stat.
func (s State) Levels() map[StatKey]int64 {
	out := make(map[StatKey]int64, len(s.Stats))
	for _, st := range s.Stats {
		out[st.Key] = LevelFloor(st.XP)
	}
	return out
}

// TotalXP sums XP across all stats.
func (s State) TotalXP() int64 {
	var total int64
	for _, st := range s.Stats {
		total = ClampAdd(total, st.XP)
	}
	return total
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// ClampAdd adds delta to a non-negative XP value, saturating at the int64
// bounds and never going below zero.
func ClampAdd(base, delta int64) int64 {
	next, err := AddSafe(base, delta)
	if err != nil {
		if delta > 0 {
			return math.MaxInt64
		}
		return 0
	}
	if next < 0 {
		return 0
	}
	return next
}

// Level is 1 + floor(xp/LevelSize).
func Level(xp int64) int64 { return 1 + LevelFloor(xp) }

// LevelFloor is floor(xp/LevelSize), the value the trophy engine tracks.
func LevelFloor(xp int64) int64 {
	if xp <= 0 {
		return 0
	}
	return xp / LevelSize
}

// ProgressWithinLevel returns the XP earned towards the next level.
func ProgressWithinLevel(xp int64) int64 {
	if xp <= 0 {
		return 0
	}
	return xp % LevelSize
}

// ResolveStat finds the stat a user-typed key refers to. Surrounding space is
// ignored and an exact match wins over a case-insensitive one.
func (s *State) ResolveStat(key StatKey) (*Stat, error) {
	k := StatKey(strings.TrimSpace(string(key)))
	if k == "" {
		return nil, &UnknownStatError{Key: key}
	}
	if st := s.Stat(k); st != nil {
		return st, nil
	}
	for i := range s.Stats {
		if strings.EqualFold(string(s.Stats[i].Key), string(k)) {
			return &s.Stats[i], nil
		}
	}
	return nil, &UnknownStatError{Key: key}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
