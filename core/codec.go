package core

import (
	"bytes"
	"encoding/json"
	"time"
)

// rawState mirrors State with pointer fields so that absent top-level keys can
// be told apart from empty ones.
type rawState struct {
	Stats    *[]Stat            `json:"stats"`
	Tasks    map[StatKey][]Task `json:"tasks"`
	Quests   *[]Quest           `json:"quests"`
	History  []HistoryEntry     `json:"history"`
	Trophies []Trophy           `json:"trophies"`
	Boosts   *Boosts            `json:"boosts"`
	Meta     *Meta              `json:"meta"`
}

// DecodeState parses a persisted or imported document. Missing top-level keys
// fall back to defaults: stats to defaultStats (DefaultStats when nil), quests
// to DefaultQuests, everything else to empty. Empty input yields a fresh
// document. Unparseable input returns *MalformedStoreError.
func DecodeState(b []byte, defaultStats []Stat, historyLimit int) (State, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return NewState(defaultStats), nil
	}
	var raw rawState
	if err := json.Unmarshal(b, &raw); err != nil {
		return State{}, &MalformedStoreError{Err: err}
	}
	st := NewState(defaultStats)
	if raw.Stats != nil {
		st.Stats = *raw.Stats
	}
	if raw.Quests != nil {
		st.Quests = *raw.Quests
	}
	st.Tasks = raw.Tasks
	st.History = raw.History
	st.Trophies = raw.Trophies
	if raw.Boosts != nil {
		st.Boosts = *raw.Boosts
	}
	if raw.Meta != nil {
		st.Meta = *raw.Meta
	}
	Normalize(&st, historyLimit)
	return st, nil
}

// EncodeState serializes the document as one unit.
func EncodeState(st State) ([]byte, error) {
	return json.MarshalIndent(st, "", "  ")
}

// Normalize fills nil containers, gives every stat a task list, clamps
// negative XP, repairs unknown cadences and trims history to limit.
func Normalize(st *State, historyLimit int) {
	if st.Stats == nil {
		st.Stats = []Stat{}
	}
	for i := range st.Stats {
		if st.Stats[i].XP < 0 {
			st.Stats[i].XP = 0
		}
	}
	if st.Tasks == nil {
		st.Tasks = make(map[StatKey][]Task, len(st.Stats))
	}
	for _, s := range st.Stats {
		if st.Tasks[s.Key] == nil {
			st.Tasks[s.Key] = []Task{}
		}
	}
	for k, list := range st.Tasks {
		for i := range list {
			if !list[i].Cadence.IsValid() {
				list[i].Cadence = CadenceNone
			}
			if list[i].RewardXP < 0 {
				list[i].RewardXP = 0
			}
			if list[i].PenaltyXP < 0 {
				list[i].PenaltyXP = 0
			}
		}
		st.Tasks[k] = list
	}
	if st.Quests == nil {
		st.Quests = []Quest{}
	}
	if st.History == nil {
		st.History = []HistoryEntry{}
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if len(st.History) > historyLimit {
		st.History = st.History[:historyLimit]
	}
	if st.Trophies == nil {
		st.Trophies = []Trophy{}
	}
	if st.Meta.Levels == nil {
		st.Meta.Levels = map[StatKey]int64{}
	}
}

// UnmarshalJSON decodes a task, tolerating deadline fields that do not parse.
// A bad timestamp decodes as nil so the task is skipped by the sweeps instead
// of failing the whole document.
func (t *Task) UnmarshalJSON(b []byte) error {
	type alias Task
	aux := struct {
		*alias
		DueAt         json.RawMessage `json:"dueAt,omitempty"`
		LastPenaltyAt json.RawMessage `json:"lastPenaltyAt,omitempty"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.DueAt = lenientTime(aux.DueAt)
	t.LastPenaltyAt = lenientTime(aux.LastPenaltyAt)
	return nil
}

func lenientTime(raw json.RawMessage) *time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}
