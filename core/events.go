package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventXPChanged      EventType = "xp_changed"
	EventPenaltyApplied EventType = "penalty_applied"
	EventTaskCompleted  EventType = "task_completed"
	EventTrophyUnlocked EventType = "trophy_unlocked"
	EventBoostGranted   EventType = "boost_granted"
	EventQuestClaimed   EventType = "quest_claimed"
	EventStateChanged   EventType = "state_changed"
)

// AllEventTypes lists every event type, for subscribers that bridge everything.
var AllEventTypes = []EventType{
	EventXPChanged,
	EventPenaltyApplied,
	EventTaskCompleted,
	EventTrophyUnlocked,
	EventBoostGranted,
	EventQuestClaimed,
	EventStateChanged,
}

// Event represents an immutable domain event.
type Event struct {
	Type    EventType  `json:"type"`
	Time    time.Time  `json:"time"`
	Stat    StatKey    `json:"stat,omitempty"`
	Delta   int64      `json:"delta,omitempty"`
	Total   int64      `json:"total,omitempty"`
	TaskID  string     `json:"task_id,omitempty"`
	QuestID string     `json:"quest_id,omitempty"`
	Trophy  string     `json:"trophy,omitempty"`
	Label   string     `json:"label,omitempty"`
	Until   *time.Time `json:"until,omitempty"`
}

func NewXPChanged(at time.Time, stat StatKey, delta, total int64, label string) Event {
	return Event{Type: EventXPChanged, Time: at.UTC(), Stat: stat, Delta: delta, Total: total, Label: label}
}

func NewPenaltyApplied(at time.Time, stat StatKey, taskID string, amount, total int64, label string) Event {
	return Event{Type: EventPenaltyApplied, Time: at.UTC(), Stat: stat, TaskID: taskID, Delta: -amount, Total: total, Label: label}
}

func NewTaskCompleted(at time.Time, stat StatKey, taskID string, reward, total int64) Event {
	return Event{Type: EventTaskCompleted, Time: at.UTC(), Stat: stat, TaskID: taskID, Delta: reward, Total: total}
}

func NewTrophyUnlocked(at time.Time, trophy Trophy) Event {
	return Event{Type: EventTrophyUnlocked, Time: at.UTC(), Trophy: trophy.ID, Label: trophy.Title}
}

func NewBoostGranted(at time.Time, trophyID string, until time.Time) Event {
	u := until.UTC()
	return Event{Type: EventBoostGranted, Time: at.UTC(), Trophy: trophyID, Until: &u}
}

func NewQuestClaimed(at time.Time, q Quest, total int64) Event {
	return Event{Type: EventQuestClaimed, Time: at.UTC(), Stat: q.Stat, QuestID: q.ID, Delta: q.XP, Total: total, Label: q.Title}
}

// NewStateChanged tells display layers to refresh from the stored document.
func NewStateChanged(at time.Time, reason string) Event {
	return Event{Type: EventStateChanged, Time: at.UTC(), Label: reason}
}
