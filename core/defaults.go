package core

// DefaultStats is the reference stat set.
func DefaultStats() []Stat {
	return []Stat{
		{Key: "intelligence", Label: "Intelligence", Emoji: "🧠"},
		{Key: "strength", Label: "Strength", Emoji: "💪"},
		{Key: "creation", Label: "Creation", Emoji: "💻"},
		{Key: "discipline", Label: "Discipline", Emoji: "🔥"},
		{Key: "charisma", Label: "Charisma", Emoji: "💬"},
		{Key: "mindfulness", Label: "Mindfulness", Emoji: "💖"},
		{Key: "wisdom", Label: "Wisdom", Emoji: "🧭"},
	}
}

// DefaultQuests seeds a fresh document.
func DefaultQuests() []Quest {
	return []Quest{
		{ID: "q1", Title: "Finish DSA Lab 3", Stat: "creation", XP: 20},
		{ID: "q2", Title: "WEB422 A1 complete", Stat: "creation", XP: 20},
		{ID: "q3", Title: "3× workouts this week", Stat: "strength", XP: 30},
		{ID: "q4", Title: "Journal 5× this week", Stat: "mindfulness", XP: 50},
		{ID: "q5", Title: "Talk to 2 classmates", Stat: "charisma", XP: 20},
	}
}

// DefaultQuickActions is the preset action catalog.
var DefaultQuickActions = []QuickAction{
	{Label: "Study 1 hr (DSA/WEB/SYD)", Stat: "intelligence", XP: 15},
	{Label: "Solve hard problem", Stat: "intelligence", XP: 20},
	{Label: "Exercise 30 min", Stat: "strength", XP: 10},
	{Label: "Sleep 7+ hours", Stat: "strength", XP: 10},
	{Label: "Healthy meal", Stat: "strength", XP: 5},
	{Label: "Git commit/feature", Stat: "creation", XP: 10},
	{Label: "Finish lab/assignment", Stat: "creation", XP: 20},
	{Label: "Improve personal site", Stat: "creation", XP: 15},
	{Label: "Follow daily plan", Stat: "discipline", XP: 10},
	{Label: "Work even when tired", Stat: "discipline", XP: 20},
	{Label: "Early submission", Stat: "discipline", XP: 15},
	{Label: "Team sync / good message", Stat: "charisma", XP: 10},
	{Label: "Help a classmate", Stat: "charisma", XP: 15},
	{Label: "Handle OCD/anxiety episode", Stat: "mindfulness", XP: 15},
	{Label: "Journal 10 min", Stat: "mindfulness", XP: 10},
	{Label: "Avoid reactive anger", Stat: "mindfulness", XP: 10},
	{Label: "Plan week / budget", Stat: "wisdom", XP: 10},
	{Label: "Career research / decision", Stat: "wisdom", XP: 15},
	{Label: "Clear decision after reflection", Stat: "wisdom", XP: 20},
}

// NewState builds a fresh document for the given stat set. A nil set means
// DefaultStats.
func NewState(stats []Stat) State {
	if stats == nil {
		stats = DefaultStats()
	}
	st := State{
		Stats:    append([]Stat(nil), stats...),
		Tasks:    make(map[StatKey][]Task, len(stats)),
		Quests:   DefaultQuests(),
		History:  []HistoryEntry{},
		Trophies: []Trophy{},
		Meta:     Meta{Levels: map[StatKey]int64{}},
	}
	for _, s := range stats {
		st.Tasks[s.Key] = []Task{}
	}
	return st
}
