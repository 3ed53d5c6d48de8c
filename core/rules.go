package core

import "time"

// TrophyRule decides whether a trophy unlocks given the level snapshot from
// the previous sweep and the current one.
type TrophyRule interface {
	Trophy(now time.Time) Trophy
	Evaluate(prev, curr map[StatKey]int64) bool
	// BoostWindow is the recovery boost granted on unlock; zero grants none.
	BoostWindow() time.Duration
}

// LevelCrossingRule unlocks when any stat moves from below Level to at or
// above it.
type LevelCrossingRule struct {
	ID          string
	Title       string
	Description string
	Effect      string
	Level       int64
	Boost       time.Duration
}

func (r LevelCrossingRule) Trophy(now time.Time) Trophy {
	return Trophy{ID: r.ID, Title: r.Title, Description: r.Description, UnlockedAt: now.UTC(), Effect: r.Effect}
}

func (r LevelCrossingRule) Evaluate(prev, curr map[StatKey]int64) bool {
	for k, lvl := range curr {
		if prev[k] < r.Level && lvl >= r.Level {
			return true
		}
	}
	return false
}

func (r LevelCrossingRule) BoostWindow() time.Duration { return r.Boost }

// FirstLevelTrophyID is the idempotence key of the first-level trophy.
const FirstLevelTrophyID = "first-level"

// RecoveryBoostWindow is how long the first-level recovery boost lasts.
const RecoveryBoostWindow = 24 * time.Hour

// DefaultTrophyRules returns the built-in trophy catalog.
func DefaultTrophyRules() []TrophyRule {
	return []TrophyRule{
		LevelCrossingRule{
			ID:          FirstLevelTrophyID,
			Title:       "First Level",
			Description: "Reached level 1 in any stat.",
			Effect:      "recoveryBoost24h",
			Level:       1,
			Boost:       RecoveryBoostWindow,
		},
	}
}
