package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelup/core"
)

func TestTrophySweepUnlocksFirstLevel(t *testing.T) {
	st := core.NewState(nil)
	now := day(2024, 3, 10, 12, 0, 0)

	res := RunTrophySweep(&st, now, core.DefaultTrophyRules(), 0)
	assert.Empty(t, res.Unlocked)
	assert.Equal(t, int64(0), st.Meta.Levels["intelligence"])

	st.Stat("intelligence").XP = 120
	res = RunTrophySweep(&st, now, core.DefaultTrophyRules(), 0)
	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, core.FirstLevelTrophyID, res.Unlocked[0].ID)
	assert.Equal(t, 1, res.BoostsGranted)
	require.NotNil(t, st.Boosts.RecoveryBoostUntil)
	assert.True(t, st.Boosts.RecoveryBoostUntil.Equal(now.Add(24*time.Hour)))
	assert.Equal(t, int64(1), st.Meta.Levels["intelligence"])

	require.Len(t, st.History, 1)
	assert.Equal(t, int64(0), st.History[0].XP)
	assert.Empty(t, st.History[0].Stat)
	assert.Contains(t, st.History[0].Label, "First Level")
}

func TestTrophySweepIdempotent(t *testing.T) {
	st := core.NewState(nil)
	now := day(2024, 3, 10, 12, 0, 0)
	rules := core.DefaultTrophyRules()

	RunTrophySweep(&st, now, rules, 0)
	st.Stat("strength").XP = 100
	RunTrophySweep(&st, now, rules, 0)

	// Drop back below the threshold and climb again.
	st.Stat("strength").XP = 40
	RunTrophySweep(&st, now.Add(time.Hour), rules, 0)
	st.Stat("strength").XP = 180
	res := RunTrophySweep(&st, now.Add(2*time.Hour), rules, 0)

	assert.Empty(t, res.Unlocked)
	assert.Zero(t, res.BoostsGranted)
	assert.Len(t, st.Trophies, 1)
	assert.True(t, st.Boosts.RecoveryBoostUntil.Equal(now.Add(24*time.Hour)))
}

func TestTrophySweepNoChange(t *testing.T) {
	st := core.NewState(nil)
	now := day(2024, 3, 10, 12, 0, 0)
	first := RunTrophySweep(&st, now, core.DefaultTrophyRules(), 0)
	assert.True(t, first.LevelsChanged)

	second := RunTrophySweep(&st, now, core.DefaultTrophyRules(), 0)
	assert.False(t, second.Changed)
}

func TestTrophySweepCustomRule(t *testing.T) {
	st := core.NewState(nil)
	st.Meta.Levels = st.Levels()
	now := day(2024, 3, 10, 12, 0, 0)
	rule := core.LevelCrossingRule{ID: "five", Title: "Five", Level: 5}

	st.Stat("wisdom").XP = 520
	res := RunTrophySweep(&st, now, []core.TrophyRule{rule}, 0)
	require.Len(t, res.Unlocked, 1)
	assert.Zero(t, res.BoostsGranted)
	assert.Nil(t, st.Boosts.RecoveryBoostUntil)
	assert.Equal(t, "Trophy: Five", st.History[0].Label)
}
