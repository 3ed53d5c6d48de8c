package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStateEmptyDocument(t *testing.T) {
	st, err := DecodeState([]byte("{}"), nil, 0)
	require.NoError(t, err)

	assert.Len(t, st.Stats, len(DefaultStats()))
	assert.Len(t, st.Quests, len(DefaultQuests()))
	assert.Empty(t, st.History)
	assert.Empty(t, st.Trophies)
	assert.NotNil(t, st.Meta.Levels)
	for _, s := range st.Stats {
		assert.NotNil(t, st.Tasks[s.Key], "missing task list for %s", s.Key)
	}
}

func TestDecodeStateBlankInput(t *testing.T) {
	st, err := DecodeState([]byte("  \n"), nil, 0)
	require.NoError(t, err)
	assert.Len(t, st.Stats, len(DefaultStats()))
}

func TestDecodeStateKeepsExplicitEmptyQuests(t *testing.T) {
	st, err := DecodeState([]byte(`{"quests": []}`), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, st.Quests)
}

func TestDecodeStateMalformed(t *testing.T) {
	_, err := DecodeState([]byte(`{"stats": [`), nil, 0)
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
}

func TestDecodeStatePartialDocument(t *testing.T) {
	doc := `{
		"stats": [{"key": "wisdom", "label": "Wisdom", "xp": -20}],
		"tasks": {"wisdom": [{"id": "t1", "title": "Plan", "penalty": 5, "cadence": "daily",
			"dueAt": "2026-01-01T23:59:59Z", "lastPenaltyAt": "not a time"}]},
		"history": [{"ts": "2026-01-01T10:00:00Z", "label": "a", "xp": 1},
		            {"ts": "2026-01-01T09:00:00Z", "label": "b", "xp": 1},
		            {"ts": "2026-01-01T08:00:00Z", "label": "c", "xp": 1}]
	}`
	st, err := DecodeState([]byte(doc), nil, 2)
	require.NoError(t, err)

	require.Len(t, st.Stats, 1)
	assert.Equal(t, int64(0), st.Stats[0].XP)
	require.Len(t, st.Tasks["wisdom"], 1)
	task := st.Tasks["wisdom"][0]
	require.NotNil(t, task.DueAt)
	assert.True(t, task.DueAt.Equal(time.Date(2026, 1, 1, 23, 59, 59, 0, time.UTC)))
	assert.Nil(t, task.LastPenaltyAt)
	assert.Len(t, st.History, 2)
	assert.Equal(t, "a", st.History[0].Label)
}

func TestDecodeStateBadDueAtDoesNotFailDocument(t *testing.T) {
	doc := `{"tasks": {"strength": [{"id": "t1", "title": "Run", "penalty": 5, "cadence": "sometimes", "dueAt": "yesterday-ish"}]}}`
	st, err := DecodeState([]byte(doc), nil, 0)
	require.NoError(t, err)
	task := st.Tasks["strength"][0]
	assert.Nil(t, task.DueAt)
	assert.Equal(t, CadenceNone, task.Cadence)
}

func TestEncodeDecodeKeepsTimes(t *testing.T) {
	st := NewState(nil)
	due := time.Date(2026, 7, 4, 23, 59, 59, 0, time.UTC)
	until := due.Add(-time.Hour)
	st.Tasks["creation"] = []Task{{ID: "t1", Title: "Ship", Cadence: CadenceWeekly, DueAt: &due, LastPenaltyAt: &due}}
	st.Boosts.RecoveryBoostUntil = &until

	b, err := EncodeState(st)
	require.NoError(t, err)
	back, err := DecodeState(b, nil, 0)
	require.NoError(t, err)

	got := back.Tasks["creation"][0]
	require.NotNil(t, got.DueAt)
	require.NotNil(t, got.LastPenaltyAt)
	assert.True(t, got.DueAt.Equal(due))
	assert.True(t, got.LastPenaltyAt.Equal(due))
	require.NotNil(t, back.Boosts.RecoveryBoostUntil)
	assert.True(t, back.Boosts.RecoveryBoostUntil.Equal(until))
}
