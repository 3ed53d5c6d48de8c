package analytics

import (
	"testing"
	"time"

	"levelup/core"
)

func TestSummarize(t *testing.T) {
	st := core.NewState([]core.Stat{
		{Key: "a", Label: "A", XP: 250},
		{Key: "b", Label: "B", XP: 0},
		{Key: "c", Label: "C", XP: 99},
	})
	got := Summarize(st)
	if got.TotalXP != 349 {
		t.Fatalf("total = %d", got.TotalXP)
	}
	// levels 3, 1, 1
	if got.AvgLevel != 1.7 {
		t.Fatalf("avg level = %v", got.AvgLevel)
	}
	if got.Stats[0].WithinLevel != 50 || got.Stats[0].ToNext != 50 {
		t.Fatalf("progress = %+v", got.Stats[0])
	}
}

func TestAggregateWeeklyMonthly(t *testing.T) {
	base := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC) // Wednesday
	history := []core.HistoryEntry{
		{TS: base.AddDate(0, 0, 7), Label: "Quest: x", Stat: "wisdom", XP: 20},
		{TS: base.AddDate(0, 0, 2), Label: "Trophy: First Level"},
		{TS: base.AddDate(0, 0, 1), Label: core.PenaltyLabelPrefix + "y", Stat: "strength", XP: -5},
		{TS: base, Label: "Manual +10 XP", Stat: "wisdom", XP: 10},
	}

	weekly, err := Aggregate(history, PeriodWeekly, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(weekly) != 2 {
		t.Fatalf("weeks = %d", len(weekly))
	}
	if weekly[0].Key != "2024-W02" || weekly[1].Key != "2024-W01" {
		t.Fatalf("keys = %s %s", weekly[0].Key, weekly[1].Key)
	}
	w1 := weekly[1]
	if w1.Gained != 10 || w1.Lost != 5 || w1.Penalties != 1 || w1.Trophies != 1 || w1.Entries != 3 {
		t.Fatalf("unexpected week: %+v", w1)
	}
	if !w1.StartTime.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("week start = %v", w1.StartTime)
	}
	if w1.Net() != 5 {
		t.Fatalf("net = %d", w1.Net())
	}

	monthly, err := Aggregate(history, PeriodMonthly, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(monthly) != 1 || monthly[0].Key != "2024-01" || monthly[0].ByStat["wisdom"] != 30 {
		t.Fatalf("unexpected month: %+v", monthly)
	}

	if _, err := Aggregate(history, "hourly", time.UTC); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestCurrentDaily(t *testing.T) {
	loc := time.FixedZone("east", 9*3600)
	now := time.Date(2024, 1, 3, 8, 0, 0, 0, loc)
	history := []core.HistoryEntry{
		// 2024-01-02 23:30 UTC is already the 3rd in loc
		{TS: time.Date(2024, 1, 2, 23, 30, 0, 0, time.UTC), Stat: "wisdom", XP: 15},
		{TS: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), Stat: "wisdom", XP: 40},
	}
	today, err := Current(history, PeriodDaily, now)
	if err != nil {
		t.Fatal(err)
	}
	if today.Key != "2024-01-03" || today.Gained != 15 {
		t.Fatalf("unexpected today: %+v", today)
	}

	empty, err := Current(nil, PeriodDaily, now)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Entries != 0 || empty.Key != "2024-01-03" {
		t.Fatalf("unexpected empty: %+v", empty)
	}
}

func TestAggregateCountsPenaltiesByLabel(t *testing.T) {
	ts := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	history := []core.HistoryEntry{
		// boosted penalty of 1 XP floors to zero
		{TS: ts, Label: core.PenaltyLabelPrefix + "Stretch", Stat: "strength", XP: 0},
		{TS: ts, Label: core.ManualPenaltyLabelPrefix + "Lab", Stat: "creation", XP: -10},
		{TS: ts, Label: "Manual -3 XP", Stat: "wisdom", XP: -3},
	}
	got, err := Aggregate(history, PeriodDaily, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("days = %d", len(got))
	}
	d := got[0]
	if d.Penalties != 2 {
		t.Fatalf("penalties = %d, want 2", d.Penalties)
	}
	if d.Lost != 13 || d.Gained != 0 {
		t.Fatalf("gained=%d lost=%d", d.Gained, d.Lost)
	}
}
