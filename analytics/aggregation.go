package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"levelup/core"
)

// AggregationPeriod represents different time periods for aggregation
type AggregationPeriod string

const (
	PeriodDaily   AggregationPeriod = "daily"
	PeriodWeekly  AggregationPeriod = "weekly"
	PeriodMonthly AggregationPeriod = "monthly"
)

// AggregatedData sums history entries falling in one period.
type AggregatedData struct {
	Period    AggregationPeriod `json:"period"`
	Key       string            `json:"key"` // e.g., "2024-01-01" for daily, "2024-W01" for weekly
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`

	Gained    int64                  `json:"gained"`
	Lost      int64                  `json:"lost"`
	ByStat    map[core.StatKey]int64 `json:"by_stat"`
	Penalties int                    `json:"penalties"`
	Trophies  int                    `json:"trophies"`
	Entries   int                    `json:"entries"`
}

// Net is gained minus lost.
func (a AggregatedData) Net() int64 { return a.Gained - a.Lost }

// StatProgress is the per-stat dashboard line.
type StatProgress struct {
	Key         core.StatKey `json:"key"`
	Label       string       `json:"label"`
	XP          int64        `json:"xp"`
	Level       int64        `json:"level"`
	WithinLevel int64        `json:"within_level"`
	ToNext      int64        `json:"to_next"`
}

// Totals is the dashboard headline.
type Totals struct {
	TotalXP  int64          `json:"total_xp"`
	AvgLevel float64        `json:"avg_level"`
	Stats    []StatProgress `json:"stats"`
}

// Summarize computes total XP, the average level rounded to one decimal and
// per-stat progress.
func Summarize(st core.State) Totals {
	t := Totals{TotalXP: st.TotalXP(), Stats: make([]StatProgress, 0, len(st.Stats))}
	var levels int64
	for _, s := range st.Stats {
		within := core.ProgressWithinLevel(s.XP)
		t.Stats = append(t.Stats, StatProgress{
			Key:         s.Key,
			Label:       s.Label,
			XP:          s.XP,
			Level:       s.Level(),
			WithinLevel: within,
			ToNext:      core.LevelSize - within,
		})
		levels += s.Level()
	}
	if len(st.Stats) > 0 {
		t.AvgLevel = math.Round(float64(levels)/float64(len(st.Stats))*10) / 10
	}
	return t
}

// periodBounds returns the key and [start, end) of the period containing ts
// in loc. Weeks start on Monday and use ISO week numbering.
func periodBounds(period AggregationPeriod, ts time.Time, loc *time.Location) (string, time.Time, time.Time, error) {
	ts = ts.In(loc)
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc)
	switch period {
	case PeriodDaily:
		return day.Format("2006-01-02"), day, day.AddDate(0, 0, 1), nil
	case PeriodWeekly:
		year, week := ts.ISOWeek()
		daysSinceMonday := (int(ts.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -daysSinceMonday)
		return fmt.Sprintf("%d-W%02d", year, week), start, start.AddDate(0, 0, 7), nil
	case PeriodMonthly:
		start := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, loc)
		return start.Format("2006-01"), start, start.AddDate(0, 1, 0), nil
	default:
		return "", time.Time{}, time.Time{}, fmt.Errorf("unknown aggregation period: %q", period)
	}
}

// Aggregate buckets history entries by period in loc, newest period first.
// Entries without a stat (trophy unlocks) count towards Trophies only.
// Penalties are counted by their history label, so a fully boosted penalty
// of zero XP still counts.
func Aggregate(history []core.HistoryEntry, period AggregationPeriod, loc *time.Location) ([]AggregatedData, error) {
	if loc == nil {
		loc = time.Local
	}
	buckets := map[string]*AggregatedData{}
	for _, h := range history {
		key, start, end, err := periodBounds(period, h.TS, loc)
		if err != nil {
			return nil, err
		}
		data, ok := buckets[key]
		if !ok {
			data = &AggregatedData{Period: period, Key: key, StartTime: start, EndTime: end, ByStat: map[core.StatKey]int64{}}
			buckets[key] = data
		}
		data.Entries++
		if h.Stat == "" {
			data.Trophies++
			continue
		}
		if h.IsPenalty() {
			data.Penalties++
		}
		if h.XP >= 0 {
			data.Gained += h.XP
		} else {
			data.Lost -= h.XP
		}
		data.ByStat[h.Stat] += h.XP
	}

	out := make([]AggregatedData, 0, len(buckets))
	for _, d := range buckets {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

// Current returns the aggregate for the period containing now, which is empty
// when no history falls in it.
func Current(history []core.HistoryEntry, period AggregationPeriod, now time.Time) (AggregatedData, error) {
	key, start, end, err := periodBounds(period, now, now.Location())
	if err != nil {
		return AggregatedData{}, err
	}
	all, err := Aggregate(history, period, now.Location())
	if err != nil {
		return AggregatedData{}, err
	}
	for _, d := range all {
		if d.Key == key {
			return d, nil
		}
	}
	return AggregatedData{Period: period, Key: key, StartTime: start, EndTime: end, ByStat: map[core.StatKey]int64{}}, nil
}
