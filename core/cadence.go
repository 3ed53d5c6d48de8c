package core

import (
	"fmt"
	"strings"
	"time"
)

// Cadence is the recurrence rule for a task's deadline.
type Cadence string

const (
	CadenceNone   Cadence = "none"
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// IsValid reports whether c is one of the known cadences.
func (c Cadence) IsValid() bool {
	switch c {
	case CadenceNone, CadenceDaily, CadenceWeekly:
		return true
	default:
		return false
	}
}

// Recurring reports whether the cadence rolls the deadline forward.
func (c Cadence) Recurring() bool {
	return c == CadenceDaily || c == CadenceWeekly
}

// ParseCadence normalizes user input. The empty string means none.
func ParseCadence(input string) (Cadence, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return CadenceNone, nil
	}
	c := Cadence(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid cadence: %q", input)
	}
	return c, nil
}

// NextDue computes the next deadline for cadence relative to ref, in ref's
// location. The second result is false for cadences without recurrence.
//
// Daily deadlines land on 23:59:59 of ref's day, or of the next day once that
// moment is reached. Weekly deadlines land on 23:59:59.999 seven days out.
// The result is always strictly after ref.
func NextDue(cadence Cadence, ref time.Time) (time.Time, bool) {
	switch cadence {
	case CadenceWeekly:
		d := ref.AddDate(0, 0, 7)
		y, m, day := d.Date()
		return time.Date(y, m, day, 23, 59, 59, 999_000_000, ref.Location()), true
	case CadenceDaily:
		y, m, day := ref.Date()
		today := time.Date(y, m, day, 23, 59, 59, 0, ref.Location())
		if ref.Before(today) {
			return today, true
		}
		return time.Date(y, m, day+1, 23, 59, 59, 0, ref.Location()), true
	default:
		return time.Time{}, false
	}
}

var deadlineLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseDeadline parses a user-supplied one-off deadline. RFC 3339 values keep
// their own offset; the datetime-local forms are read in loc.
func ParseDeadline(input string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, &InvalidDeadlineError{Input: input}
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &InvalidDeadlineError{Input: input}
}

// DayKey formats t as the YYYY-MM-DD date used for completion markers and
// snapshot keys.
func DayKey(t time.Time) string { return t.Format(time.DateOnly) }
