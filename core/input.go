package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TaskInput carries user-entered task fields. Deadline, when set, is a custom
// one-off or first deadline and overrides the cadence-derived one.
type TaskInput struct {
	Title     string  `json:"title" validate:"required,max=255"`
	RewardXP  int64   `json:"reward" validate:"gte=0"`
	PenaltyXP int64   `json:"penalty" validate:"gte=0"`
	Cadence   Cadence `json:"cadence" validate:"omitempty,oneof=none daily weekly"`
	Deadline  string  `json:"deadline,omitempty"`
}

// QuestInput carries user-entered quest fields.
type QuestInput struct {
	Title string  `json:"title" validate:"required,max=255"`
	Stat  StatKey `json:"stat" validate:"required"`
	XP    int64   `json:"xp" validate:"gte=0"`
}

var validate = validator.New()

// ValidateStruct runs the struct tag rules and flattens failures into one error.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", e.Field(), e.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// NewID returns a fresh random identifier for tasks and quests.
func NewID() string { return uuid.NewString() }

// BuildTask validates in and produces a new task. Without a custom deadline the
// first due date comes from NextDue(cadence, now); cadence none without a
// deadline yields a task that never becomes overdue.
func BuildTask(in TaskInput, now time.Time) (Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Cadence == "" {
		in.Cadence = CadenceNone
	}
	if err := ValidateStruct(in); err != nil {
		return Task{}, err
	}
	t := Task{
		ID:        NewID(),
		Title:     in.Title,
		RewardXP:  in.RewardXP,
		PenaltyXP: in.PenaltyXP,
		Cadence:   in.Cadence,
	}
	due, custom, err := resolveDeadline(in, now)
	if err != nil {
		return Task{}, err
	}
	t.DueAt = due
	t.CustomDue = custom
	return t, nil
}

// BuildQuest validates in and produces a new, not yet done quest.
func BuildQuest(in QuestInput) (Quest, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := ValidateStruct(in); err != nil {
		return Quest{}, err
	}
	return Quest{ID: NewID(), Title: in.Title, Stat: in.Stat, XP: in.XP}, nil
}

func resolveDeadline(in TaskInput, now time.Time) (*time.Time, bool, error) {
	if strings.TrimSpace(in.Deadline) != "" {
		d, err := ParseDeadline(in.Deadline, now.Location())
		if err != nil {
			return nil, false, err
		}
		return &d, true, nil
	}
	if d, ok := NextDue(in.Cadence, now); ok {
		return &d, false, nil
	}
	return nil, false, nil
}
