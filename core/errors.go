package core

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound     = errors.New("levelup: task not found")
	ErrQuestNotFound    = errors.New("levelup: quest not found")
	ErrQuestNotDone     = errors.New("levelup: mark the quest as done first")
	ErrAlreadyPenalized = errors.New("levelup: penalty already applied for this deadline")
	ErrNoPenalty        = errors.New("levelup: task has no penalty to apply")
	ErrTaskCompleted    = errors.New("levelup: task is marked done")
	ErrNotOverdue       = errors.New("levelup: task is not overdue yet")
	ErrZeroDelta        = errors.New("delta cannot be zero")
	ErrSnapshotNotFound = errors.New("levelup: snapshot not found")
	ErrNoDocument       = errors.New("levelup: no stored document")
)

// UnknownStatError is returned when a mutation names a stat key that is not
// part of the current stat set.
type UnknownStatError struct {
	Key StatKey
}

func (e *UnknownStatError) Error() string {
	return fmt.Sprintf("unknown stat: %q", e.Key)
}

// InvalidDeadlineError rejects a custom deadline that does not parse.
type InvalidDeadlineError struct {
	Input string
}

func (e *InvalidDeadlineError) Error() string {
	return fmt.Sprintf("invalid custom deadline: %q", e.Input)
}

// MalformedStoreError means a persisted document could not be decoded.
type MalformedStoreError struct {
	Source string
	Err    error
}

func (e *MalformedStoreError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("malformed document: %v", e.Err)
	}
	return fmt.Sprintf("malformed document in %s: %v", e.Source, e.Err)
}

func (e *MalformedStoreError) Unwrap() error { return e.Err }

// IsMalformed reports whether err wraps a *MalformedStoreError.
func IsMalformed(err error) bool {
	var m *MalformedStoreError
	return errors.As(err, &m)
}

// WithSource labels a *MalformedStoreError with where the bytes came from.
// Other errors pass through unchanged.
func WithSource(err error, source string) error {
	var m *MalformedStoreError
	if errors.As(err, &m) {
		m.Source = source
	}
	return err
}
