package memory

import (
	"context"
	"sort"
	"sync"

	"levelup/core"
)

// Store is a concurrent in-memory Storage implementation. The document is kept
// encoded so every Load hands out an independent copy, just like a real store.
type Store struct {
	mu        sync.Mutex
	doc       []byte
	snapshots map[string][]byte
}

func New() *Store { return &Store{snapshots: map[string][]byte{}} }

func (s *Store) Load(_ context.Context) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return core.State{}, core.ErrNoDocument
	}
	return decode(s.doc, "memory")
}

func (s *Store) Save(_ context.Context, st core.State) error {
	b, err := core.EncodeState(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = b
	return nil
}

// SetRaw replaces the stored bytes as an external writer would.
func (s *Store) SetRaw(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = append([]byte(nil), b...)
}

func (s *Store) SaveSnapshot(_ context.Context, day string, st core.State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[day]; ok {
		return false, nil
	}
	b, err := core.EncodeState(st)
	if err != nil {
		return false, err
	}
	s.snapshots[day] = b
	return true, nil
}

func (s *Store) Snapshots(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days := make([]string, 0, len(s.snapshots))
	for d := range s.snapshots {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

func (s *Store) Snapshot(_ context.Context, day string) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.snapshots[day]
	if !ok {
		return core.State{}, core.ErrSnapshotNotFound
	}
	return decode(b, "memory snapshot "+day)
}

func decode(b []byte, source string) (core.State, error) {
	st, err := core.DecodeState(b, nil, 0)
	if err != nil {
		return core.State{}, core.WithSource(err, source)
	}
	return st, nil
}

var _ interface {
	Load(context.Context) (core.State, error)
	Save(context.Context, core.State) error
	SaveSnapshot(context.Context, string, core.State) (bool, error)
	Snapshots(context.Context) ([]string, error)
	Snapshot(context.Context, string) (core.State, error)
} = (*Store)(nil)
