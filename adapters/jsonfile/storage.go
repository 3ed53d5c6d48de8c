package jsonfile

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"levelup/core"
)

// Store persists the whole document to a single JSON file. Snapshots live in
// a sibling file so the document keeps the shape other tools expect.
type Store struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
	// hash of the last bytes this store wrote, to tell our writes from others
	written [sha256.Size]byte
}

// New opens a store on the OS filesystem.
func New(path string) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), path)
}

// NewWithFs opens a store on any afero filesystem; tests use afero.NewMemMapFs.
func NewWithFs(fsys afero.Fs, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	return &Store{fs: fsys, path: filepath.Clean(path)}, nil
}

// Path returns the document file location.
func (s *Store) Path() string { return s.path }

func (s *Store) snapshotPath() string {
	ext := filepath.Ext(s.path)
	return strings.TrimSuffix(s.path, ext) + ".snapshots" + ext
}

func (s *Store) Load(_ context.Context) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.State{}, core.ErrNoDocument
		}
		return core.State{}, err
	}
	st, err := core.DecodeState(b, nil, 0)
	if err != nil {
		return core.State{}, core.WithSource(err, s.path)
	}
	return st, nil
}

func (s *Store) Save(_ context.Context, st core.State) error {
	b, err := core.EncodeState(st)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(s.path, b); err != nil {
		return err
	}
	s.written = sha256.Sum256(b)
	return nil
}

func (s *Store) persist(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(s.fs, tmp, b, 0o644); err != nil {
		return err
	}
	return s.fs.Rename(tmp, path)
}

func (s *Store) readSnapshots() (map[string]json.RawMessage, error) {
	snaps := map[string]json.RawMessage{}
	b, err := afero.ReadFile(s.fs, s.snapshotPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snaps, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return snaps, nil
	}
	if err := json.Unmarshal(b, &snaps); err != nil {
		return nil, &core.MalformedStoreError{Source: s.snapshotPath(), Err: err}
	}
	return snaps, nil
}

func (s *Store) SaveSnapshot(_ context.Context, day string, st core.State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps, err := s.readSnapshots()
	if err != nil {
		return false, err
	}
	if _, ok := snaps[day]; ok {
		return false, nil
	}
	doc, err := json.Marshal(st)
	if err != nil {
		return false, err
	}
	snaps[day] = doc
	b, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return false, err
	}
	if err := s.persist(s.snapshotPath(), b); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Snapshots(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps, err := s.readSnapshots()
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, len(snaps))
	for d := range snaps {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

func (s *Store) Snapshot(_ context.Context, day string) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps, err := s.readSnapshots()
	if err != nil {
		return core.State{}, err
	}
	raw, ok := snaps[day]
	if !ok {
		return core.State{}, core.ErrSnapshotNotFound
	}
	st, err := core.DecodeState(raw, nil, 0)
	if err != nil {
		return core.State{}, core.WithSource(err, s.snapshotPath()+"#"+day)
	}
	return st, nil
}

// changedExternally reports whether the file on disk differs from what this
// store last wrote.
func (s *Store) changedExternally() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return true
	}
	return sha256.Sum256(b) != s.written
}

// Watch calls onChange whenever another process rewrites the document file,
// until ctx is done. Writes made through this Store are ignored. Only changes
// on the real filesystem are observed.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	// The directory is watched because tmp+rename replaces the file inode.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if s.changedExternally() {
					onChange()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
