package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"levelup/core"
)

func TestStorePersistAndLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	path := "/data/levelup.json"

	store, err := NewWithFs(fsys, path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, core.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}

	st := core.NewState(nil)
	st.Stat("wisdom").XP = 50
	due := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)
	st.Tasks["wisdom"] = []core.Task{{ID: "t1", Title: "Reflect", Cadence: core.CadenceDaily, DueAt: &due, PenaltyXP: 5}}
	if err := store.Save(context.Background(), st); err != nil {
		t.Fatalf("save: %v", err)
	}

	// ensure file written and tmp file gone
	if ok, _ := afero.Exists(fsys, path); !ok {
		t.Fatalf("expected file at %s", path)
	}
	if ok, _ := afero.Exists(fsys, path+".tmp"); ok {
		t.Fatalf("tmp file left behind")
	}

	// reload through a fresh store
	reloaded, _ := NewWithFs(fsys, path)
	state, err := reloaded.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if state.Stat("wisdom").XP != 50 {
		t.Fatalf("expected xp 50, got %d", state.Stat("wisdom").XP)
	}
	tasks := state.Tasks["wisdom"]
	if len(tasks) != 1 || !tasks[0].DueAt.Equal(due) {
		t.Fatalf("task not round-tripped: %+v", tasks)
	}
}

func TestStoreMalformedFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	_ = afero.WriteFile(fsys, "/levelup.json", []byte("{broken"), 0o644)
	store, _ := NewWithFs(fsys, "/levelup.json")

	_, err := store.Load(context.Background())
	var m *core.MalformedStoreError
	if !errors.As(err, &m) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if m.Source != "/levelup.json" {
		t.Fatalf("source = %q", m.Source)
	}
}

func TestStoreSnapshots(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	store, _ := NewWithFs(fsys, "/data/levelup.json")

	first := core.NewState(nil)
	first.Stat("strength").XP = 10
	if ok, err := store.SaveSnapshot(ctx, "2024-03-10", first); err != nil || !ok {
		t.Fatalf("snapshot: %v %v", ok, err)
	}
	second := core.NewState(nil)
	second.Stat("strength").XP = 99
	if ok, err := store.SaveSnapshot(ctx, "2024-03-10", second); err != nil || ok {
		t.Fatalf("second snapshot same day should be skipped: %v %v", ok, err)
	}
	if _, err := store.SaveSnapshot(ctx, "2024-03-11", second); err != nil {
		t.Fatal(err)
	}
	if ok, _ := afero.Exists(fsys, "/data/levelup.snapshots.json"); !ok {
		t.Fatal("snapshot file missing")
	}

	days, err := store.Snapshots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 || days[0] != "2024-03-11" || days[1] != "2024-03-10" {
		t.Fatalf("days = %v", days)
	}
	snap, err := store.Snapshot(ctx, "2024-03-10")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Stat("strength").XP != 10 {
		t.Fatalf("snapshot xp = %d", snap.Stat("strength").XP)
	}
	if _, err := store.Snapshot(ctx, "2020-01-01"); !errors.Is(err, core.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestWatchReportsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "levelup.json")
	store, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 8)
	if err := store.Watch(ctx, func() { changes <- struct{}{} }); err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Our own save must not be reported.
	if err := store.Save(ctx, core.NewState(nil)); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
		t.Fatal("own write reported as external")
	case <-time.After(150 * time.Millisecond):
	}

	if err := os.WriteFile(path, []byte(`{"stats":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("external write not reported")
	}
}
