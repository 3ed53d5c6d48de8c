package engine

import (
	"context"

	"levelup/core"
)

// Storage persists the single tracker document. Load and Save move the whole
// document as one unit; there is no partial update.
type Storage interface {
	// Load returns the stored document. A store with no document returns
	// core.ErrNoDocument; unparseable content returns *core.MalformedStoreError.
	Load(ctx context.Context) (core.State, error)
	Save(ctx context.Context, state core.State) error

	// SaveSnapshot stores state under day unless a snapshot for that day
	// already exists. It reports whether a snapshot was written.
	SaveSnapshot(ctx context.Context, day string, state core.State) (bool, error)
	// Snapshots lists snapshot days, newest first.
	Snapshots(ctx context.Context) ([]string, error)
	// Snapshot returns the document stored for day or core.ErrSnapshotNotFound.
	Snapshot(ctx context.Context, day string) (core.State, error)
}
