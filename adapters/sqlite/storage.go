package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"levelup/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS document (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	body TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	day TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	created_at TEXT NOT NULL
);`

// Store keeps the document as a single row and daily snapshots in their own
// table. The document is always written whole in one statement.
type Store struct {
	db *sqlx.DB
}

// New opens (creating if needed) the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection. The schema is not applied.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they don't exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Load(ctx context.Context) (core.State, error) {
	var body string
	err := s.db.GetContext(ctx, &body, `SELECT body FROM document WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.State{}, core.ErrNoDocument
		}
		return core.State{}, fmt.Errorf("load document: %w", err)
	}
	st, err := core.DecodeState([]byte(body), nil, 0)
	if err != nil {
		return core.State{}, core.WithSource(err, "sqlite document")
	}
	return st, nil
}

func (s *Store) Save(ctx context.Context, st core.State) error {
	b, err := core.EncodeState(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO document (id, body, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(b), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *Store) SaveSnapshot(ctx context.Context, day string, st core.State) (bool, error) {
	b, err := core.EncodeState(st)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO snapshots (day, body, created_at) VALUES (?, ?, ?)`,
		day, string(b), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) Snapshots(ctx context.Context) ([]string, error) {
	days := []string{}
	if err := s.db.SelectContext(ctx, &days, `SELECT day FROM snapshots ORDER BY day DESC`); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return days, nil
}

func (s *Store) Snapshot(ctx context.Context, day string) (core.State, error) {
	var body string
	err := s.db.GetContext(ctx, &body, `SELECT body FROM snapshots WHERE day = ?`, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.State{}, core.ErrSnapshotNotFound
		}
		return core.State{}, fmt.Errorf("load snapshot: %w", err)
	}
	st, err := core.DecodeState([]byte(body), nil, 0)
	if err != nil {
		return core.State{}, core.WithSource(err, "sqlite snapshot "+day)
	}
	return st, nil
}
