package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"levelup/core"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// KeyPrefix namespaces the document and snapshot keys.
	KeyPrefix string
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		KeyPrefix:    "levelup",
	}
}

// Store implements the engine.Storage interface using Redis as the backend.
// Data structure:
// - {prefix}:state -> JSON document, replaced whole by a single SET
// - {prefix}:snapshots -> hash of day -> JSON document
type Store struct {
	client *redis.Client
	prefix string
}

// New creates a new Redis-backed storage with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client, prefix: prefixOrDefault(config.KeyPrefix)}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client, keyPrefix string) *Store {
	return &Store{client: client, prefix: prefixOrDefault(keyPrefix)}
}

func prefixOrDefault(p string) string {
	if p == "" {
		return "levelup"
	}
	return p
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) stateKey() string     { return s.prefix + ":state" }
func (s *Store) snapshotsKey() string { return s.prefix + ":snapshots" }

// Load reads the document key.
func (s *Store) Load(ctx context.Context) (core.State, error) {
	data, err := s.client.Get(ctx, s.stateKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.State{}, core.ErrNoDocument
		}
		return core.State{}, fmt.Errorf("failed to load state: %w", err)
	}
	st, err := core.DecodeState(data, nil, 0)
	if err != nil {
		return core.State{}, core.WithSource(err, "redis key "+s.stateKey())
	}
	return st, nil
}

// Save replaces the whole document in one SET.
func (s *Store) Save(ctx context.Context, st core.State) error {
	data, err := core.EncodeState(st)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.stateKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// SaveSnapshot stores st under day unless that day already has one.
func (s *Store) SaveSnapshot(ctx context.Context, day string, st core.State) (bool, error) {
	data, err := core.EncodeState(st)
	if err != nil {
		return false, err
	}
	ok, err := s.client.HSetNX(ctx, s.snapshotsKey(), day, data).Result()
	if err != nil {
		return false, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return ok, nil
}

// Snapshots lists snapshot days, newest first.
func (s *Store) Snapshots(ctx context.Context) ([]string, error) {
	days, err := s.client.HKeys(ctx, s.snapshotsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	return days, nil
}

// Snapshot returns the document stored for day.
func (s *Store) Snapshot(ctx context.Context, day string) (core.State, error) {
	data, err := s.client.HGet(ctx, s.snapshotsKey(), day).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return core.State{}, core.ErrSnapshotNotFound
		}
		return core.State{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	st, err := core.DecodeState(data, nil, 0)
	if err != nil {
		return core.State{}, core.WithSource(err, "redis snapshot "+day)
	}
	return st, nil
}
