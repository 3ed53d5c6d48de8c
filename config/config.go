package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"levelup/adapters/redis"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration
type Config struct {
	Environment Environment `json:"environment" yaml:"environment" env:"LEVELUP_ENV"`
	Profile     string      `json:"profile" yaml:"profile" env:"LEVELUP_PROFILE"`

	// Sweep timing and document limits
	Engine EngineConfig `json:"engine" yaml:"engine"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// EngineConfig tunes the penalty and trophy engines and the scheduler.
type EngineConfig struct {
	PenaltyInterval time.Duration `json:"penalty_interval" yaml:"penalty_interval" env:"LEVELUP_ENGINE_PENALTY_INTERVAL"`
	TrophyInterval  time.Duration `json:"trophy_interval" yaml:"trophy_interval" env:"LEVELUP_ENGINE_TROPHY_INTERVAL"`
	DedupWindow     time.Duration `json:"dedup_window" yaml:"dedup_window" env:"LEVELUP_ENGINE_DEDUP_WINDOW"`
	RecoveryBoost   time.Duration `json:"recovery_boost" yaml:"recovery_boost" env:"LEVELUP_ENGINE_RECOVERY_BOOST"`
	HistoryLimit    int           `json:"history_limit" yaml:"history_limit" env:"LEVELUP_ENGINE_HISTORY_LIMIT"`
	// Timezone is an IANA name; "Local" uses the host zone.
	Timezone      string `json:"timezone" yaml:"timezone" env:"LEVELUP_ENGINE_TIMEZONE"`
	AsyncDispatch bool   `json:"async_dispatch" yaml:"async_dispatch" env:"LEVELUP_ENGINE_ASYNC_DISPATCH"`
}

// Location resolves Timezone.
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" || e.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(e.Timezone)
}

// StorageConfig holds storage adapter configuration
type StorageConfig struct {
	Adapter string       `json:"adapter" yaml:"adapter" env:"LEVELUP_STORAGE_ADAPTER"`
	Redis   RedisConfig  `json:"redis,omitempty" yaml:"redis,omitempty"`
	SQLite  SQLiteConfig `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	File    FileConfig   `json:"file,omitempty" yaml:"file,omitempty"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr" env:"LEVELUP_REDIS_ADDR"`
	Password     string        `json:"password,omitempty" yaml:"password,omitempty" env:"LEVELUP_REDIS_PASSWORD"`
	DB           int           `json:"db" yaml:"db" env:"LEVELUP_REDIS_DB"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size" env:"LEVELUP_REDIS_POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns" env:"LEVELUP_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout" env:"LEVELUP_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" env:"LEVELUP_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" env:"LEVELUP_REDIS_WRITE_TIMEOUT"`
	KeyPrefix    string        `json:"key_prefix" yaml:"key_prefix" env:"LEVELUP_REDIS_KEY_PREFIX"`
}

// Adapter converts to the redis adapter's config.
func (r RedisConfig) Adapter() redis.Config {
	return redis.Config{
		Addr:         r.Addr,
		Password:     r.Password,
		DB:           r.DB,
		PoolSize:     r.PoolSize,
		MinIdleConns: r.MinIdleConns,
		DialTimeout:  r.DialTimeout,
		ReadTimeout:  r.ReadTimeout,
		WriteTimeout: r.WriteTimeout,
		KeyPrefix:    r.KeyPrefix,
	}
}

func defaultRedisConfig() RedisConfig {
	d := redis.DefaultConfig()
	return RedisConfig{
		Addr:         d.Addr,
		DB:           d.DB,
		PoolSize:     d.PoolSize,
		MinIdleConns: d.MinIdleConns,
		DialTimeout:  d.DialTimeout,
		ReadTimeout:  d.ReadTimeout,
		WriteTimeout: d.WriteTimeout,
		KeyPrefix:    d.KeyPrefix,
	}
}

// SQLiteConfig holds SQLite storage configuration
type SQLiteConfig struct {
	Path string `json:"path" yaml:"path" env:"LEVELUP_STORAGE_SQLITE_PATH"`
}

// FileConfig holds JSON file storage configuration
type FileConfig struct {
	Path string `json:"path" yaml:"path" env:"LEVELUP_STORAGE_FILE_PATH"`
	// Watch triggers a sweep when another process rewrites the file.
	Watch bool `json:"watch" yaml:"watch" env:"LEVELUP_STORAGE_FILE_WATCH"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" yaml:"level" env:"LEVELUP_LOG_LEVEL"`
	Format     string            `json:"format" yaml:"format" env:"LEVELUP_LOG_FORMAT"`
	Output     string            `json:"output" yaml:"output" env:"LEVELUP_LOG_OUTPUT"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" env:"LEVELUP_LOG_ATTRIBUTES"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// Load from environment variables
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var configExtensions = []string{".json", ".yaml", ".yml"}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(cleanPath))
	known := false
	for _, e := range configExtensions {
		if ext == e {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("config file must have one of the extensions: %s", strings.Join(configExtensions, ", "))
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file. Environment
// variables override file values.
func LoadFromFile(path string) (*Config, error) {
	// Validate the path for security
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	// Open the file safely after validation
	file, err := os.Open(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Environment variables override file values
	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Engine: EngineConfig{
			PenaltyInterval: 60 * time.Second,
			TrophyInterval:  10 * time.Second,
			DedupWindow:     time.Minute,
			RecoveryBoost:   24 * time.Hour,
			HistoryLimit:    200,
			Timezone:        "Local",
		},
		Storage: StorageConfig{
			Adapter: "file",
			Redis:   defaultRedisConfig(),
			SQLite: SQLiteConfig{
				Path: "./data/levelup.db",
			},
			File: FileConfig{
				Path:  "./data/levelup.json",
				Watch: true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	// Validate environment
	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("engine config: %v", err))
	}

	// Validate storage config
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	// Validate logging config
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	// Create a copy for redaction
	cfg := *c

	// Redact sensitive information
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
