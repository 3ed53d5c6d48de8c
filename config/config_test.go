package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Test loading default config
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify defaults
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, "file", cfg.Storage.Adapter)
	assert.Equal(t, 60*time.Second, cfg.Engine.PenaltyInterval)
	assert.Equal(t, 10*time.Second, cfg.Engine.TrophyInterval)
	assert.Equal(t, time.Minute, cfg.Engine.DedupWindow)
	assert.Equal(t, 200, cfg.Engine.HistoryLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEVELUP_STORAGE_ADAPTER", "sqlite")
	t.Setenv("LEVELUP_STORAGE_SQLITE_PATH", "/tmp/x.db")
	t.Setenv("LEVELUP_ENGINE_PENALTY_INTERVAL", "30s")
	t.Setenv("LEVELUP_ENGINE_HISTORY_LIMIT", "50")
	t.Setenv("LEVELUP_STORAGE_FILE_WATCH", "false")
	t.Setenv("LEVELUP_LOG_ATTRIBUTES", "service=levelupd,host=box")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Storage.Adapter)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.SQLite.Path)
	assert.Equal(t, 30*time.Second, cfg.Engine.PenaltyInterval)
	assert.Equal(t, 50, cfg.Engine.HistoryLimit)
	assert.False(t, cfg.Storage.File.Watch)
	assert.Equal(t, map[string]string{"service": "levelupd", "host": "box"}, cfg.Logging.Attributes)
}

func TestLoadEnvInvalid(t *testing.T) {
	t.Setenv("LEVELUP_ENGINE_DEDUP_WINDOW", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEVELUP_ENGINE_DEDUP_WINDOW")
}

func TestLoadFromLookup(t *testing.T) {
	env := map[string]string{"LEVELUP_REDIS_ADDR": "redis:6380", "LEVELUP_REDIS_DB": "2"}
	cfg := DefaultConfig()
	require.NoError(t, loadFromLookup(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	assert.Equal(t, "redis:6380", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, "redis:6380", cfg.Storage.Redis.Adapter().Addr)
}

func TestLoadFromFile(t *testing.T) {
	configContent := `{
		"environment": "testing",
		"storage": {
			"adapter": "memory"
		},
		"engine": {
			"history_limit": 25
		}
	}`

	path := filepath.Join(t.TempDir(), "levelup.json")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, 25, cfg.Engine.HistoryLimit)
	// untouched keys keep their defaults
	assert.Equal(t, 60*time.Second, cfg.Engine.PenaltyInterval)
}

func TestLoadFromYAMLFile(t *testing.T) {
	configContent := `
environment: production
engine:
  penalty_interval: 2m
  timezone: UTC
storage:
  adapter: redis
  redis:
    addr: cache:6379
    pool_size: 4
logging:
  format: json
`
	path := filepath.Join(t.TempDir(), "levelup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configContent), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, 2*time.Minute, cfg.Engine.PenaltyInterval)
	assert.Equal(t, "redis", cfg.Storage.Adapter)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 4, cfg.Storage.Redis.PoolSize)
	assert.Equal(t, "json", cfg.Logging.Format)

	loc, err := cfg.Engine.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadFromFileEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levelup.yml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  adapter: memory\n"), 0o644))
	t.Setenv("LEVELUP_STORAGE_ADAPTER", "file")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Adapter)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid config", func(*Config) {}, false},
		{"invalid environment", func(c *Config) { c.Environment = "" }, true},
		{"zero penalty interval", func(c *Config) { c.Engine.PenaltyInterval = 0 }, true},
		{"zero history limit", func(c *Config) { c.Engine.HistoryLimit = 0 }, true},
		{"unknown timezone", func(c *Config) { c.Engine.Timezone = "Mars/Olympus" }, true},
		{"unknown adapter", func(c *Config) { c.Storage.Adapter = "postgres" }, true},
		{"file without path", func(c *Config) { c.Storage.File.Path = "" }, true},
		{"sqlite without path", func(c *Config) { c.Storage.Adapter = "sqlite"; c.Storage.SQLite.Path = "" }, true},
		{"redis without addr", func(c *Config) { c.Storage.Adapter = "redis"; c.Storage.Redis.Addr = "" }, true},
		{"memory ignores file path", func(c *Config) { c.Storage.Adapter = "memory"; c.Storage.File.Path = "" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, true},
		{"bad log output", func(c *Config) { c.Logging.Output = "file" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfiles(t *testing.T) {
	tests := []struct {
		name         string
		profileName  string
		expectConfig bool
		environment  Environment
		adapter      string
	}{
		{"development", "development", true, EnvDevelopment, "file"},
		{"testing", "testing", true, EnvTesting, "memory"},
		{"production", "production", true, EnvProduction, "sqlite"},
		{"unknown", "unknown", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadProfile(tt.profileName)
			if tt.expectConfig {
				require.NoError(t, err)
				require.NotNil(t, cfg)
				assert.Equal(t, tt.environment, cfg.Environment)
				assert.Equal(t, tt.adapter, cfg.Storage.Adapter)
				assert.Equal(t, tt.profileName, cfg.Profile)
			} else {
				assert.Error(t, err)
				assert.Nil(t, cfg)
			}
		})
	}
}

func TestStringRedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Redis.Password = "hunter2"
	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "[REDACTED]")
	assert.Equal(t, "hunter2", cfg.Storage.Redis.Password)
}

func TestValidateConfigPath(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
		return p
	}

	tests := []struct {
		name        string
		path        string
		expectError bool
	}{
		{"valid json file", write("a.json"), false},
		{"valid yaml file", write("a.yaml"), false},
		{"valid yml file", write("a.yml"), false},
		{"empty path", "", true},
		{"path traversal", "../../../etc/passwd", true},
		{"non-config file", write("a.txt"), true},
		{"nonexistent file", filepath.Join(dir, "missing.json"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
