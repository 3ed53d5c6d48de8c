package config

import (
	"fmt"
	"time"
)

// LoadProfile returns the defaults for a named profile with environment
// overrides applied.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	switch name {
	case "development", "default":
		cfg.Logging.Level = "debug"
	case "testing":
		cfg.Environment = EnvTesting
		cfg.Storage.Adapter = "memory"
		cfg.Storage.File.Watch = false
		cfg.Engine.PenaltyInterval = time.Second
		cfg.Engine.TrophyInterval = time.Second
		cfg.Logging.Level = "warn"
	case "production":
		cfg.Environment = EnvProduction
		cfg.Storage.Adapter = "sqlite"
		cfg.Logging.Format = "json"
		cfg.Engine.AsyncDispatch = true
	default:
		return nil, fmt.Errorf("unknown profile: %q", name)
	}
	cfg.Profile = name

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
