package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate validates engine configuration
func (e *EngineConfig) Validate() error {
	var errs []string

	if e.PenaltyInterval <= 0 {
		errs = append(errs, "penalty_interval must be positive")
	}

	if e.TrophyInterval <= 0 {
		errs = append(errs, "trophy_interval must be positive")
	}

	if e.DedupWindow <= 0 {
		errs = append(errs, "dedup_window must be positive")
	}

	if e.RecoveryBoost < 0 {
		errs = append(errs, "recovery_boost cannot be negative")
	}

	if e.HistoryLimit <= 0 {
		errs = append(errs, "history_limit must be positive")
	}

	if _, err := e.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("timezone: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	var errs []string

	validAdapters := []string{"memory", "file", "redis", "sqlite"}
	isValidAdapter := false
	for _, adapter := range validAdapters {
		if s.Adapter == adapter {
			isValidAdapter = true
			break
		}
	}

	if !isValidAdapter {
		errs = append(errs, fmt.Sprintf("adapter must be one of: %s", strings.Join(validAdapters, ", ")))
	}

	// Validate adapter-specific configs
	switch s.Adapter {
	case "file":
		if err := s.File.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("file config: %v", err))
		}
	case "sqlite":
		if err := s.SQLite.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("sqlite config: %v", err))
		}
	case "redis":
		if err := s.Redis.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("redis config: %v", err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate validates file storage configuration
func (f *FileConfig) Validate() error {
	if f.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates SQLite storage configuration
func (s *SQLiteConfig) Validate() error {
	if s.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates Redis configuration
func (r *RedisConfig) Validate() error {
	var errs []string

	if r.Addr == "" {
		errs = append(errs, "addr cannot be empty")
	}

	if r.DB < 0 {
		errs = append(errs, "db cannot be negative")
	}

	if r.PoolSize <= 0 {
		errs = append(errs, "pool_size must be positive")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string

	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if l.Level == level {
			isValidLevel = true
			break
		}
	}

	if !isValidLevel {
		errs = append(errs, fmt.Sprintf("level must be one of: %s", strings.Join(validLevels, ", ")))
	}

	validFormats := []string{"json", "text"}
	isValidFormat := false
	for _, format := range validFormats {
		if l.Format == format {
			isValidFormat = true
			break
		}
	}

	if !isValidFormat {
		errs = append(errs, fmt.Sprintf("format must be one of: %s", strings.Join(validFormats, ", ")))
	}

	validOutputs := []string{"stdout", "stderr"}
	isValidOutput := false
	for _, output := range validOutputs {
		if l.Output == output {
			isValidOutput = true
			break
		}
	}

	if !isValidOutput {
		errs = append(errs, fmt.Sprintf("output must be one of: %s", strings.Join(validOutputs, ", ")))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}
