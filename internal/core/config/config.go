package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Batch    BatchConfig    `koanf:"batch"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// BatchConfig controls the scheduled statistics batches.
// Cadence definitions (which batch fires when) live in YAML files under
// ScheduleDir; this section only controls the trigger machinery.
type BatchConfig struct {
	Enabled          bool   `koanf:"enabled"`
	ScheduleDir      string `koanf:"schedule_dir"`
	RequireSchedules bool   `koanf:"require_schedules"`
	TickInterval     string `koanf:"tick_interval"` // parsed and validated on startup
	WorkerCount      int    `koanf:"worker_count"`
}

func (c BatchConfig) EffectiveTickInterval() string {
	if c.TickInterval != "" {
		return c.TickInterval
	}
	return "1m"
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if strings.TrimSpace(c.Batch.ScheduleDir) == "" {
		return fmt.Errorf("batch.schedule_dir is required")
	}
	interval, err := time.ParseDuration(c.Batch.EffectiveTickInterval())
	if err != nil {
		return fmt.Errorf("invalid batch.tick_interval %q: %w", c.Batch.EffectiveTickInterval(), err)
	}
	if interval <= 0 {
		return fmt.Errorf("batch.tick_interval must be > 0")
	}
	if c.Batch.WorkerCount <= 0 {
		return fmt.Errorf("batch.worker_count must be > 0")
	}

	return nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             8080,
		"server.host":             "0.0.0.0",
		"server.max_body_size_mb": 1,
		"server.mode":             "release",
		"database.type":           "postgres",
		"database.dsn":            "",
		"database.max_open_conns": 25,
		"database.max_idle_conns": 25,
		"database.auto_migrate":   true,
		"batch.enabled":           true,
		"batch.schedule_dir":      "./config/schedules",
		"batch.require_schedules": true,
		"batch.tick_interval":     "1m",
		"batch.worker_count":      10,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// FLEETSTATS_SERVER__PORT=9090 overrides server.port
	if err := k.Load(env.Provider("FLEETSTATS_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "FLEETSTATS_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
