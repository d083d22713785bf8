package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	v1 "github.com/powergrid-labs/gridtrack/internal/api/v1"
)

// Config represents the top-level application config.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Validation ValidationConfig `koanf:"validation"`
	Broadcast  BroadcastConfig  `koanf:"broadcast"`
	Files      FilesConfig      `koanf:"files"`
	Reporting  ReportingConfig  `koanf:"reporting"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// ValidationConfig bounds the event dates accepted at write time.
type ValidationConfig struct {
	WindowStart string `koanf:"window_start"`
	WindowEnd   string `koanf:"window_end"`
}

type BroadcastConfig struct {
	Debounce          string `koanf:"debounce"`           // duration, e.g. "100ms"
	HeartbeatInterval string `koanf:"heartbeat_interval"` // duration, e.g. "15s"
	SubscriberTimeout string `koanf:"subscriber_timeout"` // duration, e.g. "60s"
	BufferSize        int    `koanf:"buffer_size"`
	QueueSize         int    `koanf:"queue_size"`
}

type FilesConfig struct {
	Dir string `koanf:"dir"`
}

type ReportingConfig struct {
	PresetDir string `koanf:"preset_dir"`
}

// Window parses the configured acceptance window.
func (c ValidationConfig) Window() (v1.DateWindow, error) {
	start, err := time.Parse(v1.DateLayout, c.WindowStart)
	if err != nil {
		return v1.DateWindow{}, fmt.Errorf("invalid validation.window_start %q: %w", c.WindowStart, err)
	}
	end, err := time.Parse(v1.DateLayout, c.WindowEnd)
	if err != nil {
		return v1.DateWindow{}, fmt.Errorf("invalid validation.window_end %q: %w", c.WindowEnd, err)
	}
	if end.Before(start) {
		return v1.DateWindow{}, fmt.Errorf("validation.window_end %q is before window_start %q", c.WindowEnd, c.WindowStart)
	}
	return v1.DateWindow{Start: start, End: end}, nil
}

func (c BroadcastConfig) durations() (debounce, heartbeat, timeout time.Duration, err error) {
	if debounce, err = time.ParseDuration(c.Debounce); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid broadcast.debounce %q: %w", c.Debounce, err)
	}
	if heartbeat, err = time.ParseDuration(c.HeartbeatInterval); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid broadcast.heartbeat_interval %q: %w", c.HeartbeatInterval, err)
	}
	if timeout, err = time.ParseDuration(c.SubscriberTimeout); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid broadcast.subscriber_timeout %q: %w", c.SubscriberTimeout, err)
	}
	return debounce, heartbeat, timeout, nil
}

// DebounceDuration returns the parsed debounce delay. Validate must have
// passed.
func (c BroadcastConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Debounce)
	return d
}

// HeartbeatDuration returns the parsed heartbeat interval.
func (c BroadcastConfig) HeartbeatDuration() time.Duration {
	d, _ := time.ParseDuration(c.HeartbeatInterval)
	return d
}

// SubscriberTimeoutDuration returns the parsed per-subscriber lifetime bound.
func (c BroadcastConfig) SubscriberTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.SubscriberTimeout)
	return d
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
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

	if _, err := c.Validation.Window(); err != nil {
		return err
	}

	debounce, heartbeat, timeout, err := c.Broadcast.durations()
	if err != nil {
		return err
	}
	if debounce < 0 {
		return fmt.Errorf("broadcast.debounce must be >= 0")
	}
	if heartbeat <= 0 {
		return fmt.Errorf("broadcast.heartbeat_interval must be > 0")
	}
	if timeout <= 0 {
		return fmt.Errorf("broadcast.subscriber_timeout must be > 0")
	}
	if c.Broadcast.BufferSize <= 0 {
		return fmt.Errorf("broadcast.buffer_size must be > 0")
	}
	if c.Broadcast.QueueSize <= 0 {
		return fmt.Errorf("broadcast.queue_size must be > 0")
	}

	if strings.TrimSpace(c.Files.Dir) == "" {
		return fmt.Errorf("files.dir is required")
	}

	return nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                  8080,
		"server.host":                  "0.0.0.0",
		"server.mode":                  "release",
		"database.dsn":                 "postgres://localhost:5432/gridtrack?sslmode=disable",
		"database.max_open_conns":      25,
		"database.max_idle_conns":      25,
		"database.auto_migrate":        true,
		"validation.window_start":      "2024-10-28",
		"validation.window_end":        "2024-11-03",
		"broadcast.debounce":           "100ms",
		"broadcast.heartbeat_interval": "15s",
		"broadcast.subscriber_timeout": "60s",
		"broadcast.buffer_size":        64,
		"broadcast.queue_size":         1024,
		"files.dir":                    "./data/files",
		"reporting.preset_dir":         "./config/presets",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("GRIDTRACK_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "GRIDTRACK_")), "__", ".", -1)
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
