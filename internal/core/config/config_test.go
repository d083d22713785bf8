package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "release", cfg.Server.Mode)
	require.True(t, cfg.Database.AutoMigrate)
	require.Equal(t, "100ms", cfg.Broadcast.Debounce)
	require.Equal(t, 64, cfg.Broadcast.BufferSize)
	require.Equal(t, 1024, cfg.Broadcast.QueueSize)

	window, err := cfg.Validation.Window()
	require.NoError(t, err)
	require.Equal(t, "2024-10-28", window.Start.Format("2006-01-02"))
	require.Equal(t, "2024-11-03", window.End.Format("2006-01-02"))

	require.Equal(t, 100*time.Millisecond, cfg.Broadcast.DebounceDuration())
	require.Equal(t, 15*time.Second, cfg.Broadcast.HeartbeatDuration())
	require.Equal(t, 60*time.Second, cfg.Broadcast.SubscriberTimeoutDuration())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  mode: debug
broadcast:
  debounce: 250ms
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.Mode)
	require.Equal(t, 250*time.Millisecond, cfg.Broadcast.DebounceDuration())
	// Untouched keys keep their defaults.
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))

	t.Setenv("GRIDTRACK_SERVER__PORT", "7070")
	t.Setenv("GRIDTRACK_DATABASE__DSN", "postgres://override:5432/db")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "postgres://override:5432/db", cfg.Database.DSN)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"empty host", func(c *Config) { c.Server.Host = " " }},
		{"bad mode", func(c *Config) { c.Server.Mode = "verbose" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"zero open conns", func(c *Config) { c.Database.MaxOpenConns = 0 }},
		{"bad window start", func(c *Config) { c.Validation.WindowStart = "oops" }},
		{"reversed window", func(c *Config) {
			c.Validation.WindowStart = "2024-11-03"
			c.Validation.WindowEnd = "2024-10-28"
		}},
		{"bad debounce", func(c *Config) { c.Broadcast.Debounce = "soon" }},
		{"negative debounce", func(c *Config) { c.Broadcast.Debounce = "-1s" }},
		{"zero heartbeat", func(c *Config) { c.Broadcast.HeartbeatInterval = "0s" }},
		{"zero buffer", func(c *Config) { c.Broadcast.BufferSize = 0 }},
		{"empty files dir", func(c *Config) { c.Files.Dir = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, valid().Validate())
}

func TestValidationConfig_Window(t *testing.T) {
	w, err := ValidationConfig{WindowStart: "2024-10-28", WindowEnd: "2024-11-03"}.Window()
	require.NoError(t, err)
	require.True(t, w.End.After(w.Start))

	_, err = ValidationConfig{WindowStart: "2024-10-28", WindowEnd: "never"}.Window()
	require.Error(t, err)
}
