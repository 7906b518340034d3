package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 600, cfg.Engine.HorizonMonths)
	assert.Equal(t, 2*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 1024, cfg.Cache.MaxEntries)
	assert.False(t, cfg.Engine.ConditionalAsHard)
}

func TestLoad_FileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goalgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: 127.0.0.1:9090
store:
  backend: badger
  path: /var/lib/goalgraph
engine:
  conditional_as_hard: true
  timeout: 500ms
cache:
  max_entries: 0
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.True(t, cfg.Engine.ConditionalAsHard)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.Timeout)
	assert.Equal(t, 0, cfg.Cache.MaxEntries)
	// untouched keys keep defaults
	assert.Equal(t, 600, cfg.Engine.HorizonMonths)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GOALGRAPH_ADDR", ":7070")
	t.Setenv("GOALGRAPH_GOALS_SOURCE", "http")
	t.Setenv("GOALGRAPH_GOALS_URL", "http://goals.internal")
	t.Setenv("GOALGRAPH_HORIZON_MONTHS", "120")
	t.Setenv("GOALGRAPH_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "http", cfg.Goals.Source)
	assert.Equal(t, "http://goals.internal", cfg.Goals.URL)
	assert.Equal(t, 120, cfg.Engine.HorizonMonths)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
}

func TestLoad_BadHorizonEnv(t *testing.T) {
	t.Setenv("GOALGRAPH_HORIZON_MONTHS", "fifty years")
	_, err := Load("")
	assert.ErrorContains(t, err, "HORIZON_MONTHS")
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }, "Backend"},
		{"badger without path", func(c *Config) { c.Store.Backend = "badger" }, "Path"},
		{"http without url", func(c *Config) { c.Goals.Source = "http" }, "URL"},
		{"zero horizon", func(c *Config) { c.Engine.HorizonMonths = 0 }, "HorizonMonths"},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, "Level"},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "Exporter"},
		{"negative timeout", func(c *Config) { c.Engine.Timeout = -time.Second }, "engine.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
