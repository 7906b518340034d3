// Package config loads goalgraph settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GOALGRAPH_"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Goals   GoalsConfig   `yaml:"goals"`
	Engine  EngineConfig  `yaml:"engine"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Tracing TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type StoreConfig struct {
	Backend string `yaml:"backend" validate:"oneof=memory badger sqlite"`
	Path    string `yaml:"path" validate:"required_unless=Backend memory"`
}

// GoalsConfig says where goal records come from. The engine never owns
// them.
type GoalsConfig struct {
	Source  string        `yaml:"source" validate:"oneof=file http"`
	File    string        `yaml:"file" validate:"required_if=Source file"`
	URL     string        `yaml:"url" validate:"required_if=Source http"`
	Timeout time.Duration `yaml:"timeout"`
}

type EngineConfig struct {
	HorizonMonths     int           `yaml:"horizon_months" validate:"min=1"`
	ConditionalAsHard bool          `yaml:"conditional_as_hard"`
	Timeout           time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	// MaxEntries of zero disables the result cache.
	MaxEntries int `yaml:"max_entries" validate:"min=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter" validate:"oneof=stdout none"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{Backend: "memory"},
		Goals: GoalsConfig{
			Source:  "file",
			File:    "goals.yaml",
			Timeout: 5 * time.Second,
		},
		Engine: EngineConfig{
			HorizonMonths: 600,
			Timeout:       2 * time.Second,
		},
		Cache:   CacheConfig{MaxEntries: 1024},
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{Exporter: "none"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path, or one that does not exist, yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and timeouts.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"goals.timeout":        c.Goals.Timeout,
		"engine.timeout":       c.Engine.Timeout,
	} {
		if d < 0 {
			return fmt.Errorf("invalid config: %s must not be negative", name)
		}
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"ADDR":          &c.Server.Addr,
		"STORE_BACKEND": &c.Store.Backend,
		"STORE_PATH":    &c.Store.Path,
		"GOALS_SOURCE":  &c.Goals.Source,
		"GOALS_FILE":    &c.Goals.File,
		"GOALS_URL":     &c.Goals.URL,
		"LOG_LEVEL":     &c.Log.Level,
	}
	for key, dst := range str {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	if v, ok := lookup(EnvPrefix + "HORIZON_MONTHS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sHORIZON_MONTHS: %w", EnvPrefix, err)
		}
		c.Engine.HorizonMonths = n
	}
	return nil
}

// SlogLevel maps the configured level name.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
