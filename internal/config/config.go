package config

import (
	"fmt"
	"os"
	"time"

	"quiz-room-service/internal/app"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Store struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Game struct {
		Grace           string `yaml:"grace"`
		EmptyRoundLimit *int   `yaml:"empty_round_limit"`
		StartDelay      string `yaml:"start_delay"`
		ResultsLimit    int    `yaml:"results_limit"`
		ListLimit       int    `yaml:"list_limit"`
		SearchLimit     int    `yaml:"search_limit"`
	} `yaml:"game"`
}

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return cfg, cfg.validate()
}

func (c *Config) applyDefaults() {
	if c.Store.Backend == "" {
		c.Store.Backend = BackendFile
	}
	if c.Store.Path == "" {
		c.Store.Path = "quiz_database.json"
	}
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("store backend %q needs redis.addr", c.Store.Backend)
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			return fmt.Errorf("store backend %q needs postgres.url", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	for name, raw := range map[string]string{"game.grace": c.Game.Grace, "game.start_delay": c.Game.StartDelay} {
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.Game.EmptyRoundLimit != nil && *c.Game.EmptyRoundLimit < 0 {
		return fmt.Errorf("game.empty_round_limit must not be negative")
	}
	return nil
}

// Service maps the game section onto the service tunables, keeping the
// defaults for anything left unset.
func (c Config) Service() app.ServiceConfig {
	out := app.DefaultServiceConfig()
	out.Game.Grace = TTLDuration(c.Game.Grace, out.Game.Grace)
	out.Game.StartDelay = TTLDuration(c.Game.StartDelay, out.Game.StartDelay)
	if out.Game.Grace < 0 {
		out.Game.Grace = 0
	}
	if out.Game.StartDelay < 0 {
		out.Game.StartDelay = 0
	}
	if c.Game.EmptyRoundLimit != nil {
		out.Game.EmptyRoundLimit = *c.Game.EmptyRoundLimit
	}
	if c.Game.ResultsLimit > 0 {
		out.Game.ResultsLimit = c.Game.ResultsLimit
	}
	if c.Game.ListLimit > 0 {
		out.ListLimit = c.Game.ListLimit
	}
	if c.Game.SearchLimit > 0 {
		out.SearchLimit = c.Game.SearchLimit
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
