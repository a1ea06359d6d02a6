// Package config loads solver configuration from .abt/config.yaml with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree.
type Config struct {
	Solver  SolverConfig  `yaml:"solver"`
	Logging LoggingConfig `yaml:"logging"`
}

// SolverConfig tunes the agent network.
type SolverConfig struct {
	// IdleTimeout is each agent's quiescence-check interval.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// MailboxSize is the per-agent mailbox capacity.
	MailboxSize int `yaml:"mailbox_size"`
	// SolveTimeout bounds a whole solve run; zero means no bound.
	SolveTimeout time.Duration `yaml:"solve_timeout"`
}

// LoggingConfig controls the categorized file logging; mirrored by the
// logging package, which reads the file directly to avoid an import cycle.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// Default returns production defaults.
func Default() *Config {
	return &Config{
		Solver: SolverConfig{
			IdleTimeout:  200 * time.Millisecond,
			MailboxSize:  256,
			SolveTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config from path. A missing file yields the defaults;
// environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.fillDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

// fillDefaults replaces zero values left by a partial config file.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Solver.IdleTimeout <= 0 {
		c.Solver.IdleTimeout = def.Solver.IdleTimeout
	}
	if c.Solver.MailboxSize <= 0 {
		c.Solver.MailboxSize = def.Solver.MailboxSize
	}
	if c.Solver.SolveTimeout < 0 {
		c.Solver.SolveTimeout = def.Solver.SolveTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
}

// applyEnvOverrides lets ABT_* variables win over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ABT_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Solver.IdleTimeout = d
		}
	}
	if v := os.Getenv("ABT_SOLVE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Solver.SolveTimeout = d
		}
	}
	if v := os.Getenv("ABT_MAILBOX_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Solver.MailboxSize = n
		}
	}
	if v := os.Getenv("ABT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
}
