// Package config handles reasoning-kernel configuration via YAML files
// and environment variables, following the teacher's precedence model:
// flags > environment variables > config file > built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the core reads from its environment (spec §6:
// "a graph-store path. No other configuration enters the core through
// the environment.") plus the orchestrator tuning spec §4.4 names.
type Config struct {
	// GraphDataDir is the one environment variable the core itself
	// consults: TUTORKERNEL_DATA_DIR.
	GraphDataDir string `yaml:"data_dir"`

	// Orchestrator holds the scheduler's resource bounds (spec §4.4).
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`

	// Logging controls the verbosity of the kernel's stderr logger.
	Logging LoggingConfig `yaml:"logging"`
}

// OrchestratorConfig mirrors the four tunables named in spec §4.4.
type OrchestratorConfig struct {
	MaxTicksPerTurn  int           `yaml:"max_ticks_per_turn"`
	MaxDemonsPerTick int           `yaml:"max_demons_per_tick"`
	MaxMemorySlots   int           `yaml:"max_memory_slots"`
	TickTimeout      time.Duration `yaml:"tick_timeout"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadDefaults returns the spec's default orchestrator profile (spec
// §4.4: 20/5/100/500ms) and a ./data graph directory.
func LoadDefaults() *Config {
	return &Config{
		GraphDataDir: "./data",
		Orchestrator: OrchestratorConfig{
			MaxTicksPerTurn:  20,
			MaxDemonsPerTick: 5,
			MaxMemorySlots:   100,
			TickTimeout:      500 * time.Millisecond,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadFromEnv starts from defaults and overlays TUTORKERNEL_* environment
// variables, following the teacher's applyEnvVars pattern.
func LoadFromEnv() *Config {
	cfg := LoadDefaults()
	applyEnvVars(cfg)
	return cfg
}

// LoadFromFile reads a YAML config file, overlaying it onto the defaults,
// then applies environment variables on top (env wins over file).
func LoadFromFile(path string) (*Config, error) {
	cfg := LoadDefaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnvVars(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvVars(cfg *Config) {
	cfg.GraphDataDir = getEnv("TUTORKERNEL_DATA_DIR", cfg.GraphDataDir)
	cfg.Orchestrator.MaxTicksPerTurn = getEnvInt("TUTORKERNEL_MAX_TICKS_PER_TURN", cfg.Orchestrator.MaxTicksPerTurn)
	cfg.Orchestrator.MaxDemonsPerTick = getEnvInt("TUTORKERNEL_MAX_DEMONS_PER_TICK", cfg.Orchestrator.MaxDemonsPerTick)
	cfg.Orchestrator.MaxMemorySlots = getEnvInt("TUTORKERNEL_MAX_MEMORY_SLOTS", cfg.Orchestrator.MaxMemorySlots)
	cfg.Orchestrator.TickTimeout = getEnvDuration("TUTORKERNEL_TICK_TIMEOUT", cfg.Orchestrator.TickTimeout)
	cfg.Logging.Level = getEnv("TUTORKERNEL_LOG_LEVEL", cfg.Logging.Level)
}

// Validate rejects nonsensical orchestrator bounds.
func (c *Config) Validate() error {
	if c.Orchestrator.MaxTicksPerTurn <= 0 {
		return fmt.Errorf("config: max_ticks_per_turn must be positive, got %d", c.Orchestrator.MaxTicksPerTurn)
	}
	if c.Orchestrator.MaxDemonsPerTick <= 0 {
		return fmt.Errorf("config: max_demons_per_tick must be positive, got %d", c.Orchestrator.MaxDemonsPerTick)
	}
	if c.Orchestrator.MaxMemorySlots <= 0 {
		return fmt.Errorf("config: max_memory_slots must be positive, got %d", c.Orchestrator.MaxMemorySlots)
	}
	if c.Orchestrator.TickTimeout <= 0 {
		return fmt.Errorf("config: tick_timeout must be positive, got %s", c.Orchestrator.TickTimeout)
	}
	if c.GraphDataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	return nil
}

// String returns a safe, loggable representation.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DataDir: %s, Orchestrator: %+v, LogLevel: %s}",
		c.GraphDataDir, c.Orchestrator, c.Logging.Level)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

// getEnvBool is kept alongside the other env helpers for parity with the
// teacher's helper family, used by callers (e.g. cmd/tutor) reading
// boolean flags' env defaults. An explicit false-ish value (e.g. "0",
// "off") is honored rather than falling through to defaultVal, but a
// value that matches neither list falls back to defaultVal instead of
// being silently treated as false.
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultVal
}

// GetEnvBool is the exported form of getEnvBool for use outside this
// package (cmd/tutor's flag defaults).
func GetEnvBool(key string, defaultVal bool) bool { return getEnvBool(key, defaultVal) }

// GetEnvStr is the exported form of getEnv for use outside this package.
func GetEnvStr(key, defaultVal string) string { return getEnv(key, defaultVal) }

// TutorProfile returns the alternate 15/4/80/300ms profile spec §4.4
// calls out as "used by the tutor kernel".
func TutorProfile() OrchestratorConfig {
	return OrchestratorConfig{
		MaxTicksPerTurn:  15,
		MaxDemonsPerTick: 4,
		MaxMemorySlots:   80,
		TickTimeout:      300 * time.Millisecond,
	}
}
