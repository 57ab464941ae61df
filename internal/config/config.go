// Package config models edmon.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models edmon.yml. Intervals are duration strings ("500ms",
// "5s"); use the accessor methods for parsed values.
type Config struct {
	Journal struct {
		Dir                   string `yaml:"dir"`
		PollInterval          string `yaml:"poll_interval"`
		RotationCheckInterval string `yaml:"rotation_check_interval"`
	} `yaml:"journal"`
	Missions struct {
		MassacreMarker string `yaml:"massacre_marker"`
	} `yaml:"missions"`
	Display struct {
		GoodRatio float64 `yaml:"good_ratio"`
		WarnRatio float64 `yaml:"warn_ratio"`
	} `yaml:"display"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// Load reads config from path; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes. Omitted
// keys keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if d, err := time.ParseDuration(c.Journal.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("config.journal.poll_interval must be a positive duration, have %q", c.Journal.PollInterval)
	}
	if d, err := time.ParseDuration(c.Journal.RotationCheckInterval); err != nil || d <= 0 {
		return fmt.Errorf("config.journal.rotation_check_interval must be a positive duration, have %q", c.Journal.RotationCheckInterval)
	}
	if c.Missions.MassacreMarker == "" {
		return fmt.Errorf("config.missions.massacre_marker is required")
	}
	if c.Display.GoodRatio <= 0 || c.Display.GoodRatio > 1 {
		return fmt.Errorf("config.display.good_ratio must be in (0, 1], have %v", c.Display.GoodRatio)
	}
	if c.Display.WarnRatio <= 0 || c.Display.WarnRatio >= c.Display.GoodRatio {
		return fmt.Errorf("config.display.warn_ratio must be positive and below good_ratio, have %v", c.Display.WarnRatio)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level must be one of debug, info, warn, error, have %q", c.Log.Level)
	}
	return nil
}

// PollInterval returns the parsed journal poll interval.
func (c *Config) PollInterval() time.Duration {
	d, _ := time.ParseDuration(c.Journal.PollInterval)
	return d
}

// RotationCheckInterval returns the parsed rotation check interval.
func (c *Config) RotationCheckInterval() time.Duration {
	d, _ := time.ParseDuration(c.Journal.RotationCheckInterval)
	return d
}

// JournalDir resolves the journal folder: the configured directory, or
// the game's per-OS default location.
func (c *Config) JournalDir() string {
	if c.Journal.Dir != "" {
		return c.Journal.Dir
	}
	return DefaultJournalDir()
}

// DefaultJournalDir is where the game writes journals on this OS,
// falling back to the current directory when the home directory is
// unknown.
func DefaultJournalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "Saved Games", "Frontier Developments", "Elite Dangerous")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Frontier Developments", "Elite Dangerous")
	default:
		return filepath.Join(home, ".local", "share", "Frontier Developments", "Elite Dangerous")
	}
}

// GenerateDefault returns the default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `journal:
  # Folder the game writes journal files into. Empty means the game's
  # default location for this OS.
  dir: ""
  # How often the active journal file is checked for growth.
  poll_interval: 500ms
  # How often the folder is re-scanned for a newer journal file.
  rotation_check_interval: 5s

missions:
  # Substring of the mission template id that marks massacre missions.
  massacre_marker: Mission_Massacre

display:
  # Kill ratio coloring thresholds: green at or above good_ratio,
  # yellow at or above warn_ratio, red below.
  good_ratio: 0.8
  warn_ratio: 0.5

log:
  # One of: debug, info, warn, error.
  level: info
`
