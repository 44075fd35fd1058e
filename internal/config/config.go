package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/shelepuginivan/sunshift/internal/gammarelay"
)

// Config represents the application configuration
type Config struct {
	AppName         string         `yaml:"app_name"`
	Log             LogConfig      `yaml:"log"`
	PollInterval    Duration       `yaml:"poll_interval"`    // Tray refresh interval
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"` // Time to wait for in-flight calls on exit
	Bridge          BridgeConfig   `yaml:"bridge"`
	EventBus        EventBusConfig `yaml:"eventbus"`
	Notify          NotifyConfig   `yaml:"notify"`
	Presets         []Preset       `yaml:"presets"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string        `yaml:"level"`
	JSON   bool          `yaml:"json"`
	Colors bool          `yaml:"colors"`
	File   LogFileConfig `yaml:"file"`
}

// LogFileConfig configures the rotated log file. Empty Path disables it.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// BridgeConfig contains async bridge worker pool settings
type BridgeConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// EventBusConfig contains event bus worker pool settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// NotifyConfig contains desktop notification settings
type NotifyConfig struct {
	Disabled bool     `yaml:"disabled"`
	Timeout  Duration `yaml:"timeout"` // How long a notification stays on screen
}

// Preset is a named gamma state
type Preset struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Temperature uint16  `yaml:"temperature"`
	Brightness  float64 `yaml:"brightness"`
}

// State returns the gamma state of the preset.
func (p Preset) State() gammarelay.State {
	return gammarelay.State{
		Temperature: p.Temperature,
		Brightness:  p.Brightness,
	}
}

// DefaultPresets returns the built-in presets.
func DefaultPresets() []Preset {
	return []Preset{
		{ID: "day", Name: "Day", Temperature: 6500, Brightness: 1.0},
		{ID: "evening", Name: "Evening", Temperature: 4500, Brightness: 0.8},
		{ID: "night", Name: "Night", Temperature: 3000, Brightness: 0.6},
		{ID: "reading", Name: "Reading", Temperature: 5000, Brightness: 0.9},
		{ID: "movie", Name: "Movie", Temperature: 3500, Brightness: 0.7},
	}
}

// Preset returns the preset with the given id.
func (c *Config) Preset(id string) (Preset, bool) {
	for _, p := range c.Presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultPath returns the config file location, $XDG_CONFIG_HOME/sunshift/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sunshift", "config.yaml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// LoadOrDefault is [Load] that returns [Default] if path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse parses configuration data and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.AppName == "" {
		cfg.AppName = "Sunshift"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.File.MaxSizeMB == 0 {
		cfg.Log.File.MaxSizeMB = 10
	}
	if cfg.Log.File.MaxBackups == 0 {
		cfg.Log.File.MaxBackups = 3
	}
	if cfg.Log.File.MaxAgeDays == 0 {
		cfg.Log.File.MaxAgeDays = 28
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(5 * time.Second)
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	// Bridge defaults
	if cfg.Bridge.Workers == 0 {
		cfg.Bridge.Workers = 4
	}
	if cfg.Bridge.QueueSize == 0 {
		cfg.Bridge.QueueSize = 32
	}

	// Event bus defaults
	if cfg.EventBus.Workers == 0 {
		cfg.EventBus.Workers = 2
	}
	if cfg.EventBus.QueueSize == 0 {
		cfg.EventBus.QueueSize = 64
	}

	if cfg.Notify.Timeout == 0 {
		cfg.Notify.Timeout = Duration(3 * time.Second)
	}

	// Presets from the file are merged over the built-ins by id.
	presets := DefaultPresets()
	for _, p := range cfg.Presets {
		replaced := false
		for i := range presets {
			if presets[i].ID == p.ID {
				presets[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			presets = append(presets, p)
		}
	}
	cfg.Presets = presets
}

// validate checks the values read from the file, before defaults are applied.
func (c *Config) validate() error {
	durations := []struct {
		name  string
		value Duration
	}{
		{"poll_interval", c.PollInterval},
		{"shutdown_timeout", c.ShutdownTimeout},
		{"notify.timeout", c.Notify.Timeout},
	}
	for _, d := range durations {
		if d.value.Duration() < 0 {
			return fmt.Errorf("%s must not be negative", d.name)
		}
	}

	sizes := []struct {
		name  string
		value int
	}{
		{"bridge.workers", c.Bridge.Workers},
		{"bridge.queue_size", c.Bridge.QueueSize},
		{"eventbus.workers", c.EventBus.Workers},
		{"eventbus.queue_size", c.EventBus.QueueSize},
	}
	for _, s := range sizes {
		if s.value < 0 {
			return fmt.Errorf("%s must not be negative", s.name)
		}
	}

	seen := make(map[string]bool, len(c.Presets))
	for i, p := range c.Presets {
		if p.ID == "" {
			return fmt.Errorf("presets[%d]: id is required", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("presets[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}

	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
