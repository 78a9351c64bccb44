// Package config holds the fluxpost configuration: input file locations,
// the source strength used for normalization, output artifact toggles and
// logging. Loaded from YAML with environment overrides; command-line flags
// take precedence over both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full fluxpost configuration.
type Config struct {
	Inputs        InputsConfig  `yaml:"inputs"`
	Normalization NormConfig    `yaml:"normalization"`
	Outputs       OutputsConfig `yaml:"outputs"`
	Archive       ArchiveConfig `yaml:"archive"`
	Watch         WatchConfig   `yaml:"watch"`
	Logging       LoggingConfig `yaml:"logging"`
}

// InputsConfig locates the solver output files.
type InputsConfig struct {
	// Results is the scalar/vector summary table file.
	Results string `yaml:"results"`
	// Detectors is the per-detector tally table file.
	Detectors string `yaml:"detectors"`
	// Detector is the tally name to process (e.g. DET1).
	Detector string `yaml:"detector"`
}

// NormConfig configures the normalization resolver.
type NormConfig struct {
	// SourceStrength is the absolute source strength in neutrons/second.
	SourceStrength float64 `yaml:"source_strength"`
}

// OutputsConfig selects which artifacts a run emits.
type OutputsConfig struct {
	Dir    string `yaml:"dir"`
	CSV    bool   `yaml:"csv"`
	Plots  bool   `yaml:"plots"`
	Styled bool   `yaml:"styled"` // lipgloss terminal summary instead of plain text
}

// ArchiveConfig configures the SQLite run archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Inputs: InputsConfig{
			Detector: "DET1",
		},
		Normalization: NormConfig{
			SourceStrength: 1.0e17,
		},
		Outputs: OutputsConfig{
			Dir:    "out",
			CSV:    true,
			Plots:  true,
			Styled: true,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Path:    "data/fluxpost.db",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets FLUXPOST_* environment variables override the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FLUXPOST_RESULTS"); v != "" {
		c.Inputs.Results = v
	}
	if v := os.Getenv("FLUXPOST_DETECTORS"); v != "" {
		c.Inputs.Detectors = v
	}
	if v := os.Getenv("FLUXPOST_DETECTOR"); v != "" {
		c.Inputs.Detector = v
	}
	if v := os.Getenv("FLUXPOST_SOURCE_STRENGTH"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Normalization.SourceStrength = f
		}
	}
	if v := os.Getenv("FLUXPOST_OUTPUT_DIR"); v != "" {
		c.Outputs.Dir = v
	}
	if v := os.Getenv("FLUXPOST_ARCHIVE_DB"); v != "" {
		c.Archive.Path = v
		c.Archive.Enabled = true
	}
	if v := os.Getenv("FLUXPOST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the configuration for a processing run.
func (c *Config) Validate() error {
	if c.Inputs.Results == "" {
		return fmt.Errorf("inputs.results is required")
	}
	if c.Inputs.Detectors == "" {
		return fmt.Errorf("inputs.detectors is required")
	}
	if c.Inputs.Detector == "" {
		return fmt.Errorf("inputs.detector is required")
	}
	if c.Normalization.SourceStrength <= 0 {
		return fmt.Errorf("normalization.source_strength must be positive, got %g", c.Normalization.SourceStrength)
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	return nil
}

// DebounceDuration returns the parsed watch debounce, falling back to the
// default when unset or unparseable.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
