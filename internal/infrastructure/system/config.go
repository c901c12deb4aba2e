// Package system provides infrastructure for system-level configuration.
// This includes loading the config file (~/.autoslice.yaml) and deriving the
// runtime settings of every component from it.
package system

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	apperrors "github.com/reglet-dev/autoslice/internal/application/errors"
	"github.com/reglet-dev/autoslice/internal/domain/entities"
)

// DefaultOutputDir is the artifact root below the project root when none is configured.
const DefaultOutputDir = "gcode"

// DefaultDebounce is how long a watched path must be quiet before its change is reported.
const DefaultDebounce = 250 * time.Millisecond

// Config represents the configuration file (~/.autoslice.yaml).
type Config struct {
	Projects     string             `yaml:"projects"`
	Profiles     string             `yaml:"profiles"`
	Output       string             `yaml:"output"`
	Slicer       SlicerConfig       `yaml:"slicer"`
	Transfer     TransferConfig     `yaml:"transfer"`
	Targets      []string           `yaml:"targets"`
	Watch        WatchConfig        `yaml:"watch"`
	Distribution DistributionConfig `yaml:"distribution"`
	Extensions   ExtensionsConfig   `yaml:"extensions"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// SlicerConfig configures the slicing program.
type SlicerConfig struct {
	Command string `yaml:"command"`
	// MaxConcurrent caps parallel slicer processes within a pass (0 = max(NumCPU, 2)).
	MaxConcurrent int `yaml:"max_concurrent"`
}

// TransferConfig configures the transfer program.
type TransferConfig struct {
	Command         string `yaml:"command"`
	MirrorBatchSize int    `yaml:"mirror_batch_size"`
	MaxConcurrent   int    `yaml:"max_concurrent"`
}

// WatchConfig configures the change watchers.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
	// SweepOnRemove deletes a project's artifacts when the project file disappears.
	SweepOnRemove bool `yaml:"sweep_on_remove"`
}

// DistributionConfig configures target selection.
type DistributionConfig struct {
	// IncludeUntagged sends printer-less artifacts to allow-listed targets.
	IncludeUntagged bool `yaml:"include_untagged"`
}

// ExtensionsConfig holds the file extensions, without the leading dot.
type ExtensionsConfig struct {
	Project  string `yaml:"project"`
	Profile  string `yaml:"profile"`
	Artifact string `yaml:"artifact"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address /metrics is served on while watching; empty disables it.
	Listen string `yaml:"listen"`
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultConfig returns a Config with defaults for every optional field.
// This is used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Slicer: SlicerConfig{
			Command: "prusa-slicer",
		},
		Transfer: TransferConfig{
			Command:         "rsync",
			MirrorBatchSize: 10,
			MaxConcurrent:   10,
		},
		Targets: []string{},
		Watch: WatchConfig{
			Debounce:      DefaultDebounce,
			SweepOnRemove: true,
		},
		Distribution: DistributionConfig{
			IncludeUntagged: true,
		},
		Extensions: ExtensionsConfig{
			Project:  "3mf",
			Profile:  "ini",
			Artifact: "gcode",
		},
	}
}

// Load loads the configuration from the specified path.
// If the file does not exist, returns DefaultConfig(). Keys missing from the
// file keep their defaults.
func (l *ConfigLoader) Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	//nolint:gosec // G304: path is user-provided config file, validated to exist above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Resolve makes every path absolute and fills in the default output root.
func (c *Config) Resolve() error {
	for _, p := range []*string{&c.Projects, &c.Profiles, &c.Output} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return apperrors.NewConfigurationError("paths", fmt.Sprintf("cannot resolve %s", *p), err)
		}
		*p = abs
	}
	if c.Output == "" && c.Projects != "" {
		c.Output = filepath.Join(c.Projects, DefaultOutputDir)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Projects == "" {
		return apperrors.NewConfigurationError("projects", "project directory is required", nil)
	}
	if c.Profiles == "" {
		return apperrors.NewConfigurationError("profiles", "slicer profile directory is required", nil)
	}
	if c.Slicer.Command == "" {
		return apperrors.NewConfigurationError("slicer", "slicer command is required", nil)
	}
	if c.Slicer.MaxConcurrent < 0 {
		return apperrors.NewConfigurationError("slicer", "max_concurrent cannot be negative", nil)
	}
	if c.Transfer.MirrorBatchSize < 0 || c.Transfer.MaxConcurrent < 0 {
		return apperrors.NewConfigurationError("transfer", "concurrency limits cannot be negative", nil)
	}
	if c.Watch.Debounce < 0 {
		return apperrors.NewConfigurationError("watch", "debounce cannot be negative", nil)
	}
	if c.Extensions.Project == "" || c.Extensions.Profile == "" || c.Extensions.Artifact == "" {
		return apperrors.NewConfigurationError("extensions", "file extensions cannot be empty", nil)
	}
	if c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return apperrors.NewConfigurationError("metrics", "listen must be host:port", err)
		}
	}
	if _, err := c.ParsedTargets(); err != nil {
		return err
	}
	return nil
}

// ParsedTargets parses the configured target strings.
func (c *Config) ParsedTargets() ([]entities.Target, error) {
	targets, err := entities.ParseTargets(c.Targets)
	if err != nil {
		return nil, apperrors.NewConfigurationError("targets", "invalid target", err)
	}
	return targets, nil
}
