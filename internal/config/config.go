// Package config loads and validates matex.yaml project configuration.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the project configuration.
type Config struct {
	Project Project       `yaml:"project"`
	Version int           `yaml:"version"`
	Sources []string      `yaml:"sources"`
	Output  OutputConfig  `yaml:"output"`
	Install InstallConfig `yaml:"install"`
	History HistoryConfig `yaml:"history"`
}

// Project identifies the project being built.
type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// OutputConfig controls where build artifacts are staged and emitted.
type OutputConfig struct {
	BuildDir    string `yaml:"build_dir"`
	DistDir     string `yaml:"dist_dir"`
	CacheDir    string `yaml:"cache_dir"`
	AutoComment bool   `yaml:"auto_comment"`
	Mode        string `yaml:"mode"` // octal, e.g. "0755"
}

// InstallConfig controls where the built artifact is installed.
type InstallConfig struct {
	// Dir overrides the default install directory
	// (~/texmf/tex/latex/<name>).
	Dir string `yaml:"dir,omitempty"`
}

// HistoryConfig controls the build history store.
type HistoryConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// Load loads configuration from the specified file. Environment variables
// referenced in the YAML are expanded; a .env file, when present, is loaded
// first.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Output.BuildDir == "" {
		c.Output.BuildDir = "build"
	}
	if c.Output.DistDir == "" {
		c.Output.DistDir = "dist"
	}
	if c.Output.CacheDir == "" {
		c.Output.CacheDir = ".matex-cache"
	}
	if c.Output.Mode == "" {
		c.Output.Mode = "0755"
	}
}

// Validate checks the configuration for values that would break a build.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version %d", c.Version)
	}
	if _, err := c.ArtifactMode(); err != nil {
		return err
	}
	return nil
}

// ValidateForBuild checks the additional requirements of build and install
// operations.
func (c *Config) ValidateForBuild() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	return nil
}

// ArtifactMode parses output.mode into file permission bits.
func (c *Config) ArtifactMode() (os.FileMode, error) {
	mode, err := strconv.ParseUint(c.Output.Mode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid output.mode %q: %w", c.Output.Mode, err)
	}
	return os.FileMode(mode), nil
}

// HistoryEnabled reports whether build history should be recorded. Defaults
// to true.
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

// ArtifactName is the file name of the bundled artifact.
func (c *Config) ArtifactName() string {
	return c.Project.Name + ".sty"
}

// DescriptorPath is the generated packaging descriptor written next to the
// config file.
func (c *Config) DescriptorPath() string {
	return c.Project.Name + ".spec.yaml"
}
