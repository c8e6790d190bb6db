// Package config loads envdoctor settings from a YAML file, a .env file
// and ENVDOCTOR_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"envdoctor/internal/common"
)

const (
	DefaultParallelism            = 4
	DefaultRemediationParallelism = 1
	DefaultProbeTimeout           = 2 * time.Minute
	DefaultRemediationTimeout     = 30 * time.Minute
)

// Environment variables that override the file.
const (
	EnvManifest    = "ENVDOCTOR_MANIFEST"
	EnvFix         = "ENVDOCTOR_FIX"
	EnvParallelism = "ENVDOCTOR_PARALLELISM"
	EnvLogLevel    = "ENVDOCTOR_LOG_LEVEL"
	EnvMetricsFile = "ENVDOCTOR_METRICS_FILE"
	EnvSkip        = "ENVDOCTOR_SKIP"
)

type Config struct {
	// Manifest is a local path, file:// URI or http(s) URL.
	Manifest string   `yaml:"manifest"`
	Skip     []string `yaml:"skip,omitempty"`
	Fix      bool     `yaml:"fix"`

	Parallelism            int           `yaml:"parallelism"`
	RemediationParallelism int           `yaml:"remediation_parallelism"`
	ProbeTimeout           time.Duration `yaml:"probe_timeout"`
	RemediationTimeout     time.Duration `yaml:"remediation_timeout"`

	ApplyEnvironment bool   `yaml:"apply_environment"`
	LogLevel         string `yaml:"log_level,omitempty"`
	MetricsFile      string `yaml:"metrics_file,omitempty"`
}

func Default() *Config {
	return &Config{
		Parallelism:            DefaultParallelism,
		RemediationParallelism: DefaultRemediationParallelism,
		ProbeTimeout:           DefaultProbeTimeout,
		RemediationTimeout:     DefaultRemediationTimeout,
		ApplyEnvironment:       true,
		LogLevel:               "info",
	}
}

// DefaultPath is ~/.envdoctor/config.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".envdoctor", "config.yaml")
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults
// unless the caller named the file explicitly.
func LoadOptional(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		common.CLILogger.Debug("No config file at %s, using defaults", path)
		return Default(), nil
	}
	return cfg, err
}

// LoadDotEnv exports the variables in path, ignoring a missing file.
// Variables already set in the process win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from ENVDOCTOR_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvManifest)); v != "" {
		c.Manifest = v
	}
	if v := strings.TrimSpace(getenv(EnvFix)); v != "" {
		fix, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFix, err)
		}
		c.Fix = fix
	}
	if v := strings.TrimSpace(getenv(EnvParallelism)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvParallelism, err)
		}
		c.Parallelism = n
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvMetricsFile)); v != "" {
		c.MetricsFile = v
	}
	if v := strings.TrimSpace(getenv(EnvSkip)); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				c.Skip = append(c.Skip, id)
			}
		}
	}
	return c.Validate()
}

// Validate checks ranges. The manifest is checked separately by commands
// that need one.
func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	if c.RemediationParallelism < 1 {
		return fmt.Errorf("remediation_parallelism must be at least 1, got %d", c.RemediationParallelism)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive")
	}
	if c.RemediationTimeout <= 0 {
		return fmt.Errorf("remediation_timeout must be positive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// RequireManifest reports a missing manifest source.
func (c *Config) RequireManifest() error {
	if strings.TrimSpace(c.Manifest) == "" {
		return fmt.Errorf("no manifest configured: pass --manifest or set %s", EnvManifest)
	}
	return nil
}

// Save writes cfg as YAML, creating the directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
