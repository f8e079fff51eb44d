// Package config handles configuration loading from YAML files and environment
// variables. Configuration precedence: CLI flags > environment variables >
// config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "5s", "30s", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all agent configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Agent      AgentConfig      `yaml:"agent"`
	Collection CollectionConfig `yaml:"collection"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds Blackbox API connection settings.
type ServerConfig struct {
	URL       string `yaml:"url"`
	TenantKey string `yaml:"tenant_key"`

	// InsecureTLS disables certificate and hostname verification.
	// Demo/self-signed escape hatch only.
	InsecureTLS bool `yaml:"insecure_tls"`
}

// AgentConfig holds agent identity settings.
type AgentConfig struct {
	ID string `yaml:"id"`
}

// CollectionConfig holds telemetry collection settings.
type CollectionConfig struct {
	Interval     Duration `yaml:"interval"`
	SealInterval Duration `yaml:"seal_interval"`
	TopProcesses int      `yaml:"top_processes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "https://api.blackbox.ghostlogic.tech",
			TenantKey:   "",
			InsecureTLS: false,
		},
		Collection: CollectionConfig{
			Interval:     Duration{5 * time.Second},
			SealInterval: Duration{60 * time.Second},
			TopProcesses: 20,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   defaultLogDir(),
		},
	}
}

// Locate returns the config file path to use: the BLACKBOX_CONFIG environment
// variable if set, otherwise the platform default path.
func Locate() string {
	if p := os.Getenv("BLACKBOX_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath()
}

// Load reads configuration from a YAML file and merges with defaults.
// If the file does not exist, a default config with a freshly minted agent id
// is written there so the operator has something to edit, and that config is
// returned. Environment variables override file values in either case.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		cfg.Agent.ID = uuid.NewString()
		if werr := Write(cfg, path); werr != nil {
			// Not fatal: run on defaults, the operator can pass --config.
			fmt.Fprintf(os.Stderr, "[config] cannot create %s: %v\n", path, werr)
		} else {
			fmt.Fprintf(os.Stderr, "[config] created default config at %s\n", path)
		}
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if cfg.Agent.ID == "" {
		cfg.Agent.ID = uuid.NewString()
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Write serializes the config to a YAML file at the given path, creating
// parent directories if needed. On unix the file is written 0600 since it
// holds the tenant key.
func Write(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	mode := os.FileMode(0600)
	if runtime.GOOS == "windows" {
		mode = 0640
	}
	return os.WriteFile(path, data, mode)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("BLACKBOX_URL"); url != "" {
		cfg.Server.URL = url
	}
	if key := os.Getenv("BLACKBOX_TENANT_KEY"); key != "" {
		cfg.Server.TenantKey = key
	}
	if level := os.Getenv("BLACKBOX_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Validate returns a list of configuration problems. An empty list means the
// config is usable. Problems are warnings, not fatal: the agent still runs
// so the backend can return a clear error instead of the agent guessing.
func (c *Config) Validate() []string {
	var problems []string
	if c.Server.URL == "" {
		problems = append(problems, "server url is empty")
	}
	if c.Server.TenantKey == "" {
		problems = append(problems, "tenant_key is empty, agent will not authenticate")
	}
	if c.Collection.Interval.Duration < time.Second {
		problems = append(problems, "collection interval must be >= 1s")
	}
	if c.Collection.SealInterval.Duration < 5*time.Second {
		problems = append(problems, "seal interval must be >= 5s")
	}
	return problems
}

// PIDFilePath returns the path of the agent PID file: under the configured
// log directory when set, else a platform default.
func (c *Config) PIDFilePath() string {
	if c.Logging.Dir != "" {
		return filepath.Join(c.Logging.Dir, "blackbox-agent.pid")
	}
	return defaultPIDPath()
}
