// Package config provides configuration management for bnshell.
//
// Config file locations (priority order):
//  1. $BNSHELL_CONFIG
//  2. ./bnshell.yaml
//  3. $XDG_CONFIG_HOME/bnshell/config.yaml
//  4. ~/.config/bnshell/config.yaml
//  5. /etc/bnshell/config.yaml
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bnshell/internal/binding"
)

const (
	defaultEndpoint     = "http://localhost:8099"
	defaultRegistryHost = "localhost"
	defaultRegistryPort = 1099
	defaultTimeout      = 30 * time.Second
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Engine.Endpoint == "" {
		c.Engine.Endpoint = defaultEndpoint
	}
	if c.Engine.RegistryHost == "" {
		c.Engine.RegistryHost = defaultRegistryHost
	}
	if c.Engine.RegistryPort == 0 {
		c.Engine.RegistryPort = defaultRegistryPort
	}
	if c.Engine.Timeout == 0 {
		c.Engine.Timeout = Duration(defaultTimeout)
	}
	if ssh := c.Engine.SSH; ssh != nil {
		if ssh.Port == 0 {
			ssh.Port = 22
		}
		if ssh.Timeout == 0 {
			ssh.Timeout = Duration(10 * time.Second)
		}
	}
	if c.Policy == "" {
		c.Policy = "cached"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = DefaultJournalPath()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.File != "" && c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 10
	}
	if len(c.Discovery.Ports) == 0 {
		c.Discovery.Ports = []int{defaultRegistryPort}
	}
	if c.Discovery.Timeout == 0 {
		c.Discovery.Timeout = Duration(2 * time.Minute)
	}
	if c.Discovery.Concurrency == 0 {
		c.Discovery.Concurrency = 4
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	u, err := url.Parse(c.Engine.Endpoint)
	if err != nil {
		return fmt.Errorf("engine.endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("engine.endpoint: unsupported scheme %q", u.Scheme)
	}
	if c.Engine.RegistryPort < 1 || c.Engine.RegistryPort > 65535 {
		return fmt.Errorf("engine.registry_port: %d out of range", c.Engine.RegistryPort)
	}
	if ssh := c.Engine.SSH; ssh != nil {
		if ssh.Host == "" || ssh.User == "" {
			return fmt.Errorf("engine.ssh: host and user are required")
		}
		if ssh.KeyFile == "" && ssh.PasswordEnv == "" {
			return fmt.Errorf("engine.ssh: key_file or password_env is required")
		}
	}
	if _, err := binding.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	for _, p := range c.Discovery.Ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("discovery.ports: %d out of range", p)
		}
	}
	return nil
}

// ExpandSearchPath returns the search path with ~ and environment variables expanded
func (c *Config) ExpandSearchPath() []string {
	out := make([]string, 0, len(c.SearchPath))
	for _, dir := range c.SearchPath {
		dir = os.ExpandEnv(dir)
		if strings.HasPrefix(dir, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				dir = home + dir[1:]
			}
		}
		out = append(out, dir)
	}
	return out
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Engine: %s (registry %s:%d, timeout %s)\n",
		c.Engine.Endpoint, c.Engine.RegistryHost, c.Engine.RegistryPort, c.Engine.Timeout.Duration())
	if c.Engine.SSH != nil {
		summary += fmt.Sprintf("Tunnel: %s@%s:%d\n", c.Engine.SSH.User, c.Engine.SSH.Host, c.Engine.SSH.Port)
	}
	summary += fmt.Sprintf("Policy: %s\n", c.Policy)
	if c.Journal.Disabled {
		summary += "Journal: disabled\n"
	} else {
		summary += fmt.Sprintf("Journal: %s\n", c.Journal.Path)
	}
	summary += fmt.Sprintf("Search path (%d):", len(c.SearchPath))
	for _, dir := range c.SearchPath {
		summary += fmt.Sprintf(" %s", dir)
	}
	return summary
}
