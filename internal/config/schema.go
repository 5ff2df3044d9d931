package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version    int             `yaml:"version"`
	Engine     EngineConfig    `yaml:"engine"`
	SearchPath []string        `yaml:"search_path,omitempty"` // directories searched by import_file
	Policy     string          `yaml:"policy"`                // cached, read-through, force-recompute
	Journal    JournalConfig   `yaml:"journal"`
	Log        LogConfig       `yaml:"log"`
	Discovery  DiscoveryConfig `yaml:"discovery"`
}

// EngineConfig locates the engine context
type EngineConfig struct {
	Endpoint     string     `yaml:"endpoint"`
	RegistryHost string     `yaml:"registry_host"` // assumed for bare network names
	RegistryPort int        `yaml:"registry_port"`
	Timeout      Duration   `yaml:"timeout"`
	SSH          *SSHConfig `yaml:"ssh,omitempty"`
}

// SSHConfig describes an SSH jump host. Credentials are referenced, not stored:
// key_file is a path, the *_env fields name environment variables.
type SSHConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port,omitempty"`
	User           string   `yaml:"user"`
	KeyFile        string   `yaml:"key_file,omitempty"`
	PassphraseEnv  string   `yaml:"passphrase_env,omitempty"`
	PasswordEnv    string   `yaml:"password_env,omitempty"`
	KnownHostsFile string   `yaml:"known_hosts_file,omitempty"`
	Timeout        Duration `yaml:"timeout,omitempty"`
}

// JournalConfig holds session journal settings
type JournalConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text, json
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// DiscoveryConfig holds naming-service scan settings
type DiscoveryConfig struct {
	Ports       []int    `yaml:"ports"`
	Timeout     Duration `yaml:"timeout"`
	Concurrency int      `yaml:"concurrency"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
