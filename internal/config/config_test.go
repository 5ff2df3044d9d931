package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Engine.Endpoint != defaultEndpoint {
		t.Errorf("Engine.Endpoint = %s, want %s", cfg.Engine.Endpoint, defaultEndpoint)
	}
	if cfg.Engine.RegistryPort != 1099 {
		t.Errorf("Engine.RegistryPort = %d, want 1099", cfg.Engine.RegistryPort)
	}
	if cfg.Engine.Timeout.Duration() != defaultTimeout {
		t.Errorf("Engine.Timeout = %s, want %s", cfg.Engine.Timeout.Duration(), defaultTimeout)
	}
	if cfg.Policy != "cached" {
		t.Errorf("Policy = %s, want cached", cfg.Policy)
	}
	if cfg.Journal.Path == "" {
		t.Error("Journal.Path should not be empty")
	}
	if len(cfg.Discovery.Ports) != 1 || cfg.Discovery.Ports[0] != 1099 {
		t.Errorf("Discovery.Ports = %v, want [1099]", cfg.Discovery.Ports)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestApplyDefaultsKeepsValues(t *testing.T) {
	cfg := &Config{
		Engine: EngineConfig{
			Endpoint: "https://bn.example.org",
			SSH:      &SSHConfig{Host: "jump", User: "bn", KeyFile: "/k"},
		},
		Policy: "force-recompute",
		Log:    LogConfig{File: "/var/log/bnshell.log"},
	}
	cfg.applyDefaults()

	if cfg.Engine.Endpoint != "https://bn.example.org" {
		t.Errorf("Engine.Endpoint overwritten: %s", cfg.Engine.Endpoint)
	}
	if cfg.Policy != "force-recompute" {
		t.Errorf("Policy overwritten: %s", cfg.Policy)
	}
	if cfg.Engine.SSH.Port != 22 {
		t.Errorf("Engine.SSH.Port = %d, want 22", cfg.Engine.SSH.Port)
	}
	if cfg.Log.MaxSizeMB != 10 {
		t.Errorf("Log.MaxSizeMB = %d, want 10 when a log file is set", cfg.Log.MaxSizeMB)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.Engine.Endpoint = "rmi://host" },
			wantErr: "unsupported scheme",
		},
		{
			name:    "bad registry port",
			mutate:  func(c *Config) { c.Engine.RegistryPort = 70000 },
			wantErr: "registry_port",
		},
		{
			name:    "ssh without credentials",
			mutate:  func(c *Config) { c.Engine.SSH = &SSHConfig{Host: "jump", User: "bn"} },
			wantErr: "key_file or password_env",
		},
		{
			name:    "ssh without user",
			mutate:  func(c *Config) { c.Engine.SSH = &SSHConfig{Host: "jump", KeyFile: "/k"} },
			wantErr: "host and user",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "loud" },
			wantErr: "log.level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log.format",
		},
		{
			name:    "bad discovery port",
			mutate:  func(c *Config) { c.Discovery.Ports = []int{1099, 0} },
			wantErr: "discovery.ports",
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.Policy = "sometimes" },
			wantErr: "policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Engine.Endpoint = "http://bn.example.org:8099"
	cfg.Engine.SSH = &SSHConfig{Host: "jump.example.org", User: "bn", KeyFile: "~/.ssh/id_ed25519"}
	cfg.Policy = "read-through"
	cfg.SearchPath = []string{"/srv/networks"}
	cfg.Discovery.Timeout = Duration(30 * time.Second)

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, path, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error: %v", err)
	}
	if path != configPath {
		t.Errorf("path = %s, want %s", path, configPath)
	}
	if loaded.Engine.Endpoint != "http://bn.example.org:8099" {
		t.Errorf("Engine.Endpoint = %s", loaded.Engine.Endpoint)
	}
	if loaded.Engine.SSH == nil || loaded.Engine.SSH.Host != "jump.example.org" {
		t.Errorf("Engine.SSH = %+v", loaded.Engine.SSH)
	}
	if loaded.Policy != "read-through" {
		t.Errorf("Policy = %s, want read-through", loaded.Policy)
	}
	if len(loaded.SearchPath) != 1 || loaded.SearchPath[0] != "/srv/networks" {
		t.Errorf("SearchPath = %v", loaded.SearchPath)
	}
	if loaded.Discovery.Timeout.Duration() != 30*time.Second {
		t.Errorf("Discovery.Timeout = %s, want 30s", loaded.Discovery.Timeout.Duration())
	}
}

func TestLoadFromPathErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, _, err := LoadFromPath(filepath.Join(tmpDir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	badYAML := filepath.Join(tmpDir, "bad.yaml")
	os.WriteFile(badYAML, []byte("engine: [unclosed"), 0644)
	if _, _, err := LoadFromPath(badYAML); err == nil {
		t.Error("expected error for malformed YAML")
	}

	badDuration := filepath.Join(tmpDir, "duration.yaml")
	os.WriteFile(badDuration, []byte("engine:\n  timeout: soon\n"), 0644)
	if _, _, err := LoadFromPath(badDuration); err == nil {
		t.Error("expected error for malformed duration")
	}

	invalid := filepath.Join(tmpDir, "invalid.yaml")
	os.WriteFile(invalid, []byte("log:\n  level: loud\n"), 0644)
	if _, _, err := LoadFromPath(invalid); err == nil {
		t.Error("expected validation error")
	}
}

func TestFindConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	found := FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should find config in working directory")
	}

	t.Setenv(EnvConfigPath, "/nonexistent/path.yaml")
	found = FindConfigPath()
	if found == "" {
		t.Error("FindConfigPath() should fall back when env path doesn't exist")
	}

	explicit := filepath.Join(tmpDir, "explicit.yaml")
	if err := cfg.Save(explicit); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	t.Setenv(EnvConfigPath, explicit)
	if found := FindConfigPath(); found != explicit {
		t.Errorf("FindConfigPath() = %s, want %s", found, explicit)
	}
}

func TestDefaultJournalPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	if got := DefaultJournalPath(); got != "/tmp/state/bnshell/journal.db" {
		t.Errorf("DefaultJournalPath() = %s", got)
	}

	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", "/home/bn")
	if got := DefaultJournalPath(); got != "/home/bn/.local/state/bnshell/journal.db" {
		t.Errorf("DefaultJournalPath() = %s", got)
	}
}

func TestExpandSearchPath(t *testing.T) {
	t.Setenv("BN_NETS", "/srv/nets")
	t.Setenv("HOME", "/home/bn")
	cfg := &Config{SearchPath: []string{"$BN_NETS", "~/networks", "relative"}}

	got := cfg.ExpandSearchPath()
	want := []string{"/srv/nets", "/home/bn/networks", "relative"}
	if len(got) != len(want) {
		t.Fatalf("ExpandSearchPath() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExpandSearchPath()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Minute)

	if d.Duration() != 5*time.Minute {
		t.Errorf("Duration() = %s, want 5m", d.Duration())
	}

	marshaled, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML() error: %v", err)
	}
	if marshaled != "5m0s" {
		t.Errorf("MarshalYAML() = %v, want 5m0s", marshaled)
	}
}

func TestSummary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Journal.Disabled = true
	summary := cfg.Summary()

	for _, want := range []string{"Engine: http://localhost:8099", "Policy: cached", "Journal: disabled"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary() missing %q:\n%s", want, summary)
		}
	}
}
